package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"catastro/internal/config"
	"catastro/internal/exporter"
	"catastro/internal/metrics"
	"catastro/internal/storage"
)

var (
	exportTo          string
	exportOutput      string
	exportDSN         string
	exportTable       string
	exportCreateTable bool
	exportRecordTag   string
	exportRootTag     string
	exportWorkers     int
)

var exportCmd = &cobra.Command{
	Use:   "export INPUT...",
	Short: "Export property records from XML files or ZIP archives to a flat table",
	Long: `Export reads property records from the given XML documents and ZIP
archives, in the order given (archive entries in stored order), and writes one
row per record to the selected destination. Values are carried as text exactly
as they appear in the source; nothing becomes visible at the destination
unless the whole run succeeds.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := loadJob()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			job.Export.Inputs = args
		}
		if cmd.Flags().Changed("to") {
			job.Export.Sink.Kind = exportTo
		}
		if cmd.Flags().Changed("output") {
			job.Export.Sink.Output = exportOutput
		}
		if cmd.Flags().Changed("dsn") {
			job.Export.Sink.DSN = exportDSN
		}
		if cmd.Flags().Changed("table") {
			job.Export.Sink.Table = exportTable
		}
		if cmd.Flags().Changed("create-table") {
			job.Export.Sink.CreateTable = exportCreateTable
		}
		if cmd.Flags().Changed("record-tag") {
			job.Export.RecordTag = exportRecordTag
		}
		if cmd.Flags().Changed("root-tag") {
			job.Export.RootTag = exportRootTag
		}
		if cmd.Flags().Changed("workers") {
			job.Export.Workers = exportWorkers
		}

		if err := reportIssues(config.ValidateExport(job.Export)); err != nil {
			return err
		}

		sink, err := storage.Open(storage.Options{
			Kind:        job.Export.Sink.Kind,
			Output:      job.Export.Sink.Output,
			DSN:         job.Export.Sink.DSN,
			Table:       job.Export.Sink.Table,
			CreateTable: job.Export.Sink.CreateTable,
		})
		if err != nil {
			return err
		}
		defer sink.Close()

		cfg := exporter.Config{
			Inputs:    job.Export.Inputs,
			RecordTag: job.Export.RecordTag,
			RootTag:   job.Export.RootTag,
			Workers:   job.Export.Workers,
		}

		start := time.Now()
		sum, err := exporter.Export(cmd.Context(), cfg, sink, cliObserver{quiet: flagQuiet})
		metrics.RecordRun("export", err, time.Since(start))
		metrics.RecordRecords("export", "exported", int64(sum.Rows))
		if err != nil {
			return err
		}

		if !flagQuiet {
			fmt.Printf("exported %d rows from %d sources in %s\n",
				sum.Rows, sum.Sources, time.Since(start).Truncate(time.Millisecond))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "csv", "destination kind (csv, postgres, sqlite)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "O", "", "csv destination path")
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "database connection string")
	exportCmd.Flags().StringVar(&exportTable, "table", "", "destination table name")
	exportCmd.Flags().BoolVar(&exportCreateTable, "create-table", false, "issue CREATE TABLE IF NOT EXISTS before loading")
	exportCmd.Flags().StringVar(&exportRecordTag, "record-tag", config.DefaultExportRecordTag, "local name of the repeating record element")
	exportCmd.Flags().StringVar(&exportRootTag, "root-tag", "", "expected document root (unchecked when empty)")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 1, "concurrent source extraction (output order is preserved)")
}

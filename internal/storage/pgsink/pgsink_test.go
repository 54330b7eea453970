package pgsink

import "testing"

func TestNewRequiresDSNAndTable(t *testing.T) {
	if _, err := New(Config{Table: "t"}); err == nil {
		t.Error("missing DSN accepted")
	}
	if _, err := New(Config{DSN: "postgres://x"}); err == nil {
		t.Error("missing table accepted")
	}
	if _, err := New(Config{DSN: "postgres://x", Table: "public.t"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestCreateTableSQL(t *testing.T) {
	got := createTableSQL("public.catastro", []string{"tv", "nv"})
	want := `CREATE TABLE IF NOT EXISTS "public"."catastro" ("tv" TEXT, "nv" TEXT)`
	if got != want {
		t.Fatalf("sql = %s", got)
	}
}

func TestSplitFQN(t *testing.T) {
	id := splitFQN("public.catastro")
	if len(id) != 2 || id[0] != "public" || id[1] != "catastro" {
		t.Fatalf("id = %v", id)
	}
	if id := splitFQN("catastro"); len(id) != 1 || id[0] != "catastro" {
		t.Fatalf("id = %v", id)
	}
}

func TestPgIdentEscapes(t *testing.T) {
	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("ident = %s", got)
	}
}

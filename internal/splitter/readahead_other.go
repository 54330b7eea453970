//go:build !linux

package splitter

import "os"

func adviseSequential(*os.File) {}

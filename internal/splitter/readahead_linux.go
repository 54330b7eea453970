//go:build linux

package splitter

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential is a best-effort kernel hint: the file is about to be read
// once, front to back, so readahead aggressively.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}

//go:build linux

package session

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the engine is about to scan f from
// start to end.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}

//go:build linux

package lshsig

import "golang.org/x/sys/unix"

// adviseRandom hints to the kernel that a mapped table will be read at
// random offsets, disabling readahead.
// Best-effort: errors are silently ignored.
func adviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}

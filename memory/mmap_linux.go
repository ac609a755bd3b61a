//go:build linux

package memory

import "golang.org/x/sys/unix"

// PageSize is the OS allocation granularity used to size the suballocator's
// bitmap (spec.md §4.5 "granularity = one OS page").
var PageSize = unix.Getpagesize()

// mmapExecutable reserves a fresh anonymous, private mapping that is
// readable, writable, and executable (spec.md §4.5), grounded on wazero's
// platform package mmap wrappers (internal/platform/mmap_linux.go in the
// teacher repo, retrieved here only as a test-shaped reference).
func mmapExecutable(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

func munmapExecutable(mem []byte) error {
	return unix.Munmap(mem)
}

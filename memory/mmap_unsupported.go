//go:build !linux && !windows

package memory

import "errors"

// PageSize falls back to the common 4 KiB granularity on platforms with no
// dedicated mmap backend wired in.
var PageSize = 4096

func mmapExecutable(size int) ([]byte, error) {
	return nil, errors.New("memory: executable mapping is not supported on this platform")
}

func munmapExecutable(mem []byte) error {
	return errors.New("memory: executable mapping is not supported on this platform")
}

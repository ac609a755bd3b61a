//go:build windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// PageSize is fixed at 4 KiB on Windows for x86/x64 (the allocation
// granularity returned by GetSystemInfo is larger, but VirtualAlloc commits
// are page-granular, matching spec.md §4.5).
var PageSize = 4096

// mmapExecutable reserves and commits a region with PAGE_EXECUTE_READWRITE
// (spec.md §4.5: "VirtualAlloc with EXECUTE_READWRITE on Windows").
func mmapExecutable(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func munmapExecutable(mem []byte) error {
	addr := uintptr(unsafe.Pointer(&mem[0]))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}

//go:build windows

package framebuffer

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type pageProvider struct{}

// PageProvider commits pages with VirtualAlloc so the pixel memory never
// lives on the Go heap.
func PageProvider() Provider { return pageProvider{} }

func (pageProvider) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errZeroAlloc
	}
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc %d bytes: %w", n, err)
	}
	// addr is OS-committed memory outside the Go heap, so the uintptr
	// conversion is sound even though vet cannot prove it.
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

func (pageProvider) Free(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("VirtualFree: %w", err)
	}
	return nil
}

//go:build linux || darwin || freebsd || netbsd || openbsd

package framebuffer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type pageProvider struct{}

// PageProvider maps anonymous private pages straight from the kernel so
// the pixel memory never lives on the Go heap.
func PageProvider() Provider { return pageProvider{} }

func (pageProvider) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errZeroAlloc
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", n, err)
	}
	return mem, nil
}

func (pageProvider) Free(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

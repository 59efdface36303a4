//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package framebuffer

// PageProvider falls back to the Go heap where no page allocator is wired.
func PageProvider() Provider { return heapProvider{} }

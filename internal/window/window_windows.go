//go:build windows

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/tinyrange/blitwin/internal/framebuffer"
)

const (
	csOwnDC   = 0x0020
	csHRedraw = 0x0002
	csVRedraw = 0x0001

	wsOverlappedWindow = 0x00CF0000
	wsVisible          = 0x10000000
	swShow             = 5

	wmDestroy     = 0x0002
	wmSize        = 0x0005
	wmPaint       = 0x000F
	wmClose       = 0x0010
	wmQuit        = 0x0012
	wmActivateApp = 0x001C
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	pmRemove      = 0x0001

	vkSpace  = 0x20
	vkLeft   = 0x25
	vkUp     = 0x26
	vkRight  = 0x27
	vkDown   = 0x28
	vkEscape = 0x1B
	vkF4     = 0x73

	// Bit 29 of a key message's lParam is the context code: Alt is down.
	altContextBit = 1 << 29

	dibRGBColors = 0
	srcCopy      = 0x00CC0020

	cwUseDefault = 0x80000000

	errorClassAlreadyExists = 1410
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type msg struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type point struct {
	x int32
	y int32
}

type rect struct {
	left   int32
	top    int32
	right  int32
	bottom int32
}

type paintStruct struct {
	hdc         windows.Handle
	fErase      int32
	rcPaint     rect
	fRestore    int32
	fIncUpdate  int32
	rgbReserved [32]byte
}

// Mirrors BITMAPINFOHEADER (40 bytes).
type bitmapInfoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

type bitmapInfo struct {
	bmiHeader bitmapInfoHeader
	bmiColors [1]uint32
}

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassEx  = user32.NewProc("RegisterClassExW")
	procCreateWindowEx   = user32.NewProc("CreateWindowExW")
	procDefWindowProc    = user32.NewProc("DefWindowProcW")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procGetClientRect    = user32.NewProc("GetClientRect")
	procPeekMessage      = user32.NewProc("PeekMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessage  = user32.NewProc("DispatchMessageW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procBeginPaint       = user32.NewProc("BeginPaint")
	procEndPaint         = user32.NewProc("EndPaint")
	procLoadCursor       = user32.NewProc("LoadCursorW")

	procStretchDIBits = gdi32.NewProc("StretchDIBits")

	procGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
)

func validateProcs() error {
	procs := []*windows.LazyProc{
		procRegisterClassEx,
		procCreateWindowEx,
		procPeekMessage,
		procGetDC,
		procReleaseDC,
		procBeginPaint,
		procStretchDIBits,
	}
	for _, p := range procs {
		if err := p.Find(); err != nil {
			return fmt.Errorf("missing procedure %q: %w", p.Name, err)
		}
	}
	return nil
}

var (
	// Make the class name unique per-process to avoid CS_OWNDC collisions.
	windowClassName = fmt.Sprintf("BlitWindow_%d", os.Getpid())
	windowClass     = windows.StringToUTF16Ptr(windowClassName)

	// The window procedure has no user pointer, so events are routed to the
	// single live window.
	currentWin *winWindow
)

func winErr(op string, err error) error {
	var errno windows.Errno
	if errors.As(err, &errno) && errno != 0 {
		return fmt.Errorf("%s failed: %w", op, errno)
	}
	return fmt.Errorf("%s failed", op)
}

type winWindow struct {
	hwnd    windows.HWND
	pending []Event
}

// New creates a Win32 window presented with StretchDIBits.
func New(title string, width, height int) (Window, error) {
	runtime.LockOSThread()

	if unsafe.Sizeof(bitmapInfoHeader{}) != 40 {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf(
			"BITMAPINFOHEADER size mismatch: got %d, want 40",
			unsafe.Sizeof(bitmapInfoHeader{}),
		)
	}
	if err := validateProcs(); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	if err := registerWindowClass(); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	win := &winWindow{}
	currentWin = win

	hwnd, err := createWindow(title, width, height)
	if err != nil {
		currentWin = nil
		runtime.UnlockOSThread()
		return nil, err
	}
	win.hwnd = hwnd

	procShowWindow.Call(uintptr(hwnd), swShow)
	return win, nil
}

func (w *winWindow) Close() {
	if w.hwnd != 0 {
		procDestroyWindow.Call(uintptr(w.hwnd))
		w.hwnd = 0
	}
	if currentWin == w {
		currentWin = nil
	}
	runtime.UnlockOSThread()
}

func (w *winWindow) Drain(dst []Event) []Event {
	var m msg
	for {
		ret, _, _ := procPeekMessage.Call(
			uintptr(unsafe.Pointer(&m)),
			0,
			0,
			0,
			pmRemove,
		)
		if ret == 0 {
			break
		}
		if m.message == wmQuit {
			w.pending = append(w.pending, Event{Kind: EventQuit})
			continue
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
	dst = append(dst, w.pending...)
	w.pending = w.pending[:0]
	return dst
}

func (w *winWindow) ClientSize() (int, int) {
	var r rect
	procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	return int(r.right - r.left), int(r.bottom - r.top)
}

func (w *winWindow) Present(pixels []byte, width, height, pitch int) error {
	if w.hwnd == 0 || width == 0 || height == 0 {
		return nil
	}
	if pitch != width*framebuffer.BytesPerPixel {
		return fmt.Errorf("DIB rows must be packed: pitch %d for width %d", pitch, width)
	}

	format := framebuffer.Format
	bmi := bitmapInfo{bmiHeader: bitmapInfoHeader{
		biSize:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		biWidth:       int32(width),
		biHeight:      format.DIBHeight(height),
		biPlanes:      1,
		biBitCount:    format.BitCount,
		biCompression: uint32(format.Compression),
	}}

	dc, _, err := procGetDC.Call(uintptr(w.hwnd))
	if dc == 0 {
		return winErr("GetDC", err)
	}
	defer procReleaseDC.Call(uintptr(w.hwnd), dc)

	ret, _, err := procStretchDIBits.Call(
		dc,
		0, 0, uintptr(width), uintptr(height),
		0, 0, uintptr(width), uintptr(height),
		uintptr(unsafe.Pointer(&pixels[0])),
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		srcCopy,
	)
	if ret == 0 {
		return winErr("StretchDIBits", err)
	}
	return nil
}

func (w *winWindow) push(ev Event) {
	w.pending = append(w.pending, ev)
}

func registerWindowClass() error {
	cb := windows.NewCallback(wndProc)
	wc := wndClassEx{
		cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		style:         csOwnDC | csHRedraw | csVRedraw,
		lpfnWndProc:   cb,
		hInstance:     moduleHandle(),
		hCursor:       loadCursor(),
		lpszClassName: windowClass,
	}

	ret, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if ret == 0 {
		if errno, ok := err.(windows.Errno); ok && int(errno) == errorClassAlreadyExists {
			// A previous window in this process registered it.
			return nil
		}
		return winErr("RegisterClassExW", err)
	}
	return nil
}

func createWindow(title string, width, height int) (windows.HWND, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}

	ret, _, err := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(windowClass)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(wsOverlappedWindow|wsVisible),
		cwUseDefault,
		cwUseDefault,
		uintptr(width),
		uintptr(height),
		0,
		0,
		uintptr(moduleHandle()),
		0,
	)
	if ret == 0 {
		return 0, winErr("CreateWindowExW", err)
	}
	return windows.HWND(ret), nil
}

func wndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	w := currentWin
	if w == nil {
		ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
		return ret
	}

	switch message {
	case wmSize:
		w.push(Resize(int(lParam&0xffff), int((lParam>>16)&0xffff)))
		return 0
	case wmClose:
		w.push(Event{Kind: EventClose})
		return 0
	case wmDestroy:
		w.push(Event{Kind: EventDestroy})
		procPostQuitMessage.Call(0)
		return 0
	case wmPaint:
		var ps paintStruct
		procBeginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		procEndPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		w.push(Event{Kind: EventPaint})
		return 0
	case wmActivateApp:
		slog.Debug("window activation changed", "active", wParam != 0)
	case wmKeyDown, wmKeyUp, wmSysKeyDown, wmSysKeyUp:
		w.push(Event{
			Kind: EventKey,
			Key:  translateVirtualKey(wParam),
			Down: message == wmKeyDown || message == wmSysKeyDown,
			Alt:  lParam&altContextBit != 0,
		})
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}

func translateVirtualKey(vk uintptr) Key {
	switch vk {
	case vkEscape:
		return KeyEscape
	case vkF4:
		return KeyF4
	case vkUp:
		return KeyUp
	case vkDown:
		return KeyDown
	case vkLeft:
		return KeyLeft
	case vkRight:
		return KeyRight
	case 'W':
		return KeyW
	case 'A':
		return KeyA
	case 'S':
		return KeyS
	case 'D':
		return KeyD
	case vkSpace:
		return KeySpace
	}
	return KeyUnknown
}

func loadCursor() windows.Handle {
	const idcArrow = 32512
	ret, _, _ := procLoadCursor.Call(0, uintptr(idcArrow))
	return windows.Handle(ret)
}

func moduleHandle() windows.Handle {
	h, _, _ := procGetModuleHandle.Call(0)
	return windows.Handle(h)
}

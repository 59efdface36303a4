package main

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/tinyrange/blitwin/internal/ebitenhost"
	"github.com/tinyrange/blitwin/internal/graphics"
	"github.com/tinyrange/blitwin/internal/input"
	"github.com/tinyrange/blitwin/internal/window"
)

const (
	backendNative   = "native"
	backendEbiten   = "ebiten"
	backendHeadless = "headless"

	headlessFrames = 60
)

type options struct {
	backend     string
	title       string
	width       int
	height      int
	fps         int
	frames      uint64
	screenshot  string
	escapeExits bool
	debug       bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "blitwin",
	Short:         "blitwin renders a software framebuffer into a window",
	Long:          "blitwin renders a software framebuffer into a window, sampling gamepads every frame.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

func init() {
	def := graphics.DefaultConfig()
	f := rootCmd.Flags()
	f.StringVar(&opts.backend, "backend", backendNative, "window backend: native, ebiten or headless")
	f.StringVar(&opts.title, "title", "Blit Window", "window title")
	f.IntVar(&opts.width, "width", def.Width, "initial framebuffer width")
	f.IntVar(&opts.height, "height", def.Height, "initial framebuffer height")
	f.IntVar(&opts.fps, "fps", 0, "pace the loop to this many frames per second (0 free-runs)")
	f.Uint64Var(&opts.frames, "frames", 0, fmt.Sprintf("stop after this many frames (headless defaults to %d)", headlessFrames))
	f.StringVar(&opts.screenshot, "screenshot", "", "write the last frame to this PNG file on exit")
	f.BoolVar(&opts.escapeExits, "escape-exits", false, "stop when Escape is pressed")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "debug logging and error stacks")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if stackFramer, ok := err.(interface{ ErrorStack() string }); opts.debug && ok {
			fmt.Fprintln(os.Stderr, stackFramer.ErrorStack())
			os.Exit(1)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, o options) (err error) {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := graphics.DefaultConfig()
	cfg.Width = o.width
	cfg.Height = o.height
	cfg.FrameRate = o.fps
	cfg.MaxFrames = o.frames
	cfg.ExitOnEscape = o.escapeExits
	cfg.Logger = logger

	var loop *graphics.Loop
	switch o.backend {
	case backendEbiten:
		loop, err = ebitenhost.Run(ctx, o.title, cfg)
		if err != nil && loop == nil {
			return errors.WrapPrefix(err, "create window", 0)
		}
	case backendNative, backendHeadless:
		loop, err = runWindowed(ctx, o, cfg)
		if loop == nil {
			return err
		}
	default:
		return errors.Errorf("unknown backend %q", o.backend)
	}
	defer func() { err = closeLoop(loop, err) }()

	stats := loop.Stats()
	logger.Info("finished",
		"reason", loop.StopReason(),
		"frames", loop.RunState().Frame,
		"presented", stats.Presented,
		"resizes", stats.Resizes,
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, 0)
	}

	if o.screenshot != "" {
		if err := writeScreenshot(loop, o.screenshot); err != nil {
			return errors.WrapPrefix(err, "screenshot", 0)
		}
		logger.Info("screenshot written", "path", o.screenshot)
	}
	return nil
}

// runWindowed drives a loop over a native or headless window. A nil loop
// means the window could not be created.
func runWindowed(ctx context.Context, o options, cfg graphics.Config) (*graphics.Loop, error) {
	var win window.Window
	if o.backend == backendHeadless {
		win = window.NewHeadless(cfg.Width, cfg.Height)
		if cfg.MaxFrames == 0 {
			cfg.MaxFrames = headlessFrames
		}
	} else {
		w, err := window.New(o.title, cfg.Width, cfg.Height)
		if err != nil {
			return nil, errors.WrapPrefix(err, "create window", 0)
		}
		win = w
	}
	defer win.Close()

	cfg.Driver = input.Load(cfg.Logger)
	loop := graphics.New(win, cfg)
	return loop, loop.Run(ctx)
}

// closeLoop releases the loop and reports a release failure unless err
// already carries one.
func closeLoop(loop *graphics.Loop, err error) error {
	if cerr := loop.Close(); cerr != nil {
		if err != nil {
			slog.Warn("release framebuffer", "err", cerr)
			return err
		}
		return errors.WrapPrefix(cerr, "release framebuffer", 0)
	}
	return err
}

func writeScreenshot(loop *graphics.Loop, path string) error {
	fb := loop.Framebuffer()
	if fb.Empty() {
		return errors.New("no frame to capture")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, fb.ToRGBA()); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return file.Close()
}

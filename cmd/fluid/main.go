// Command fluid runs the fluid simulation in an OpenGL window, or
// offscreen on any backend to write a single captured frame.
//
// Interactive controls: drag with the left mouse button to push the
// fluid, scroll to release the text, space for a burst of random splats,
// P to pause and Escape to quit. The -config file is reloaded when it
// changes.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/gogpu/fluid"
	"github.com/gogpu/fluid/backend"
	"github.com/gogpu/fluid/backend/native"
	"github.com/gogpu/fluid/backend/opengl"
	"github.com/gogpu/fluid/backend/software"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func init() {
	// GLFW and OpenGL must run on the main thread.
	runtime.LockOSThread()
}

// runOptions are the parsed command line flags.
type runOptions struct {
	config  string
	backend string
	frames  int
	out     string
	width   int
	height  int
	text    *string
}

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file, reloaded on change in interactive mode")
		backendName = flag.String("backend", "", "headless backend: native, opengl or software (default: best available)")
		headless    = flag.Bool("headless", false, "render offscreen and write a single frame")
		frames      = flag.Int("frames", 120, "frames to simulate in headless mode")
		out         = flag.String("out", "fluid.png", "output image in headless mode (.png, .bmp or .tiff)")
		width       = flag.Int("width", 1280, "canvas width")
		height      = flag.Int("height", 720, "canvas height")
		text        = flag.String("text", "", "text to seed the dye with, overriding the config")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	setupLogging(*verbose)

	o := runOptions{
		config:  *configPath,
		backend: *backendName,
		frames:  *frames,
		out:     *out,
		width:   *width,
		height:  *height,
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "text" {
			o.text = text
		}
	})

	cfg, err := loadConfig(o)
	if err != nil {
		log.Fatalf("fluid: %v", err)
	}
	if *headless {
		err = runHeadless(o, cfg)
	} else {
		err = runInteractive(o, cfg)
	}
	if err != nil {
		log.Fatalf("fluid: %v", err)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fluid.SetLogger(l)
	backend.SetLogger(l)
	software.SetLogger(l)
	native.SetLogger(l)
	opengl.SetLogger(l)
}

// loadConfig reads the config file, if any, and applies the -text
// override.
func loadConfig(o runOptions) (*fluid.Config, error) {
	cfg := fluid.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = fluid.LoadConfig(o.config); err != nil {
			return nil, err
		}
	}
	if o.text != nil {
		cfg.Text = *o.text
	}
	return cfg, nil
}

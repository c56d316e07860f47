package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/fluid"
	"github.com/gogpu/fluid/backend"
)

// runHeadless unpauses the simulation, releases the text with a burst of
// random splats, runs the requested number of frames and writes a
// capture.
func runHeadless(o runOptions, cfg *fluid.Config) error {
	b, err := openBackend(o.backend)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, err := b.NewContext(o.width, o.height)
	if err != nil {
		return fmt.Errorf("%s context: %w", b.Name(), err)
	}
	defer ctx.Destroy()

	frames := fluid.FrameCount(o.frames)
	d, err := fluid.NewDriver(ctx, cfg, fluid.WithFrameSource(&frames))
	if err != nil {
		return err
	}
	defer d.Close()

	d.Activate()
	d.Burst()
	if err := d.Run(context.Background()); !errors.Is(err, fluid.ErrFramesDone) {
		return err
	}

	img, err := d.Capture()
	if err != nil {
		return err
	}
	if err := writeImage(o.out, img); err != nil {
		return err
	}
	fluid.Logger().Info("fluid: frame written", "path", o.out, "backend", b.Name(),
		"frames", d.Frames(), "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return nil
}

func openBackend(name string) (backend.Backend, error) {
	if name == "" {
		return backend.InitDefault()
	}
	return backend.Open(name)
}

// writeImage encodes img by the extension of path.
func writeImage(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", "":
		encode = png.Encode
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Screenshot reads back the default framebuffer.
func (r *Renderer) Screenshot() (*image.RGBA, error) {
	if r.state != Initialized && r.state != Rendering {
		return nil, ErrNotInitialized
	}
	width, height := r.defaultFramebuffer.Width, r.defaultFramebuffer.Height
	r.BindDefaultFramebuffer()
	pix := r.dev.ReadPixels(0, 0, width, height)
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("Screenshot: read %v bytes, want %v", len(pix), width*height*4)
	}

	// Rows come back bottom first.
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	stride := width * 4
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*stride : (height-y)*stride]
		copy(rgba.Pix[y*rgba.Stride:], src)
	}
	return rgba, nil
}

// SaveScreenshot writes the default framebuffer to path. The format is
// chosen by extension: .png, .bmp, .tif or .tiff.
func (r *Renderer) SaveScreenshot(path string) error {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		encode = png.Encode
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("SaveScreenshot(%v): unsupported format %q", path, ext)
	}

	img, err := r.Screenshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("SaveScreenshot(%v): %w", path, err)
	}
	return nil
}

// Package qr renders QR images (raster PNG or textual SVG) for short
// URLs, with configurable size, colors and an optional center logo.
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrRenderFailed wraps every synthesis failure: bad options, encoder
// errors, undecodable logo bytes.
var ErrRenderFailed = errors.New("qr render failed")

// Defaults applied by NormalizeOptions.
const (
	DefaultSizePx     = 300
	DefaultForeground = "#000000"
	DefaultBackground = "#FFFFFF"
	DefaultLogoSizePx = 50

	// QuietZoneModules is the fixed margin around the code, in modules.
	QuietZoneModules = 2
)

// Options drives a single render. Logo carries the raw bytes of an
// already-loaded logo image; resolving a logo ref to bytes is the
// caller's job.
type Options struct {
	SizePx          int
	ForegroundColor string
	BackgroundColor string
	Format          string // model.QRFormatPNG or model.QRFormatSVG
	Logo            []byte
	LogoSizePx      int
}

// NormalizeOptions fills zero values with defaults and validates the
// rest. Returned errors always wrap ErrRenderFailed.
func NormalizeOptions(opts Options) (Options, error) {
	if opts.SizePx == 0 {
		opts.SizePx = DefaultSizePx
	}
	if opts.SizePx < 0 {
		return opts, fmt.Errorf("%w: size must be positive, got %d", ErrRenderFailed, opts.SizePx)
	}
	if opts.ForegroundColor == "" {
		opts.ForegroundColor = DefaultForeground
	}
	if opts.BackgroundColor == "" {
		opts.BackgroundColor = DefaultBackground
	}
	if opts.LogoSizePx == 0 {
		opts.LogoSizePx = DefaultLogoSizePx
	}
	if opts.LogoSizePx < 0 {
		return opts, fmt.Errorf("%w: logo size must be positive, got %d", ErrRenderFailed, opts.LogoSizePx)
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.Format != "png" && opts.Format != "svg" {
		return opts, fmt.Errorf("%w: unsupported format %q", ErrRenderFailed, opts.Format)
	}

	if _, err := parseHexColor(opts.ForegroundColor); err != nil {
		return opts, err
	}
	if _, err := parseHexColor(opts.BackgroundColor); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseHexColor accepts #RGB and #RRGGBB notations.
func parseHexColor(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(s, "#")
	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	if len(raw) != 6 || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrRenderFailed, s)
	}

	value, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrRenderFailed, s)
	}
	return color.RGBA{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
		A: 0xFF,
	}, nil
}

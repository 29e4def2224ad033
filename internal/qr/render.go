package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"

	_ "image/gif"
	_ "image/jpeg"
)

// Render encodes targetURL as a QR image per opts. Whenever a logo is
// present the error-correction level is forced to the highest grade so
// the occluded center stays recoverable; callers cannot lower it.
func Render(targetURL string, opts Options) ([]byte, error) {
	opts, err := NormalizeOptions(opts)
	if err != nil {
		return nil, err
	}
	if targetURL == "" {
		return nil, fmt.Errorf("%w: empty target URL", ErrRenderFailed)
	}

	level := qrcode.Medium
	if len(opts.Logo) > 0 {
		level = qrcode.Highest
	}

	code, err := qrcode.New(targetURL, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	// The fixed two-module quiet zone is drawn by this package, not the
	// encoder.
	code.DisableBorder = true
	modules := code.Bitmap()

	if opts.Format == "svg" {
		return renderSVG(modules, opts)
	}
	return renderPNG(modules, opts)
}

// renderPNG rasterizes the module matrix into a SizePx-square image and
// overlays the logo, if any, at the center.
func renderPNG(modules [][]bool, opts Options) ([]byte, error) {
	fg, _ := parseHexColor(opts.ForegroundColor)
	bg, _ := parseHexColor(opts.BackgroundColor)

	total := len(modules) + 2*QuietZoneModules
	scale := opts.SizePx / total
	if scale < 1 {
		scale = 1
	}
	side := opts.SizePx
	if side < total {
		side = total
	}
	// Center the drawn grid; integer scaling leaves at most total-1
	// pixels of extra background.
	offset := (side - total*scale) / 2

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	fgUniform := image.NewUniform(fg)
	for y, row := range modules {
		for x, set := range row {
			if !set {
				continue
			}
			left := offset + (x+QuietZoneModules)*scale
			top := offset + (y+QuietZoneModules)*scale
			rect := image.Rect(left, top, left+scale, top+scale)
			draw.Draw(img, rect, fgUniform, image.Point{}, draw.Src)
		}
	}

	if len(opts.Logo) > 0 {
		if err := overlayLogo(img, opts.Logo, opts.LogoSizePx); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// overlayLogo draws the decoded logo centered on img, scaled with
// nearest-neighbor sampling to logoSize pixels on its longest edge.
func overlayLogo(img *image.RGBA, logoBytes []byte, logoSize int) error {
	logo, _, err := image.Decode(bytes.NewReader(logoBytes))
	if err != nil {
		return fmt.Errorf("%w: decode logo: %v", ErrRenderFailed, err)
	}

	bounds := logo.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return fmt.Errorf("%w: empty logo image", ErrRenderFailed)
	}

	dstW, dstH := logoSize, logoSize
	if srcW > srcH {
		dstH = logoSize * srcH / srcW
	} else if srcH > srcW {
		dstW = logoSize * srcW / srcH
	}

	side := img.Bounds().Dx()
	left := (side - dstW) / 2
	top := (img.Bounds().Dy() - dstH) / 2

	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			srcX := bounds.Min.X + x*srcW/dstW
			srcY := bounds.Min.Y + y*srcH/dstH
			img.Set(left+x, top+y, logo.At(srcX, srcY))
		}
	}
	return nil
}

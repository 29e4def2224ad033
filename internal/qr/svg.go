package qr

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// renderSVG serializes the module matrix as a standalone SVG document.
// Coordinates are in module units; the width/height attributes scale the
// whole drawing to the requested pixel size.
func renderSVG(modules [][]bool, opts Options) ([]byte, error) {
	total := len(modules) + 2*QuietZoneModules

	var b strings.Builder
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		opts.SizePx, opts.SizePx, total, total)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, total, total, opts.BackgroundColor)

	// One rect per horizontal run of dark modules keeps the document
	// compact without changing the drawing.
	for y, row := range modules {
		x := 0
		for x < len(row) {
			if !row[x] {
				x++
				continue
			}
			run := 0
			for x+run < len(row) && row[x+run] {
				run++
			}
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="1" fill="%s"/>`,
				x+QuietZoneModules, y+QuietZoneModules, run, opts.ForegroundColor)
			x += run
		}
	}

	if len(opts.Logo) > 0 {
		if err := writeSVGLogo(&b, opts, total); err != nil {
			return nil, err
		}
	}

	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

// writeSVGLogo embeds the logo bytes as a centered data-URI image. The
// logo box is expressed in module units so it scales with the drawing.
func writeSVGLogo(b *strings.Builder, opts Options, total int) error {
	mime := http.DetectContentType(opts.Logo)
	if !strings.HasPrefix(mime, "image/") {
		return fmt.Errorf("%w: logo is not an image (%s)", ErrRenderFailed, mime)
	}

	// Convert the pixel-space logo size into module units.
	box := float64(opts.LogoSizePx) * float64(total) / float64(opts.SizePx)
	if box <= 0 || box > float64(total) {
		return fmt.Errorf("%w: logo size %dpx does not fit a %dpx image", ErrRenderFailed, opts.LogoSizePx, opts.SizePx)
	}
	origin := (float64(total) - box) / 2

	encoded := base64.StdEncoding.EncodeToString(opts.Logo)
	fmt.Fprintf(b,
		`<image x="%.2f" y="%.2f" width="%.2f" height="%.2f" preserveAspectRatio="xMidYMid meet" href="data:%s;base64,%s"/>`,
		origin, origin, box, box, mime, encoded)
	return nil
}

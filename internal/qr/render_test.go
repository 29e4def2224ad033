package qr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// decodeQR reads the payload back out of rendered PNG bytes.
func decodeQR(t *testing.T, data []byte) string {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("build bitmap: %v", err)
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("decode qr: %v", err)
	}
	return result.GetText()
}

// testLogo returns a small solid PNG usable as a logo.
func testLogo(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	red := color.RGBA{R: 0xFF, A: 0xFF}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, red)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode logo: %v", err)
	}
	return buf.Bytes()
}

func TestRender_PNGRoundTrip(t *testing.T) {
	const target = "https://qr.example.com/abc123?qr=qr-1"

	data, err := Render(target, Options{})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != DefaultSizePx || img.Bounds().Dy() != DefaultSizePx {
		t.Fatalf("expected %dpx square, got %v", DefaultSizePx, img.Bounds())
	}
	if got := decodeQR(t, data); got != target {
		t.Fatalf("round trip mismatch: got %q want %q", got, target)
	}
}

func TestRender_PNGCustomColors(t *testing.T) {
	const target = "https://qr.example.com/colored"

	data, err := Render(target, Options{
		SizePx:          240,
		ForegroundColor: "#003366",
		BackgroundColor: "#FFFFEE",
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got := decodeQR(t, data); got != target {
		t.Fatalf("round trip mismatch: got %q want %q", got, target)
	}
}

// A logo occludes the center, so the render must pick the highest
// error-correction grade. The round trip proves the payload survives.
func TestRender_PNGWithLogo(t *testing.T) {
	const target = "https://qr.example.com/logo"

	data, err := Render(target, Options{Logo: testLogo(t)})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got := decodeQR(t, data); got != target {
		t.Fatalf("round trip mismatch: got %q want %q", got, target)
	}
}

func TestRender_LogoRejectsGarbage(t *testing.T) {
	_, err := Render("https://example.com", Options{Logo: []byte("not an image")})
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestRender_SVG(t *testing.T) {
	data, err := Render("https://qr.example.com/svg", Options{
		Format:          "svg",
		ForegroundColor: "#112233",
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	doc := string(data)
	if !strings.HasPrefix(doc, "<svg") || !strings.HasSuffix(doc, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	if !strings.Contains(doc, `fill="#112233"`) {
		t.Fatal("expected foreground color in module rects")
	}
	if !strings.Contains(doc, `fill="#FFFFFF"`) {
		t.Fatal("expected default background rect")
	}
}

func TestRender_SVGWithLogo(t *testing.T) {
	data, err := Render("https://qr.example.com/svg-logo", Options{
		Format: "svg",
		Logo:   testLogo(t),
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(string(data), "data:image/png;base64,") {
		t.Fatal("expected embedded logo data URI")
	}
}

func TestRender_EmptyTarget(t *testing.T) {
	if _, err := Render("", Options{}); !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts, err := NormalizeOptions(Options{})
	if err != nil {
		t.Fatalf("NormalizeOptions error: %v", err)
	}
	if opts.SizePx != DefaultSizePx || opts.ForegroundColor != DefaultForeground ||
		opts.BackgroundColor != DefaultBackground || opts.Format != "png" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}

	bad := []Options{
		{SizePx: -1},
		{LogoSizePx: -10},
		{Format: "gif"},
		{ForegroundColor: "red"},
		{BackgroundColor: "#12345"},
	}
	for _, o := range bad {
		if _, err := NormalizeOptions(o); !errors.Is(err, ErrRenderFailed) {
			t.Fatalf("expected ErrRenderFailed for %+v, got %v", o, err)
		}
	}
}

func TestParseHexColor_ShortForm(t *testing.T) {
	c, err := parseHexColor("#f0a")
	if err != nil {
		t.Fatalf("parseHexColor error: %v", err)
	}
	want := color.RGBA{R: 0xFF, G: 0x00, B: 0xAA, A: 0xFF}
	if c != want {
		t.Fatalf("got %+v want %+v", c, want)
	}
}

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAddCaption(t *testing.T) {
	r := NewRenderer(testLogger(), "")
	src := solidPNG(t, 128, 128, color.RGBA{R: 40, G: 40, B: 200, A: 255})

	out, err := r.AddCaption(src, "когда всё пошло не так")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// Output must be a decodable JPEG of the same dimensions.
	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())

	// The caption band must have altered pixels near the bottom.
	changed := false
	for x := 0; x < 128 && !changed; x++ {
		for y := 96; y < 128; y++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			if cr>>8 > 120 && cg>>8 > 120 && cb>>8 > 120 {
				changed = true
				break
			}
		}
	}
	assert.True(t, changed, "caption should draw light pixels over the dark background")
}

func TestAddCaptionEmptyCaption(t *testing.T) {
	r := NewRenderer(testLogger(), "")
	src := solidPNG(t, 32, 32, color.White)

	out, err := r.AddCaption(src, "   ")
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestAddCaptionInvalidImage(t *testing.T) {
	r := NewRenderer(testLogger(), "")

	_, err := r.AddCaption([]byte("not an image"), "caption")
	assert.Error(t, err)
}

func TestAddCaptionMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(testLogger(), "/no/such/font.ttf")
	src := solidPNG(t, 64, 64, color.Black)

	out, err := r.AddCaption(src, "still works")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// Package imaging renders meme captions onto generated images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for decoding backend output
	"log/slog"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const jpegQuality = 92

// Renderer draws a caption band onto an image in the classic meme style:
// white text with a dark outline, wrapped near the bottom edge.
type Renderer struct {
	logger   *slog.Logger
	fontPath string
}

// NewRenderer creates a Renderer. fontPath may be empty, in which case a
// built-in face is used; a configured font that fails to load also falls
// back to the built-in face rather than failing the pipeline.
func NewRenderer(logger *slog.Logger, fontPath string) *Renderer {
	return &Renderer{
		logger:   logger.With("component", "caption_renderer"),
		fontPath: fontPath,
	}
}

// AddCaption decodes the image, draws the caption, and re-encodes as JPEG.
// An empty caption returns the re-encoded image unchanged.
func (r *Renderer) AddCaption(data []byte, caption string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dc := gg.NewContextForImage(img)

	caption = strings.TrimSpace(caption)
	if caption != "" {
		r.drawCaption(dc, caption)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), nil
}

func (r *Renderer) drawCaption(dc *gg.Context, caption string) {
	w := float64(dc.Width())
	h := float64(dc.Height())

	// Scale the face with the image so a 512px and a 1024px render look
	// the same.
	fontSize := h / 12
	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, fontSize); err != nil {
			r.logger.Warn("failed to load caption font, using built-in face",
				"font_path", r.fontPath,
				"error", err)
			dc.SetFontFace(basicfont.Face7x13)
		}
	} else {
		dc.SetFontFace(basicfont.Face7x13)
	}

	x := w / 2
	y := h - h/10
	maxWidth := w * 0.92

	// Outline: redraw the text offset in eight directions before the fill.
	offset := fontSize / 15
	if offset < 1 {
		offset = 1
	}
	dc.SetRGB(0, 0, 0)
	for dy := -1.0; dy <= 1; dy++ {
		for dx := -1.0; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringWrapped(caption, x+dx*offset, y+dy*offset, 0.5, 1, maxWidth, 1.2, gg.AlignCenter)
		}
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(caption, x, y, 0.5, 1, maxWidth, 1.2, gg.AlignCenter)
}

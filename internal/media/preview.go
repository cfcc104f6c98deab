package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	// Decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	thumbnailMaxDimension = 256
	thumbnailQuality      = 80

	// maxDecodePixels caps the decoded size of an image, about 40 MP.
	maxDecodePixels = 40_000_000

	// GenericIcon names the placeholder shown for non-image attachments.
	GenericIcon = "upload"
)

// ErrImageTooLarge is returned for images whose dimensions exceed the decode
// budget.
var ErrImageTooLarge = errors.New("image too large to preview")

// Preview is what a client shows for a staged file: a JPEG thumbnail for
// images, a generic icon for everything else.
type Preview struct {
	Name      string `json:"name"`
	Thumbnail []byte `json:"-"`
	Icon      string `json:"icon,omitempty"`
}

// IsThumbnail reports whether the preview carries image bytes.
func (p Preview) IsThumbnail() bool {
	return len(p.Thumbnail) > 0
}

// Preview builds the preview for a staged file. Images that fail to decode
// fall back to the generic icon.
func (s *Store) Preview(id string) (Preview, error) {
	f, err := s.Get(id)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{Name: f.Handle.Name}
	if !strings.HasPrefix(f.Handle.ContentType, "image/") {
		p.Icon = GenericIcon
		return p, nil
	}
	thumb, err := Thumbnail(f.Data)
	if err != nil {
		p.Icon = GenericIcon
		return p, nil
	}
	p.Thumbnail = thumb
	return p, nil
}

// Thumbnail scales an image to fit within 256x256, applies its EXIF
// orientation and re-encodes it as JPEG. Images whose header declares more
// than maxDecodePixels are refused before any pixel data is decoded.
func Thumbnail(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > thumbnailMaxDimension || h > thumbnailMaxDimension {
		scale := min(float64(thumbnailMaxDimension)/float64(w), float64(thumbnailMaxDimension)/float64(h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
	thumb := applyOrientation(scaled, orientation(data))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// orientation returns the EXIF orientation tag, or 1 when absent.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// applyOrientation returns img rotated or flipped so that it displays upright
// for EXIF orientation o.
func applyOrientation(img image.Image, o int) image.Image {
	if o < 2 || o > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Orientations 5-8 swap the axes.
	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

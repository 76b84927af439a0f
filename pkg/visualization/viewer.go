package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/lucasb-eyer/go-colorful"

	"grainable/internal/models"
	"grainable/pkg/imageio"
)

// Palette is the cycle of colours assigned to consecutive grain labels
var Palette = mustPalette(
	"#ff0000", // red
	"#0000ff", // blue
	"#ffff00", // yellow
	"#ff00ff", // magenta
	"#008000", // green
	"#4b0082", // indigo
	"#ff8c00", // darkorange
	"#00ffff", // cyan
	"#ffc0cb", // pink
	"#9acd32", // yellowgreen
)

func mustPalette(hexes ...string) []color.NRGBA {
	out := make([]color.NRGBA, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("palette colour %s: %v", h, err))
		}
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Viewer renders and saves the preview images of one labeled slice
type Viewer struct {
	// labels is the component labeling of the slice
	labels *models.Labeling

	// raw is the unprocessed crop of the slice; it may be nil
	raw image.Image

	// format is "png" or "webp"
	format string
}

// NewViewer creates a viewer for a labeled slice and its raw crop
func NewViewer(labels *models.Labeling, raw image.Image, format string) *Viewer {
	if format == "" {
		format = "png"
	}
	return &Viewer{labels: labels, raw: raw, format: strings.ToLower(format)}
}

// LabelImage paints every grain with its palette colour on a black background
func (v *Viewer) LabelImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, v.labels.Cols, v.labels.Rows))
	for y := 0; y < v.labels.Rows; y++ {
		for x := 0; x < v.labels.Cols; x++ {
			id := v.labels.At(y, x)
			c := color.NRGBA{A: 255}
			if id > 0 {
				c = Palette[int(id-1)%len(Palette)]
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// SaveSlice writes <dir>/<sample>/<sample>_<slice>.<ext> with the label image
// and, when a raw crop is present, <sample>_<slice>_raw.<ext> next to it.
// The label image is only rendered here.
func (v *Viewer) SaveSlice(dir, sampleID string, sliceIndex int) error {
	base := filepath.Join(dir, sampleID, sampleID+"_"+strconv.Itoa(sliceIndex))

	if err := Save(base+"."+v.format, v.LabelImage(), v.format); err != nil {
		return err
	}
	if v.raw == nil {
		return nil
	}
	return Save(base+"_raw."+v.format, v.raw, v.format)
}

// Save encodes img to path atomically in the given format
func Save(path string, img image.Image, format string) error {
	return imageio.WriteFileAtomic(path, func(w io.Writer) error {
		return Encode(w, img, format)
	})
}

// Encode writes img to w as PNG or lossless WebP
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png", "":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported image format: %s (must be png or webp)", format)
	}
}

// FloatToImage renders a plane in [0,1] as a 16-bit grayscale image
func FloatToImage(f *models.FloatImage) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Cols, f.Rows))
	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Cols; x++ {
			value := uint16(math.Max(0, math.Min(65535, f.At(y, x)*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// MaskToImage renders a mask as black and white
func MaskToImage(m *models.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	for i, on := range m.Pix {
		if on {
			img.Pix[i] = 255
		}
	}
	return img
}

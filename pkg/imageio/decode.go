// Package imageio reads ice-core scans and their side tables from disk and
// writes pipeline outputs atomically.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"grainable/internal/models"
)

// Extensions lists the raster formats a scan may be stored in, in lookup order
var Extensions = []string{".png", ".tif", ".tiff", ".jpg", ".jpeg", ".bmp", ".tga"}

// FindScan returns the path of the raster for sampleID inside dir.
// It fails with models.ErrInputNotFound when no supported file exists.
func FindScan(dir, sampleID string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, sampleID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("scan %s in %s: %w", sampleID, dir, models.ErrInputNotFound)
}

// LoadScan decodes the raster at path into a ScanImage with a luminance plane.
//
// Grayscale rasters keep their bit depth. Colour rasters are converted to
// luminance; 16-bit colour keeps 16 bits, everything else is reduced to 8.
func LoadScan(path, sampleID string) (*models.ScanImage, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	scan := &models.ScanImage{
		ID:     sampleID,
		Width:  b.Dx(),
		Height: b.Dy(),
		Source: img,
		Gray:   make([]uint16, b.Dx()*b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray:
		scan.Channels, scan.BitDepth = 1, 8
		for y := 0; y < scan.Height; y++ {
			for x := 0; x < scan.Width; x++ {
				scan.Gray[y*scan.Width+x] = uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		scan.Channels, scan.BitDepth = 1, 16
		for y := 0; y < scan.Height; y++ {
			for x := 0; x < scan.Width; x++ {
				scan.Gray[y*scan.Width+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		scan.Channels, scan.BitDepth = 4, 16
		for y := 0; y < scan.Height; y++ {
			for x := 0; x < scan.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				scan.Gray[y*scan.Width+x] = g.Y
			}
		}
	default:
		scan.Channels, scan.BitDepth = channelsOf(img), 8
		gray := imaging.Grayscale(img)
		for y := 0; y < scan.Height; y++ {
			row := gray.Pix[y*gray.Stride:]
			for x := 0; x < scan.Width; x++ {
				scan.Gray[y*scan.Width+x] = uint16(row[x*4])
			}
		}
	}

	return scan, nil
}

func channelsOf(img image.Image) int {
	switch img.(type) {
	case *image.YCbCr, *image.CMYK:
		return 3
	case *image.Paletted:
		return 3
	default:
		return 4
	}
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, models.ErrInputNotFound)
		}
		return nil, models.IOError("open "+path, err)
	}
	defer file.Close()

	img, err := decoderFor(path)(file)
	if err != nil {
		return nil, models.IOError("decode "+path, err)
	}
	return img, nil
}

// decoderFor picks the decoder by extension. TGA has no magic number, so
// sniffing through image.Decode cannot tell it apart from other formats.
func decoderFor(path string) func(io.Reader) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode
	case ".jpg", ".jpeg":
		return jpeg.Decode
	case ".tif", ".tiff":
		return tiff.Decode
	case ".bmp":
		return bmp.Decode
	case ".tga":
		return tga.Decode
	default:
		return func(r io.Reader) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		}
	}
}

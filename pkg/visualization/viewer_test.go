package visualization

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"grainable/internal/models"
)

// testLabeling builds a 4x6 labeling with labels 1..3 and a background column
func testLabeling() *models.Labeling {
	lab := &models.Labeling{Rows: 4, Cols: 6, Pix: make([]int32, 24), Count: 3}
	for y := 0; y < 4; y++ {
		for x := 1; x < 6; x++ {
			lab.Pix[y*6+x] = int32((x-1)/2 + 1)
		}
	}
	return lab
}

func TestPalette(t *testing.T) {
	if len(Palette) != 10 {
		t.Fatalf("Expected 10 palette colours, got %d", len(Palette))
	}
	if Palette[0] != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("Expected red first, got %v", Palette[0])
	}
	if Palette[1] != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("Expected blue second, got %v", Palette[1])
	}
}

func TestLabelImage(t *testing.T) {
	viewer := NewViewer(testLabeling(), nil, "png")
	img := viewer.LabelImage()

	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	if c := img.NRGBAAt(0, 0); c != (color.NRGBA{A: 255}) {
		t.Errorf("Expected black background, got %v", c)
	}
	if c := img.NRGBAAt(1, 0); c != Palette[0] {
		t.Errorf("Expected label 1 in %v, got %v", Palette[0], c)
	}
	if c := img.NRGBAAt(5, 3); c != Palette[2] {
		t.Errorf("Expected label 3 in %v, got %v", Palette[2], c)
	}
}

func TestLabelImagePaletteWraps(t *testing.T) {
	lab := &models.Labeling{Rows: 1, Cols: 11, Pix: make([]int32, 11), Count: 11}
	for i := range lab.Pix {
		lab.Pix[i] = int32(i + 1)
	}
	img := NewViewer(lab, nil, "png").LabelImage()
	if img.NRGBAAt(10, 0) != Palette[0] {
		t.Errorf("Expected label 11 to reuse the first colour")
	}
}

func TestSaveSlice(t *testing.T) {
	for _, format := range []string{"png", "webp"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			raw := image.NewGray(image.Rect(0, 0, 6, 4))
			viewer := NewViewer(testLabeling(), raw, format)

			if err := viewer.SaveSlice(dir, "NEEM_2", 3); err != nil {
				t.Fatalf("SaveSlice failed: %v", err)
			}
			for _, name := range []string{"NEEM_2_3." + format, "NEEM_2_3_raw." + format} {
				info, err := os.Stat(filepath.Join(dir, "NEEM_2", name))
				if err != nil {
					t.Fatalf("Expected %s: %v", name, err)
				}
				if info.Size() == 0 {
					t.Errorf("%s is empty", name)
				}
			}
		})
	}
}

func TestSavePNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.png")
	viewer := NewViewer(testLabeling(), nil, "png")
	if err := Save(path, viewer.LabelImage(), "png"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("Expected red at label 1, got %d %d %d", r>>8, g, b)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1)), "gif"); err == nil {
		t.Errorf("Expected error for unsupported format")
	}
}

func TestStageImages(t *testing.T) {
	f := models.NewFloatImage(2, 2)
	f.Pix[3] = 1
	g := FloatToImage(f)
	if g.Gray16At(1, 1).Y != 65535 || g.Gray16At(0, 0).Y != 0 {
		t.Errorf("Unexpected float rendering")
	}

	m := models.NewMask(2, 3)
	m.Set(1, 2, true)
	mi := MaskToImage(m)
	if mi.GrayAt(2, 1).Y != 255 || mi.GrayAt(0, 0).Y != 0 {
		t.Errorf("Unexpected mask rendering")
	}
}

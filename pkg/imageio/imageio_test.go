package imageio

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"grainable/internal/models"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadScanGray16(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray16(image.Rect(0, 0, 4, 3))
	img.SetGray16(2, 1, color.Gray16{Y: 40000})
	writePNG(t, filepath.Join(dir, "NEEM_1.png"), img)

	path, err := FindScan(dir, "NEEM_1")
	if err != nil {
		t.Fatalf("FindScan failed: %v", err)
	}
	scan, err := LoadScan(path, "NEEM_1")
	if err != nil {
		t.Fatalf("LoadScan failed: %v", err)
	}

	if scan.Width != 4 || scan.Height != 3 {
		t.Errorf("Expected 4x3, got %dx%d", scan.Width, scan.Height)
	}
	if scan.BitDepth != 16 || scan.Channels != 1 {
		t.Errorf("Expected 16-bit single channel, got %d-bit %d channels", scan.BitDepth, scan.Channels)
	}
	if got := scan.Gray[1*4+2]; got != 40000 {
		t.Errorf("Expected pixel 40000, got %d", got)
	}
}

func TestLoadScanColour(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	path := filepath.Join(dir, "scan.png")
	writePNG(t, path, img)

	scan, err := LoadScan(path, "scan")
	if err != nil {
		t.Fatalf("LoadScan failed: %v", err)
	}
	if scan.BitDepth != 8 {
		t.Errorf("Expected 8-bit luminance, got %d", scan.BitDepth)
	}
	if scan.Gray[0] != 0 || scan.Gray[3] != 255 {
		t.Errorf("Unexpected luminance values %v", scan.Gray)
	}
}

func TestFindScanMissing(t *testing.T) {
	_, err := FindScan(t.TempDir(), "absent")
	if !errors.Is(err, models.ErrInputNotFound) {
		t.Errorf("Expected ErrInputNotFound, got %v", err)
	}
}

func TestLoadScanCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadScan(path, "broken")
	if !errors.Is(err, models.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure, got %v", err)
	}
}

func TestReadSlicingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slicing_param.csv")
	content := "name,px_left,px_right\nNEEM_1,100,12300\nNEEM_2,0,8000.5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadSlicingTable(path)
	if err != nil {
		t.Fatalf("ReadSlicingTable failed: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(table))
	}
	if e := table["NEEM_1"]; e.PxLeft != 100 || e.PxRight != 12300 {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e := table["NEEM_2"]; e.PxRight != 8000.5 {
		t.Errorf("Unexpected entry %+v", e)
	}
}

func TestReadBagList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bag-list.txt")
	content := "NEEM_1\n\n# comment\n  NEEM_2  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	bags, err := ReadBagList(path)
	if err != nil {
		t.Fatalf("ReadBagList failed: %v", err)
	}
	if len(bags) != 2 || bags[0] != "NEEM_1" || bags[1] != "NEEM_2" {
		t.Errorf("Unexpected bags %v", bags)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "label,area\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "label,area\n" {
		t.Fatalf("Unexpected content %q (%v)", data, err)
	}

	// A failing writer leaves the previous file and no temp files behind
	err = WriteFileAtomic(path, func(w io.Writer) error {
		return errors.New("boom")
	})
	if !errors.Is(err, models.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the final file, found %d entries", len(entries))
	}
	data, _ = os.ReadFile(path)
	if string(data) != "label,area\n" {
		t.Errorf("Previous content was clobbered: %q", data)
	}
}

// TestWriteFileAtomicReplaces overwrites an existing file and checks the
// committed file replaces it with the usual permissions and no leftovers
func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NEEM_1_0.csv")
	if err := os.WriteFile(path, []byte("old\n"), 0600); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := WriteFileAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "label,area\n1,600\n")
			return err
		})
		if err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "label,area\n1,600\n" {
		t.Fatalf("Unexpected content %q (%v)", data, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0600 != 0600 || perm&0133 != 0 {
		t.Errorf("Unexpected permissions %v", perm)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the final file, found %d entries", len(entries))
	}
}

package labeling

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"grainable/internal/models"
	"grainable/pkg/imageio"
)

// RecordPath returns <dir>/<sample>/<sample>_<slice>.csv
func RecordPath(dir, sampleID string, sliceIndex int) string {
	return filepath.Join(dir, sampleID, sampleID+"_"+strconv.Itoa(sliceIndex)+".csv")
}

// WriteRecords writes records to path atomically, header first and one row
// per record in the given order. An empty slice produces a header-only file.
func WriteRecords(path string, records []models.GrainRecord) error {
	if records == nil {
		records = []models.GrainRecord{}
	}
	return imageio.WriteFileAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(records, w)
	})
}

// ReadRecords loads a record file written by WriteRecords
func ReadRecords(path string) ([]models.GrainRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("records %s: %w", path, models.ErrInputNotFound)
		}
		return nil, models.IOError("open records", err)
	}
	defer file.Close()

	var records []models.GrainRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		// A zero-byte file has no header to decode
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, models.IOError("parse records "+path, err)
	}
	return records, nil
}

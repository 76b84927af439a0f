package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"grainable/internal/models"
)

// ReadSlicingTable loads the name,px_left,px_right table and indexes it by name
func ReadSlicingTable(path string) (models.SlicingTable, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("slicing table %s: %w", path, models.ErrInputNotFound)
		}
		return nil, models.IOError("open slicing table", err)
	}
	defer file.Close()

	var entries []models.SlicingEntry
	if err := gocsv.UnmarshalFile(file, &entries); err != nil {
		return nil, models.IOError("parse slicing table "+path, err)
	}

	table := make(models.SlicingTable, len(entries))
	for _, e := range entries {
		table[strings.TrimSpace(e.Name)] = e
	}
	return table, nil
}

// ReadBagList returns the non-empty, non-comment lines of a bag list file
func ReadBagList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("bag list %s: %w", path, models.ErrInputNotFound)
		}
		return nil, models.IOError("open bag list", err)
	}
	defer file.Close()

	var bags []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bags = append(bags, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, models.IOError("read bag list", err)
	}
	return bags, nil
}

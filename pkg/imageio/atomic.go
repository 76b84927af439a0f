package imageio

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"grainable/internal/models"
)

// WriteFileAtomic creates the parent directory of path, streams write into a
// pending file next to it and replaces path once the data is synced to disk.
// A reader, or a restart after a crash, sees the old file or the complete new
// one, never a partial write.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.IOError("create directory "+dir, err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithPermissions(0644))
	if err != nil {
		return models.IOError("create pending file for "+path, err)
	}
	// No-op once the file has been committed
	defer pending.Cleanup()

	bw := bufio.NewWriter(pending)
	if err := write(bw); err != nil {
		return models.IOError("write "+path, err)
	}
	if err := bw.Flush(); err != nil {
		return models.IOError("flush "+path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return models.IOError("commit "+path, err)
	}
	return nil
}

package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Compresses an existing file into dir before it is overwritten.
//
// The backup is named <base>.<timestamp>.gz. Returns the backup path, or an
// empty path without error when the source file does not exist (nothing to
// back up on a first save).
func Backup(path, dir string) (string, error) {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.gz", filepath.Base(path), stamp))

	err = writeFileAtomic(dst, func(w io.Writer) error {
		gz := gzip.NewWriter(w)
		if _, err := io.Copy(gz, src); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	})
	if err != nil {
		return "", err
	}
	return dst, nil
}

// Restores a backup produced by [Backup] to the given path.
func RestoreBackup(backupPath, path string) error {
	src, err := os.Open(backupPath)
	if err != nil {
		return err
	}
	defer src.Close()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return err
	}
	defer gz.Close()

	return writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, gz)
		return err
	})
}

package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxSuffix bounds the collision search in CreateUnique.
const maxSuffix = 10000

// CreateUnique creates dir/stem+ext exclusively. When the name is taken it
// tries stem-2, stem-3 and so on. The caller owns the returned file.
func CreateUnique(dir, stem, ext string) (*os.File, string, error) {
	for n := 1; n <= maxSuffix; n++ {
		name := stem + ext
		if n > 1 {
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s%s in %s", stem, ext, dir)
}

// WriteUnique creates a unique file via CreateUnique and streams write into
// it. A partially written file is removed on failure.
func WriteUnique(dir, stem, ext string, write func(io.Writer) error) (string, error) {
	f, path, err := CreateUnique(dir, stem, ext)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

package exams

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds the size limit")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".pdf":  {},
}

// Uploader stores exam scans on local disk under a generated name, never the
// client-supplied one.
type Uploader struct {
	Dir      string
	MaxBytes int64
}

// Save writes the uploaded file and returns the stored file name.
func (u *Uploader) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > u.MaxBytes {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrFileTypeNotAllowed
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(file, u.MaxBytes+1)); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

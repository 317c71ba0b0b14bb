// Package archive packs training images into the zip layout the trainer expects.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Image struct {
	// Name is only used to pick the extension.
	Name string
	Data []byte
}

// EntryName is image_<n>.<ext>, numbered from 1.
func EntryName(index int, original string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("image_%d.%s", index+1, ext)
}

// ArchiveName is training_images_<unix ms>.zip.
func ArchiveName(now time.Time) string {
	return fmt.Sprintf("training_images_%d.zip", now.UnixMilli())
}

// ZipImages writes images into a single zip archive in order.
func ZipImages(images []Image) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to archive")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, img := range images {
		w, err := zw.Create(EntryName(i, img.Name))
		if err != nil {
			return nil, fmt.Errorf("create entry %d: %w", i+1, err)
		}
		if _, err := w.Write(img.Data); err != nil {
			return nil, fmt.Errorf("write entry %d: %w", i+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

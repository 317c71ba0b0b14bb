package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryName(t *testing.T) {
	tests := []struct {
		index    int
		original string
		want     string
	}{
		{0, "cat.PNG", "image_1.png"},
		{1, "dog.jpeg", "image_2.jpeg"},
		{2, "noext", "image_3.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntryName(tt.index, tt.original))
	}
}

func TestArchiveName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "training_images_1700000000123.zip", ArchiveName(now))
}

func TestZipImages(t *testing.T) {
	raw, err := ZipImages([]Image{
		{Name: "a.png", Data: []byte("first")},
		{Name: "b.webp", Data: []byte("second")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	names := []string{zr.File[0].Name, zr.File[1].Name}
	assert.Equal(t, []string{"image_1.png", "image_2.webp"}, names)

	f, err := zr.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	body, _ := io.ReadAll(f)
	assert.Equal(t, "second", string(body))
}

func TestZipImages_Empty(t *testing.T) {
	_, err := ZipImages(nil)
	assert.Error(t, err)
}

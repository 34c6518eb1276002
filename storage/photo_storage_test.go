package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLocalPhotoStorage_SavePhoto(t *testing.T) {
	dir := t.TempDir()
	s := &LocalPhotoStorage{Directory: dir, URLPrefix: "/uploads"}

	stored, err := s.SavePhoto("../castle.png", testPNG(t, 800, 400))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/castle.png", stored.ImageURL)
	assert.Equal(t, "/uploads/castle_thumb.jpg", stored.ThumbnailURL)

	_, err = os.Stat(filepath.Join(dir, "castle.png"))
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(dir, "castle_thumb.jpg"))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailSize, thumb.Bounds().Dx())
	assert.Equal(t, ThumbnailSize/2, thumb.Bounds().Dy())
}

func TestLocalPhotoStorage_RejectsNonImages(t *testing.T) {
	s := &LocalPhotoStorage{Directory: t.TempDir()}
	_, err := s.SavePhoto("notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestReadExif_NoMetadata(t *testing.T) {
	_, err := ReadExif(testPNG(t, 4, 4))
	assert.Error(t, err)
}

func TestLocalPhotoStorage_DeletePhoto(t *testing.T) {
	dir := t.TempDir()
	s := &LocalPhotoStorage{Directory: dir, URLPrefix: "/uploads"}
	_, err := s.SavePhoto("castle.png", testPNG(t, 40, 20))
	require.NoError(t, err)

	require.NoError(t, s.DeletePhoto("castle.png"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, s.DeletePhoto("castle.png"), "missing files are ignored")
}

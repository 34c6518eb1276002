package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
)

// ThumbnailSize bounds the longest side of generated thumbnails.
const ThumbnailSize = 320

var ErrUnsupportedImage = errors.New("unsupported image")

type PhotoStorage interface {
	SavePhoto(name string, content []byte) (StoredPhoto, error)
	DeletePhoto(name string) error
}

// StoredPhoto holds the public URLs of a saved image and its thumbnail.
type StoredPhoto struct {
	ImageURL     string
	ThumbnailURL string
}

// LocalPhotoStorage writes images under Directory and serves them under
// URLPrefix.
type LocalPhotoStorage struct {
	Directory string
	URLPrefix string
}

func (s *LocalPhotoStorage) SavePhoto(name string, content []byte) (StoredPhoto, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return StoredPhoto{}, fmt.Errorf("invalid file name %q", name)
	}
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return StoredPhoto{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return StoredPhoto{}, err
	}

	filePath := filepath.Join(s.Directory, name)
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return StoredPhoto{}, err
	}

	thumbName := thumbnailName(name)
	if err := writeThumbnail(img, filepath.Join(s.Directory, thumbName)); err != nil {
		_ = os.Remove(filePath)
		return StoredPhoto{}, err
	}

	return StoredPhoto{
		ImageURL:     path.Join(s.URLPrefix, name),
		ThumbnailURL: path.Join(s.URLPrefix, thumbName),
	}, nil
}

// DeletePhoto removes an image saved under name and its thumbnail. Files
// that are already gone are not an error.
func (s *LocalPhotoStorage) DeletePhoto(name string) error {
	name = filepath.Base(name)
	var errs error
	for _, n := range []string{name, thumbnailName(name)} {
		if err := os.Remove(filepath.Join(s.Directory, n)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func writeThumbnail(img image.Image, filePath string) error {
	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	return imaging.Save(thumb, filePath, imaging.JPEGQuality(80))
}

func thumbnailName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + "_thumb.jpg"
}

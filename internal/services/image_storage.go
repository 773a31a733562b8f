package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxCardImageBytes is the largest accepted card image upload
	MaxCardImageBytes = 5 << 20
	// CardImagesURLPrefix is where stored card images are served from
	CardImagesURLPrefix = "/card-images/"
)

var (
	ErrEmptyImage       = errors.New("empty image data")
	ErrImageTooLarge    = fmt.Errorf("image exceeds %d bytes", MaxCardImageBytes)
	ErrUnsupportedImage = errors.New("unsupported image type: expected jpeg, png, gif or webp")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorageService stores uploaded card images on local disk
type ImageStorageService struct {
	storageDir string
	log        *zap.Logger
}

// NewImageStorageService creates the storage directory if needed
func NewImageStorageService(storageDir string, log *zap.Logger) *ImageStorageService {
	if storageDir == "" {
		storageDir = "./data/card_images"
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		// writes will fail later with a clearer error
		log.Warn("could not create card images directory", zap.String("dir", storageDir), zap.Error(err))
	}
	return &ImageStorageService{storageDir: storageDir, log: log}
}

// SaveImage sniffs the image type, writes it under a fresh name and returns that name
func (s *ImageStorageService) SaveImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxCardImageBytes {
		return "", ErrImageTooLarge
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedImage
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.storageDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filename, nil
}

// URL returns the public path of a stored image
func (s *ImageStorageService) URL(filename string) string {
	return CardImagesURLPrefix + filename
}

// FilenameFromURL returns the stored filename behind a URL produced by URL, or ""
// when the URL points somewhere else
func (s *ImageStorageService) FilenameFromURL(url string) string {
	name, ok := strings.CutPrefix(url, CardImagesURLPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

func (s *ImageStorageService) GetImagePath(filename string) string {
	return filepath.Join(s.storageDir, filename)
}

// DeleteImage removes an image file. Missing files are not an error.
func (s *ImageStorageService) DeleteImage(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.storageDir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *ImageStorageService) StorageDir() string {
	return s.storageDir
}

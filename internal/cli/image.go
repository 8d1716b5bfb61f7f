package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

// loadImage reads a photo from disk, refusing files over maxBytes or of an unsupported type.
func loadImage(path string, maxBytes int64) (*entity.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes, the limit is %d", path, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mimeType := detectImageType(path, data)
	if !entity.IsSupportedImageType(mimeType) {
		return nil, fmt.Errorf("%s: unsupported image type %q", path, mimeType)
	}

	return &entity.Image{
		Data:     data,
		MIMEType: mimeType,
		Name:     filepath.Base(path),
	}, nil
}

// detectImageType trusts the bytes first and the file extension second.
// HEIC and HEIF are mapped explicitly since the platform tables disagree on them.
func detectImageType(path string, data []byte) string {
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}

	byExt := mime.TypeByExtension(ext)
	if byExt == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(byExt)
	if err != nil {
		return byExt
	}
	return mediaType
}

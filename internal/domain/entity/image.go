package entity

import "strings"

// Image is a user-selected photo held by a session.
type Image struct {
	Data     []byte // raw encoded bytes as received
	MIMEType string // e.g. image/jpeg
	Name     string // display name, file name if known
	SourceID string // transport-side handle (Telegram file ID), may be empty
}

// Size returns the payload length in bytes.
func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// IsSupportedImageType reports whether the analysis service accepts the encoding.
func IsSupportedImageType(mimeType string) bool {
	return supportedImageTypes[strings.ToLower(mimeType)]
}

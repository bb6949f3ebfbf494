package domain

import (
	"path/filepath"
	"strings"
)

type DocumentOrigin string

const (
	OriginUpload DocumentOrigin = "upload"
	OriginURL    DocumentOrigin = "url"
	OriginText   DocumentOrigin = "text"
)

// MaxUploadBytes bounds a single uploaded or downloaded document.
const MaxUploadBytes = 10 << 20

var uploadExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".pdf":  {},
	".webp": {},
}

// SourceDocument is a file as received, before text decoding.
type SourceDocument struct {
	Filename    string
	ContentType string
	Data        []byte
	Origin      DocumentOrigin
}

// AllowedUploadExtension reports whether filename carries one of the accepted
// upload extensions. The check is case-insensitive.
func AllowedUploadExtension(filename string) bool {
	_, ok := uploadExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

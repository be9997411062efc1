package storage

import "io"

// PictureStorage persists uploaded event pictures under opaque keys.
type PictureStorage interface {
	Upload(key string, src io.Reader, contentType string) error
	Delete(key string) error
	PublicURL(key string) string
}

package utils

import "io"

// ResourceSource is an asset file handed to a format loader, either a file
// of the browsed directory or an in-memory upload.
type ResourceSource interface {
	Name() string
	Size() int64
	// Save writes the raw bytes of in under the source name.
	Save(in *io.SectionReader) error
}

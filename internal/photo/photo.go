// Package photo implements the upload-and-forward workflow: photos posted to the
// API are stored with the configured provider and the resulting URLs are handed
// to the companion application.
package photo

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync/atomic"
	"time"
)

// FieldName is the multipart field carrying the photos, repeated per file.
const FieldName = "photos"

var (
	// ErrNoPhotos is returned when a request carries no files.
	ErrNoPhotos = errors.New("no photos uploaded")
	// ErrUnsupportedType is returned for files that are not images.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrCompanion wraps companion failures under the strict policy.
	ErrCompanion = errors.New("failed to process photos in companion")
)

// File is one submitted file. Open may be called more than once.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts multipart file headers to Files, keeping their order.
func FromMultipart(headers []*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// stamper hands out millisecond timestamps that never repeat within a process,
// so two photos with the same name never share a key.
type stamper struct {
	now  func() time.Time
	last atomic.Int64
}

func (s *stamper) next() int64 {
	for {
		prev := s.last.Load()
		ts := s.now().UnixMilli()
		if ts <= prev {
			ts = prev + 1
		}
		if s.last.CompareAndSwap(prev, ts) {
			return ts
		}
	}
}

// Key builds the storage key for an original filename: "<unix-millis>-<base name>".
func Key(ts int64, name string) string {
	return fmt.Sprintf("%d-%s", ts, baseName(name))
}

// baseName drops any client-supplied directory part, whichever separator it uses.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "photo"
	}
	return name
}

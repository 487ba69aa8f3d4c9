package uploadform

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"
)

// File is one selected file.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. The content is read on upload.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Registry is a Previewer that hands out opaque preview handles and tracks
// which are still live, the way a browser tracks object URLs.
type Registry struct {
	mu   sync.Mutex
	seq  int
	live map[string]File
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[string]File)}
}

// Create registers f and returns its handle.
func (r *Registry) Create(f File) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	url := fmt.Sprintf("preview:%d/%s", r.seq, f.Name)
	r.live[url] = f
	return url
}

// Revoke releases a handle. Unknown handles are ignored.
func (r *Registry) Revoke(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, url)
}

// Live reports how many handles have not been revoked.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

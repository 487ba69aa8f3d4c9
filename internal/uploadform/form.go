// Package uploadform holds the client side of the upload workflow: the current
// file selection with one preview per file, and the submit step that posts the
// selection to the photo API.
package uploadform

import (
	"context"
	"sync"

	"github.com/photobridge/service/internal/response"
)

// Messages shown after an upload.
const (
	MessageSuccess = "Photos uploaded successfully"
	MessageFailed  = "Upload failed"
)

// Previewer issues and releases preview handles for selected files.
type Previewer interface {
	Create(f File) string
	Revoke(url string)
}

// Sender submits files to the photo API and returns its envelope.
type Sender interface {
	Send(ctx context.Context, files []File) (response.Envelope, error)
}

type entry struct {
	file    File
	preview string
}

// State is a snapshot of the form.
type State struct {
	Files     []File
	Previews  []string
	Uploading bool
	Message   string
	Uploaded  []response.Photo
}

// Form is the selection and upload state. The zero value is not usable; call New.
type Form struct {
	mu        sync.Mutex
	entries   []entry
	uploading bool
	message   string
	uploaded  []response.Photo

	previews Previewer
	sender   Sender
}

// New creates an empty Form.
func New(previews Previewer, sender Sender) *Form {
	return &Form{previews: previews, sender: sender}
}

// Select replaces the selection with files. An empty selection is ignored.
func (f *Form) Select(files []File) {
	if len(files) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseLocked()
	f.entries = make([]entry, 0, len(files))
	for _, file := range files {
		f.entries = append(f.entries, entry{file: file, preview: f.previews.Create(file)})
	}
}

// Remove drops the file at index i and releases its preview. Out-of-range
// indexes and an empty selection are ignored.
func (f *Form) Remove(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= len(f.entries) {
		return
	}
	f.previews.Revoke(f.entries[i].preview)
	kept := make([]entry, 0, len(f.entries)-1)
	for j, e := range f.entries {
		if j != i {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

// Upload submits the selection. It does nothing when the selection is empty or
// another upload is running. On success the selection is cleared and the
// returned photos are kept; on failure the selection is left intact.
func (f *Form) Upload(ctx context.Context) {
	f.mu.Lock()
	if len(f.entries) == 0 || f.uploading {
		f.mu.Unlock()
		return
	}
	f.uploading = true
	f.message = ""
	f.uploaded = nil
	files := make([]File, len(f.entries))
	for i, e := range f.entries {
		files[i] = e.file
	}
	f.mu.Unlock()

	env, err := f.sender.Send(ctx, files)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploading = false

	switch {
	case err != nil:
		f.message = MessageFailed
	case env.Success && env.Photos != nil:
		f.message = MessageSuccess
		f.uploaded = env.Photos
		f.releaseLocked()
		f.entries = nil
	case env.Error != "":
		f.message = env.Error
	default:
		f.message = MessageFailed
	}
}

// State returns a copy of the current form state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := State{
		Files:     make([]File, len(f.entries)),
		Previews:  make([]string, len(f.entries)),
		Uploading: f.uploading,
		Message:   f.message,
		Uploaded:  append([]response.Photo(nil), f.uploaded...),
	}
	for i, e := range f.entries {
		s.Files[i] = e.file
		s.Previews[i] = e.preview
	}
	return s
}

func (f *Form) releaseLocked() {
	for _, e := range f.entries {
		f.previews.Revoke(e.preview)
	}
}

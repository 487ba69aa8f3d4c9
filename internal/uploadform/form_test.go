package uploadform

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/photobridge/service/internal/response"
)

type countingPreviewer struct {
	mu      sync.Mutex
	created int
	revoked map[string]int
}

func (p *countingPreviewer) Create(f File) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return "blob:" + f.Name
}

func (p *countingPreviewer) Revoke(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revoked == nil {
		p.revoked = map[string]int{}
	}
	p.revoked[url]++
}

type stubSender struct {
	env   response.Envelope
	err   error
	calls atomic.Int32
	got   []File
	gate  chan struct{}
}

func (s *stubSender) Send(_ context.Context, files []File) (response.Envelope, error) {
	s.calls.Add(1)
	s.got = files
	if s.gate != nil {
		<-s.gate
	}
	return s.env, s.err
}

func names(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func threeFiles() []File {
	return []File{
		FileFromBytes("a.jpg", "image/jpeg", []byte("a")),
		FileFromBytes("b.jpg", "image/jpeg", []byte("b")),
		FileFromBytes("c.jpg", "image/jpeg", []byte("c")),
	}
}

func TestSelectCreatesOnePreviewPerFile(t *testing.T) {
	p := &countingPreviewer{}
	f := New(p, &stubSender{})

	f.Select(threeFiles())
	s := f.State()
	if len(s.Files) != 3 || len(s.Previews) != 3 {
		t.Fatalf("files=%d previews=%d, want 3/3", len(s.Files), len(s.Previews))
	}
	if p.created != 3 {
		t.Errorf("created %d previews, want 3", p.created)
	}
}

func TestSelectEmptyIsNoop(t *testing.T) {
	p := &countingPreviewer{}
	f := New(p, &stubSender{})
	f.Select(threeFiles())

	f.Select(nil)
	if got := len(f.State().Files); got != 3 {
		t.Errorf("selection size = %d, want 3", got)
	}
	if len(p.revoked) != 0 {
		t.Errorf("revoked %v, want nothing", p.revoked)
	}
}

func TestSelectReplacesAndReleasesPrevious(t *testing.T) {
	p := &countingPreviewer{}
	f := New(p, &stubSender{})
	f.Select(threeFiles())
	f.Select([]File{FileFromBytes("d.jpg", "image/jpeg", []byte("d"))})

	if got := names(f.State().Files); len(got) != 1 || got[0] != "d.jpg" {
		t.Fatalf("selection = %v, want [d.jpg]", got)
	}
	for _, n := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if p.revoked["blob:"+n] != 1 {
			t.Errorf("preview for %s revoked %d times, want 1", n, p.revoked["blob:"+n])
		}
	}
}

func TestRemoveKeepsOrderAndReleasesOnce(t *testing.T) {
	for i := 0; i < 3; i++ {
		p := &countingPreviewer{}
		f := New(p, &stubSender{})
		files := threeFiles()
		f.Select(files)

		f.Remove(i)
		s := f.State()

		var want []string
		for j, file := range files {
			if j != i {
				want = append(want, file.Name)
			}
		}
		got := names(s.Files)
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("Remove(%d) selection = %v, want %v", i, got, want)
		}
		if len(s.Previews) != len(s.Files) {
			t.Errorf("Remove(%d) previews=%d files=%d", i, len(s.Previews), len(s.Files))
		}
		removed := "blob:" + files[i].Name
		if p.revoked[removed] != 1 || len(p.revoked) != 1 {
			t.Errorf("Remove(%d) revoked %v, want only %s once", i, p.revoked, removed)
		}
	}
}

func TestRemoveOutOfRangeOrEmptyIsNoop(t *testing.T) {
	p := &countingPreviewer{}
	f := New(p, &stubSender{})
	f.Remove(0)

	f.Select(threeFiles())
	f.Remove(-1)
	f.Remove(3)
	if got := len(f.State().Files); got != 3 {
		t.Errorf("selection size = %d, want 3", got)
	}
	if len(p.revoked) != 0 {
		t.Errorf("revoked %v, want nothing", p.revoked)
	}
}

func TestUploadWithoutSelectionIsNoop(t *testing.T) {
	sender := &stubSender{}
	f := New(&countingPreviewer{}, sender)

	f.Upload(context.Background())
	if sender.calls.Load() != 0 {
		t.Error("sender must not be called without a selection")
	}
}

func TestUploadSuccessClearsSelection(t *testing.T) {
	p := &countingPreviewer{}
	photos := []response.Photo{{Filename: "1-a.jpg", URL: "u1"}, {Filename: "2-b.jpg", URL: "u2"}}
	sender := &stubSender{env: response.Envelope{Success: true, Photos: photos}}
	f := New(p, sender)
	f.Select(threeFiles()[:2])

	f.Upload(context.Background())
	s := f.State()

	if got := names(sender.got); len(got) != 2 || got[0] != "a.jpg" || got[1] != "b.jpg" {
		t.Errorf("sent %v", got)
	}
	if s.Message != MessageSuccess {
		t.Errorf("Message = %q", s.Message)
	}
	if len(s.Files) != 0 || len(s.Previews) != 0 {
		t.Errorf("selection not cleared: %v", names(s.Files))
	}
	if len(s.Uploaded) != 2 || s.Uploaded[0] != photos[0] {
		t.Errorf("Uploaded = %+v", s.Uploaded)
	}
	if p.revoked["blob:a.jpg"] != 1 || p.revoked["blob:b.jpg"] != 1 {
		t.Errorf("previews not released: %v", p.revoked)
	}
	if s.Uploading {
		t.Error("Uploading should be reset")
	}
}

func TestUploadFailureKeepsSelection(t *testing.T) {
	tests := []struct {
		name   string
		sender *stubSender
		want   string
	}{
		{"server error", &stubSender{env: response.Envelope{Error: "No photos uploaded"}}, "No photos uploaded"},
		{"server error without text", &stubSender{env: response.Envelope{}}, MessageFailed},
		{"network failure", &stubSender{err: errors.New("dial tcp: connection refused")}, MessageFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&countingPreviewer{}, tt.sender)
			f.Select(threeFiles())

			f.Upload(context.Background())
			s := f.State()
			if s.Message != tt.want {
				t.Errorf("Message = %q, want %q", s.Message, tt.want)
			}
			if len(s.Files) != 3 {
				t.Errorf("selection size = %d, want 3", len(s.Files))
			}
			if s.Uploading {
				t.Error("Uploading should be reset")
			}
			if len(s.Uploaded) != 0 {
				t.Errorf("Uploaded = %+v, want none", s.Uploaded)
			}
		})
	}
}

func TestUploadWhileBusyIsNoop(t *testing.T) {
	sender := &stubSender{
		env:  response.Envelope{Success: true, Photos: []response.Photo{{Filename: "1-a.jpg", URL: "u"}}},
		gate: make(chan struct{}),
	}
	f := New(&countingPreviewer{}, sender)
	f.Select(threeFiles()[:1])

	done := make(chan struct{})
	go func() {
		f.Upload(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !f.State().Uploading {
		if time.Now().After(deadline) {
			t.Fatal("upload never started")
		}
		time.Sleep(time.Millisecond)
	}

	f.Upload(context.Background())
	if n := sender.calls.Load(); n != 1 {
		t.Errorf("sender called %d times while busy, want 1", n)
	}

	close(sender.gate)
	<-done
	if f.State().Uploading {
		t.Error("Uploading should be reset")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Create(FileFromBytes("a.jpg", "", nil))
	b := r.Create(FileFromBytes("a.jpg", "", nil))
	if a == b {
		t.Fatalf("handles should be unique, got %q twice", a)
	}
	if r.Live() != 2 {
		t.Fatalf("Live() = %d, want 2", r.Live())
	}
	r.Revoke(a)
	r.Revoke(a)
	r.Revoke("unknown")
	if r.Live() != 1 {
		t.Errorf("Live() = %d, want 1", r.Live())
	}
}

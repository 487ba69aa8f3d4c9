package photo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/photobridge/service/internal/config"
	"github.com/photobridge/service/internal/response"
	"github.com/photobridge/service/internal/storage"
)

// Notifier delivers the uploaded photo list to the companion application.
type Notifier interface {
	Notify(ctx context.Context, photos []response.Photo) error
}

// Service contains the upload workflow.
type Service struct {
	store    storage.Storage
	notifier Notifier
	strict   bool
	log      *zap.Logger
	stamps   *stamper
}

// NewService creates a photo Service. policy is config.PolicyStrict or
// config.PolicyLenient.
func NewService(store storage.Storage, notifier Notifier, policy string, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		strict:   policy == config.PolicyStrict,
		log:      log,
		stamps:   &stamper{now: time.Now},
	}
}

// Upload validates files, stores all of them concurrently and notifies the
// companion. It returns one Photo per file in input order. A single failed
// upload fails the whole call; objects already stored are left in place.
func (s *Service) Upload(ctx context.Context, files []File) ([]response.Photo, error) {
	if len(files) == 0 {
		return nil, ErrNoPhotos
	}

	types := make([]string, len(files))
	for i, f := range files {
		ct, err := detectType(f)
		if err != nil {
			return nil, err
		}
		types[i] = ct
	}

	keys := make([]string, len(files))
	for i, f := range files {
		keys[i] = Key(s.stamps.next(), f.Name)
	}

	photos := make([]response.Photo, len(files))
	var g errgroup.Group
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := s.put(ctx, keys[i], f, types[i])
			if err != nil {
				return err
			}
			photos[i] = response.Photo{Filename: keys[i], URL: url}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, photos); err != nil {
		if s.strict {
			return nil, fmt.Errorf("%w: %v", ErrCompanion, err)
		}
		s.log.Warn("companion notification failed, photos remain stored",
			zap.Error(err),
			zap.Int("photos", len(photos)),
		)
	}
	return photos, nil
}

func (s *Service) put(ctx context.Context, key string, f File, contentType string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer rc.Close()

	url, err := s.store.Put(ctx, key, rc, f.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", f.Name, err)
	}
	s.log.Debug("photo stored", zap.String("key", key), zap.Int64("size", f.Size))
	return url, nil
}

// detectType sniffs the file's leading bytes. Formats the sniffer does not know
// (HEIC, for one) are accepted when the client declared an image type.
func detectType(f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer rc.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read %q: %w", f.Name, err)
	}

	sniffed := http.DetectContentType(head[:n])
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	if sniffed == "application/octet-stream" && strings.HasPrefix(f.ContentType, "image/") {
		return f.ContentType, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, baseName(f.Name))
}

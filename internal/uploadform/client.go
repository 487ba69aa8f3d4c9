package uploadform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/photobridge/service/internal/response"
)

// fieldName matches the server's multipart field.
const fieldName = "photos"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client posts selections to the photo API as one multipart request.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client for endpoint, e.g. "http://localhost:8080/photos".
func NewClient(endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: hc}
}

// Send streams files to the API and decodes the response envelope whatever the
// status code. Transport and decoding failures are returned as errors.
func (c *Client) Send(ctx context.Context, files []File) (response.Envelope, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return response.Envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		pr.Close()
		return response.Envelope{}, fmt.Errorf("send photos: %w", err)
	}
	defer resp.Body.Close()

	var env response.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return response.Envelope{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return env, nil
}

func writeParts(mw *multipart.Writer, files []File) error {
	for _, f := range files {
		if err := writePart(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, quoteEscaper.Replace(f.Name)))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	return nil
}

package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cutout/internal/queue"
)

const (
	defaultMaxSourceBytes = 64 << 20
	userAgent             = "cutout/0.1"
)

// ErrSourceTooLarge is returned when a source exceeds the configured limit.
var ErrSourceTooLarge = errors.New("source exceeds size limit")

// Loader resolves a queue.Source into raw encoded bytes.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// NewLoader returns a loader that fetches remote sources with client and
// refuses anything larger than maxBytes.
func NewLoader(client *http.Client, maxBytes int64) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxSourceBytes
	}
	return &Loader{client: client, maxBytes: maxBytes}
}

// Load returns the encoded image bytes for src. In-memory data is returned as
// is and never modified.
func (l *Loader) Load(ctx context.Context, src queue.Source) ([]byte, error) {
	if len(src.Data) > 0 {
		if int64(len(src.Data)) > l.maxBytes {
			return nil, ErrSourceTooLarge
		}
		return src.Data, nil
	}
	raw := strings.TrimSpace(src.URL)
	if raw == "" {
		return nil, errors.New("empty source")
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return l.decodeDataURI(raw)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return l.fetch(ctx, raw)
	case strings.HasPrefix(lower, "file://"):
		return l.readFile(raw)
	default:
		return nil, fmt.Errorf("unsupported source %q", raw)
	}
}

// decodeDataURI handles RFC 2397 URIs with either base64 or percent-encoded payloads.
func (l *Loader) decodeDataURI(raw string) ([]byte, error) {
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return nil, errors.New("malformed data uri: missing comma")
	}
	meta := raw[len("data:"):comma]
	payload := raw[comma+1:]
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload = strings.TrimSpace(payload)
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("malformed data uri: %w", err)
		}
	} else {
		unescaped, uerr := url.PathUnescape(payload)
		if uerr != nil {
			return nil, fmt.Errorf("malformed data uri: %w", uerr)
		}
		data = []byte(unescaped)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrSourceTooLarge
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch source: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > l.maxBytes {
		return nil, ErrSourceTooLarge
	}
	return l.readLimited(resp.Body)
}

func (l *Loader) readFile(raw string) ([]byte, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse file url: %w", err)
	}
	path := parsed.Path
	if path == "" {
		return nil, errors.New("file url has no path")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()
	return l.readLimited(file)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if n > l.maxBytes {
		return nil, ErrSourceTooLarge
	}
	return buf.Bytes(), nil
}

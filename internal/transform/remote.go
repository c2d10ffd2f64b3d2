package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/services"
	"cutout/internal/textutil"
)

const (
	maxMaskResponseBytes = 128 << 20
	maxErrorBodyRunes    = 200
)

// RemoteOptions configures the inference-endpoint engine.
type RemoteOptions struct {
	Endpoint  string
	Client    *http.Client
	Loader    *Loader
	Logger    *slog.Logger
	MaxPixels int64
}

// Remote posts source bytes to a model server and reads back a mask. The
// response may be a grayscale mask or an image whose alpha channel is the
// mask, at any resolution.
type Remote struct {
	endpoint  string
	client    *http.Client
	loader    *Loader
	logger    *slog.Logger
	maxPixels int64
}

// NewRemote validates the endpoint and returns a Remote engine.
func NewRemote(opts RemoteOptions) (*Remote, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, services.Wrap(services.ErrConfiguration, "transform", "new remote",
			fmt.Sprintf("invalid endpoint %q", endpoint), err)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	loader := opts.Loader
	if loader == nil {
		loader = NewLoader(nil, 0)
	}
	return &Remote{
		endpoint:  endpoint,
		client:    client,
		loader:    loader,
		logger:    logging.NewComponentLogger(opts.Logger, "transform.remote"),
		maxPixels: opts.MaxPixels,
	}, nil
}

// Transform implements Transformer.
func (r *Remote) Transform(ctx context.Context, src queue.Source) (Output, error) {
	data, err := r.loader.Load(ctx, src)
	if err != nil {
		return Output{}, newError("load", "could not read source image", err)
	}
	img, _, err := Decode(data, r.maxPixels)
	if err != nil {
		return Output{}, newError("decode", decodeMessage(err), err)
	}
	maskBytes, err := r.infer(ctx, data)
	if err != nil {
		return Output{}, newError("infer", "inference request failed", err)
	}
	maskImg, _, err := Decode(maskBytes, r.maxPixels)
	if err != nil {
		return Output{}, newError("infer", "inference returned an unreadable mask", err)
	}
	r.logger.Debug("mask received",
		logging.Int("mask_width", maskImg.Bounds().Dx()),
		logging.Int("mask_height", maskImg.Bounds().Dy()),
	)
	return compose(img, GrayMask(maskImg)), nil
}

func (r *Remote) infer(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(data))
	req.Header.Set("Accept", "image/png")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMaskResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := textutil.Truncate(strings.TrimSpace(string(body)), maxErrorBodyRunes)
		if msg == "" {
			return nil, fmt.Errorf("endpoint returned %s", resp.Status)
		}
		return nil, fmt.Errorf("endpoint returned %s: %s", resp.Status, msg)
	}
	if len(body) > maxMaskResponseBytes {
		return nil, errors.New("mask response exceeds size limit")
	}
	return body, nil
}

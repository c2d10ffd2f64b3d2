package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cutout/internal/api"
	"cutout/internal/config"
	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/services"
	"cutout/internal/workflow"
)

// uploadOverhead is the multipart framing allowance on top of max_source_bytes.
const uploadOverhead = 1 << 20

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	maxBytes int64

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		maxBytes: cfg.Transform.MaxSourceBytes,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(strings.TrimSpace(token)))

		r.Get("/status", s.handleStatus)
		r.Get("/queue", s.handleQueueList)
		r.Post("/queue", s.handleQueueSubmit)
		r.Delete("/queue/{id}", s.handleQueueRemove)
		r.Get("/results", s.handleResultList)
		r.Get("/results/{id}/cutout.png", s.handleResultImage(cutoutImage))
		r.Get("/results/{id}/mask.png", s.handleResultImage(maskImage))
		r.Delete("/results/{id}", s.handleResultRemove)
		r.Post("/clear", s.handleClear)
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.api_bind is free"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	_ = listener.Close()
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(start)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Engine:       status.Engine,
		LockFilePath: status.LockFilePath,
		SocketPath:   status.SocketPath,
		LedgerPath:   status.LedgerPath,
		APIAddress:   status.APIAddress,
		Workflow:     api.FromStatusSummary(status.Workflow),
	})
}

func (s *apiServer) handleQueueList(w http.ResponseWriter, r *http.Request) {
	var filter []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if status, ok := queue.ParseStatus(value); ok {
			filter = append(filter, status)
		}
	}
	items := s.daemon.Items()
	if len(filter) > 0 {
		kept := items[:0]
		for _, item := range items {
			for _, status := range filter {
				if item.Status == status {
					kept = append(kept, item)
					break
				}
			}
		}
		items = kept
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: api.FromQueueItems(items)})
}

func (s *apiServer) handleQueueSubmit(w http.ResponseWriter, r *http.Request) {
	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+uploadOverhead)
	}

	descriptors, err := s.readDescriptors(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A malformed entry rejects the whole request before anything is queued.
	for i, desc := range descriptors {
		if err := desc.Validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("entry %d (%s): %v", i, entryName(desc), err))
			return
		}
	}

	resp := api.SubmitResponse{Items: make([]api.QueueItem, 0, len(descriptors))}
	var firstErr error
	for i, desc := range descriptors {
		item, err := s.daemon.Submit(r.Context(), desc)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			resp.Rejected = append(resp.Rejected, api.SubmitRejection{Index: i, Name: desc.Name, Error: err.Error()})
			continue
		}
		resp.Items = append(resp.Items, api.FromQueueItem(item))
	}
	switch {
	case len(resp.Items) == 0:
		s.writeError(w, statusForError(firstErr), firstErr.Error())
	case len(resp.Rejected) > 0:
		s.writeJSON(w, http.StatusMultiStatus, resp)
	default:
		s.writeJSON(w, http.StatusCreated, resp)
	}
}

func entryName(desc queue.Descriptor) string {
	if desc.Name != "" {
		return desc.Name
	}
	return "unnamed"
}

// readDescriptors accepts either a multipart upload with one or more "file"
// parts or a JSON body naming a URL.
func (s *apiServer) readDescriptors(r *http.Request) ([]queue.Descriptor, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		reader, err := r.MultipartReader()
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}
		var out []queue.Descriptor
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read multipart body: %w", err)
			}
			if part.FormName() != "file" {
				_ = part.Close()
				continue
			}
			data, err := io.ReadAll(part)
			_ = part.Close()
			if err != nil {
				return nil, fmt.Errorf("read upload %s: %w", part.FileName(), err)
			}
			if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
				return nil, fmt.Errorf("upload %s exceeds %d bytes", part.FileName(), s.maxBytes)
			}
			out = append(out, queue.Descriptor{Name: part.FileName(), Data: data, SizeBytes: int64(len(data))})
		}
		if len(out) == 0 {
			return nil, errors.New("multipart body has no file parts")
		}
		return out, nil
	}

	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return []queue.Descriptor{{URL: strings.TrimSpace(req.URL), Name: strings.TrimSpace(req.Name)}}, nil
}

func (s *apiServer) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	if !s.daemon.Remove(chi.URLParam(r, "id")) {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleResultList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ResultListResponse{Results: api.FromResults(s.daemon.Results())})
}

func (s *apiServer) handleResultImage(pick func(queue.Result) image.Image) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.daemon.Result(chi.URLParam(r, "id"))
		if !ok {
			s.writeError(w, http.StatusNotFound, "result not found")
			return
		}
		img := pick(result)
		if img == nil {
			s.writeError(w, http.StatusNotFound, "image not available")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, img); err != nil {
			s.logger.Debug("png encode aborted", logging.String(logging.FieldItemID, result.ID), logging.Error(err))
		}
	}
}

func cutoutImage(res queue.Result) image.Image {
	if res.Cutout == nil {
		return nil
	}
	return res.Cutout
}

func maskImage(res queue.Result) image.Image {
	if res.Mask == nil {
		return nil
	}
	return res.Mask
}

func (s *apiServer) handleResultRemove(w http.ResponseWriter, r *http.Request) {
	if !s.daemon.RemoveResult(chi.URLParam(r, "id")) {
		s.writeError(w, http.StatusNotFound, "result not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleClear(w http.ResponseWriter, _ *http.Request) {
	cleared, err := s.daemon.Clear()
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Cleared: api.FromSnapshot(cleared)})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrQueueBusy):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, workflow.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

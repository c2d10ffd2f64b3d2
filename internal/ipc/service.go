package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"cutout/internal/api"
	"cutout/internal/daemon"
	"cutout/internal/logging"
	"cutout/internal/queue"
)

// service holds the exported RPC methods. Each takes a request value and
// fills the response pointer, as net/rpc requires.
type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	if len(req.Entries) == 0 {
		return errors.New("submit requires at least one entry")
	}
	resp.Items = make([]QueueItem, 0, len(req.Entries))
	for i, entry := range req.Entries {
		desc := queue.Descriptor{
			Name:      strings.TrimSpace(entry.Name),
			URL:       strings.TrimSpace(entry.URL),
			Data:      entry.Data,
			SizeBytes: int64(len(entry.Data)),
		}
		item, err := s.daemon.Submit(s.ctx, desc)
		if err != nil {
			resp.Rejected = append(resp.Rejected, SubmitRejection{Index: i, Name: desc.Name, Error: err.Error()})
			continue
		}
		resp.Items = append(resp.Items, api.FromQueueItem(item))
	}
	s.logger.Debug("ipc submit",
		logging.Int("accepted", len(resp.Items)),
		logging.Int("rejected", len(resp.Rejected)))
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	resp.RemoveResults = api.RemoveByID(s.daemon.Remove, req.IDs)
	return nil
}

func (s *service) RemoveResult(req RemoveRequest, resp *RemoveResponse) error {
	resp.RemoveResults = api.RemoveByID(s.daemon.RemoveResult, req.IDs)
	return nil
}

func (s *service) Clear(_ ClearRequest, resp *ClearResponse) error {
	cleared, err := s.daemon.Clear()
	if err != nil {
		return err
	}
	resp.Cleared = api.FromSnapshot(cleared)
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int("items", cleared.Total),
		logging.Int("results", cleared.Completed))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	st := s.daemon.Status()
	resp.DaemonStatus = api.DaemonStatus{
		Running:      st.Running,
		PID:          st.PID,
		Engine:       st.Engine,
		LockFilePath: st.LockFilePath,
		SocketPath:   st.SocketPath,
		LedgerPath:   st.LedgerPath,
		APIAddress:   st.APIAddress,
		Workflow:     api.FromStatusSummary(st.Workflow),
	}
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	want := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status, ok := queue.ParseStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		want = append(want, status)
	}
	resp.Items = []QueueItem{}
	for _, item := range s.daemon.Items() {
		if len(want) == 0 || slices.Contains(want, item.Status) {
			resp.Items = append(resp.Items, api.FromQueueItem(item))
		}
	}
	return nil
}

func (s *service) ResultList(_ ResultListRequest, resp *ResultListResponse) error {
	resp.Results = api.FromResults(s.daemon.Results())
	return nil
}

// Export reports per-item failures in resp.Errors and only fails the call
// when nothing was written.
func (s *service) Export(req ExportRequest, resp *ExportResponse) error {
	records, err := s.daemon.Export(s.ctx, req.IDs, req.All)
	resp.Records = api.FromExportRecords(records)
	if err == nil {
		return nil
	}
	for line := range strings.SplitSeq(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			resp.Errors = append(resp.Errors, line)
		}
	}
	if len(resp.Records) == 0 {
		return err
	}
	return nil
}

func (s *service) ExportHistory(req ExportHistoryRequest, resp *ExportHistoryResponse) error {
	records, err := s.daemon.ExportHistory(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Records = api.FromExportRecords(records)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	var err error
	resp.Sent, resp.Message, err = s.daemon.TestNotification(s.ctx)
	return err
}

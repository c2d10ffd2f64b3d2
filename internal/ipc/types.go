package ipc

import "cutout/internal/api"

// QueueItem mirrors the HTTP API queue DTO for internal IPC callers.
type QueueItem = api.QueueItem

// ResultItem mirrors the HTTP API result DTO.
type ResultItem = api.ResultItem

// ExportRecord mirrors the HTTP API export DTO.
type ExportRecord = api.ExportRecord

// SubmitEntry describes one image. Exactly one of URL or Data must be set.
type SubmitEntry struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// SubmitRequest enqueues images in order.
type SubmitRequest struct {
	Entries []SubmitEntry `json:"entries"`
}

// SubmitRejection reports an entry that was not enqueued.
type SubmitRejection = api.SubmitRejection

// SubmitResponse lists the accepted and rejected entries.
type SubmitResponse = api.SubmitResponse

// RemoveRequest names queue item or result ids.
type RemoveRequest struct {
	IDs []string `json:"ids"`
}

// RemoveResponse reports per-id outcomes.
type RemoveResponse struct {
	api.RemoveResults
}

// ClearRequest empties queue and results.
type ClearRequest struct{}

// ClearResponse reports the counts that were cleared.
type ClearResponse struct {
	Cleared api.QueueCounts `json:"cleared"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	api.DaemonStatus
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// ResultListRequest lists completed results.
type ResultListRequest struct{}

// ResultListResponse contains completed results in completion order.
type ResultListResponse struct {
	Results []ResultItem `json:"results"`
}

// ExportRequest writes the given results, or all of them.
type ExportRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// ExportResponse lists the files written and any per-result errors.
type ExportResponse struct {
	Records []ExportRecord `json:"records"`
	Errors  []string       `json:"errors,omitempty"`
}

// ExportHistoryRequest lists ledger entries. Limit of zero returns all.
type ExportHistoryRequest struct {
	Limit int `json:"limit"`
}

// ExportHistoryResponse contains ledger entries, most recent first.
type ExportHistoryResponse struct {
	Records []ExportRecord `json:"records"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

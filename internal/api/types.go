package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SourceKind   string `json:"sourceKind"`
	SourceURL    string `json:"sourceUrl,omitempty"`
	SizeBytes    int64  `json:"sizeBytes"`
	Status       string `json:"status"`
	StatusLabel  string `json:"statusLabel"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	SubmittedAt  string `json:"submittedAt,omitempty"`
}

// ResultItem describes a completed cutout.
type ResultItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
	CutoutURL   string `json:"cutoutUrl"`
	MaskURL     string `json:"maskUrl"`
}

// QueueCounts mirrors the derived queue snapshot.
type QueueCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running   bool        `json:"running"`
	Counts    QueueCounts `json:"counts"`
	LastError string      `json:"lastError,omitempty"`
	LastItem  *QueueItem  `json:"lastItem,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Engine       string         `json:"engine"`
	LockFilePath string         `json:"lockFilePath"`
	SocketPath   string         `json:"socketPath"`
	LedgerPath   string         `json:"ledgerPath,omitempty"`
	APIAddress   string         `json:"apiAddress,omitempty"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// ExportRecord describes one exported file.
type ExportRecord struct {
	ID         int64  `json:"id"`
	ItemID     string `json:"itemId"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ExportedAt string `json:"exportedAt,omitempty"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// ResultListResponse wraps completed results.
type ResultListResponse struct {
	Results []ResultItem `json:"results"`
}

// SubmitRequest is the JSON body accepted by POST /api/queue.
type SubmitRequest struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// SubmitRejection reports a submission that was not enqueued. Index is the
// entry's position in the request.
type SubmitRejection struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// SubmitResponse lists the accepted items and any rejected entries.
type SubmitResponse struct {
	Items    []QueueItem       `json:"items"`
	Rejected []SubmitRejection `json:"rejected,omitempty"`
}

// ClearResponse reports how much a clear removed.
type ClearResponse struct {
	Cleared QueueCounts `json:"cleared"`
}

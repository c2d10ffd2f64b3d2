package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const (
	// serviceName prefixes every RPC method, e.g. "Cutout.Status".
	serviceName = "Cutout"
	dialTimeout = 2 * time.Second
)

// Client is a JSON-RPC connection to a running daemon. It is not safe to
// share across goroutines that also call Close.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon socket at path. Errors from the dial are
// returned unwrapped so callers can test for ENOENT and ECONNREFUSED.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: jsonrpc.NewClient(conn)}, nil
}

// Close hangs up the connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.rpc.Call(serviceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit queues each entry; rejected entries are listed in the response.
func (c *Client) Submit(entries []SubmitEntry) (*SubmitResponse, error) {
	return call[SubmitResponse](c, "Submit", SubmitRequest{Entries: entries})
}

// Remove deletes queue items by id.
func (c *Client) Remove(ids []string) (*RemoveResponse, error) {
	return call[RemoveResponse](c, "Remove", RemoveRequest{IDs: ids})
}

// RemoveResult deletes completed results by id.
func (c *Client) RemoveResult(ids []string) (*RemoveResponse, error) {
	return call[RemoveResponse](c, "RemoveResult", RemoveRequest{IDs: ids})
}

// Clear empties the queue and results. Fails while the queue is processing.
func (c *Client) Clear() (*ClearResponse, error) {
	return call[ClearResponse](c, "Clear", ClearRequest{})
}

// Status reports daemon state and queue counts.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// QueueList lists queue items. An empty statuses slice lists everything.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	return call[QueueListResponse](c, "QueueList", QueueListRequest{Statuses: statuses})
}

// ResultList returns completed results.
func (c *Client) ResultList() (*ResultListResponse, error) {
	return call[ResultListResponse](c, "ResultList", ResultListRequest{})
}

// Export writes results to the output directory.
func (c *Client) Export(ids []string, all bool) (*ExportResponse, error) {
	return call[ExportResponse](c, "Export", ExportRequest{IDs: ids, All: all})
}

// ExportHistory lists the export ledger.
func (c *Client) ExportHistory(limit int) (*ExportHistoryResponse, error) {
	return call[ExportHistoryResponse](c, "ExportHistory", ExportHistoryRequest{Limit: limit})
}

// TestNotification asks the daemon to push a test ntfy message.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

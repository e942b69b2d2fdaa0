package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/ops"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/pin"
)

// Client talks to a running daemon's control API.
type Client struct {
	addr       string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the daemon at addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		addr:       addr,
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Addr returns the daemon address.
func (c *Client) Addr() string { return c.addr }

// Health reports daemon status. A DAEMON_UNAVAILABLE error means it is not running.
func (c *Client) Health(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the ranked recall surface.
func (c *Client) List(ctx context.Context, input ops.ListInput) (*ops.ListOutput, error) {
	q := url.Values{}
	setInt(q, "limit", input.Limit)
	var out ops.ListOutput
	if err := c.do(ctx, http.MethodGet, "/recall", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recall pastes the entry at slot (1..10, 0 for 10).
func (c *Client) Recall(ctx context.Context, slot int) (*paste.Result, error) {
	var out paste.Result
	if err := c.do(ctx, http.MethodPost, "/recall/"+strconv.Itoa(slot), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pin toggles the pin on input.Text, or on the clipboard content when nil.
func (c *Client) Pin(ctx context.Context, input ops.PinInput) (*pin.Result, error) {
	var out pin.Result
	if err := c.do(ctx, http.MethodPost, "/pin", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the stored-order inventory.
func (c *Client) History(ctx context.Context, input ops.InventoryInput) (*ops.InventoryOutput, error) {
	q := url.Values{}
	setInt(q, "limit", input.Limit)
	setInt(q, "offset", input.Offset)
	if input.Pinned != nil {
		q.Set("pinned", strconv.FormatBool(*input.Pinned))
	}
	var out ops.InventoryOutput
	if err := c.do(ctx, http.MethodGet, "/history", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search finds entries containing input.Query.
func (c *Client) Search(ctx context.Context, input ops.SearchInput) (*ops.SearchOutput, error) {
	q := url.Values{}
	q.Set("q", input.Query)
	setInt(q, "limit", input.Limit)
	setInt(q, "offset", input.Offset)
	var out ops.SearchOutput
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Save asks the daemon to flush the history.
func (c *Client) Save(ctx context.Context) (*SaveResult, error) {
	var out SaveResult
	if err := c.do(ctx, http.MethodPost, "/save", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export asks the daemon to write an export file. Paths resolve on the daemon side.
func (c *Client) Export(ctx context.Context, input ops.ExportInput) (*ops.ExportOutput, error) {
	var out ops.ExportOutput
	if err := c.do(ctx, http.MethodPost, "/export", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import asks the daemon to merge an import file into its history.
func (c *Client) Import(ctx context.Context, input ops.ImportInput) (*ops.ImportOutput, error) {
	var out ops.ImportOutput
	if err := c.do(ctx, http.MethodPost, "/import", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal(fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return errors.NewInternal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled(method + " " + path)
		}
		return errors.NewDaemonUnavailable(c.addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewInternal(fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// decodeError rebuilds a ClipzError from the error envelope.
func decodeError(resp *http.Response) error {
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return errors.NewInternal(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data)))
	}
	return &errors.ClipzError{
		Code:    body.Error.Code,
		Status:  resp.StatusCode,
		Message: body.Error.Message,
	}
}

func setInt(q url.Values, name string, v int) {
	if v != 0 {
		q.Set(name, strconv.Itoa(v))
	}
}

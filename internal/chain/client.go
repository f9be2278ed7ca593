package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pders01/subex/internal/debuglog"
)

const (
	methodGetMetadata = "state_getMetadata"
	defaultUserAgent  = "subex/1.0 (github.com/pders01/subex)"
)

// ErrUnsupportedScheme is returned for endpoints that are neither WebSocket
// nor HTTP.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// Options tune the RPC client. Zero values are usable.
type Options struct {
	// DialTimeout bounds a whole round trip. Zero means no bound.
	DialTimeout time.Duration
	UserAgent   string
	HTTPClient  *http.Client
	Dialer      *websocket.Dialer
}

// Client fetches runtime metadata from a node over JSON-RPC.
type Client struct {
	httpClient  *http.Client
	dialer      *websocket.Dialer
	dialTimeout time.Duration
	userAgent   string
	nextID      atomic.Uint64
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:  opts.HTTPClient,
		dialer:      opts.Dialer,
		dialTimeout: opts.DialTimeout,
		userAgent:   opts.UserAgent,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.dialer == nil {
		c.dialer = websocket.DefaultDialer
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	return c
}

// FetchMetadata calls state_getMetadata on endpoint and decodes the result.
func (c *Client) FetchMetadata(ctx context.Context, endpoint string) (*Tree, error) {
	raw, err := c.Call(ctx, endpoint, methodGetMetadata)
	if err != nil {
		return nil, err
	}

	var hexData string
	if err := json.Unmarshal(raw, &hexData); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata result: %w", err)
	}
	return DecodeMetadata(hexData)
}

// Call performs one JSON-RPC request and returns the raw result.
func (c *Client) Call(ctx context.Context, endpoint, method string, params ...any) (json.RawMessage, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	if c.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
	}

	if params == nil {
		params = []any{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	log := debuglog.WithFields(map[string]interface{}{"endpoint": u.Redacted(), "method": method, "id": req.ID})
	log.Debugf("rpc call")

	var body []byte
	switch u.Scheme {
	case "ws", "wss":
		body, err = c.roundTripWS(ctx, endpoint, req)
	case "http", "https":
		body, err = c.roundTripHTTP(ctx, endpoint, req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		log.Warnf("rpc call failed: %v", err)
		return nil, err
	}

	return unmarshalResponse(body, req.ID)
}

func (c *Client) roundTripHTTP(ctx context.Context, endpoint string, req rpcRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func (c *Client) roundTripWS(ctx context.Context, endpoint string, req rpcRequest) ([]byte, error) {
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	defer conn.Close()

	// Unblock the read below when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		return nil, ctxErr(ctx, fmt.Errorf("writing request: %w", err))
	}

	_, body, err := conn.ReadMessage()
	if err != nil {
		return nil, ctxErr(ctx, fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}

// ctxErr prefers the context error when the context ended first.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return err
}

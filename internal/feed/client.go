package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/goXRPLbooks/internal/core/book"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second

	// maxMessageSize caps incoming frames. Deep books come back in a
	// single snapshot response, so the limit is generous.
	maxMessageSize = 4 * 1024 * 1024
)

// Client is a thin wrapper over one websocket connection to an XRPL
// node. It is not safe for concurrent use; each connection is owned by
// a single goroutine.
type Client struct {
	conn   *websocket.Conn
	nextID int
}

// Dial connects to an XRPL websocket endpoint.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &Client{conn: conn}, nil
}

// Close tears the connection down. Safe to call from another goroutine
// to unblock a pending Read.
func (c *Client) Close() error {
	return c.conn.Close()
}

// command is an XRPL websocket API request.
type command struct {
	ID      int                `json:"id"`
	Command string             `json:"command"`
	Books   []bookSubscription `json:"books,omitempty"`
}

// bookSubscription is one entry of a subscribe command's books array.
// Snapshot asks for the current book state in the response; Both covers
// the two directions of the market.
type bookSubscription struct {
	TakerGets Currency `json:"taker_gets"`
	TakerPays Currency `json:"taker_pays"`
	Snapshot  bool     `json:"snapshot"`
	Both      bool     `json:"both"`
}

// Message is one frame received from the node. Responses correlate to a
// request through ID; stream events carry a Type instead.
type Message struct {
	ID           int             `json:"id,omitempty"`
	Type         string          `json:"type,omitempty"`
	Status       string          `json:"status,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// snapshotResult is the result of a subscribe command with snapshot
// enabled on a single book.
type snapshotResult struct {
	Asks []book.Offer `json:"asks"`
	Bids []book.Offer `json:"bids"`
}

// SubscribeBook sends one book subscription request and returns the
// request id its response will carry.
func (c *Client) SubscribeBook(spec BookSpec) (int, error) {
	c.nextID++
	cmd := command{
		ID:      c.nextID,
		Command: "subscribe",
		Books: []bookSubscription{{
			TakerGets: spec.Base,
			TakerPays: spec.Counter,
			Snapshot:  true,
			Both:      true,
		}},
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(cmd); err != nil {
		return 0, fmt.Errorf("subscribe %s: %w", spec.Pair(), err)
	}
	return cmd.ID, nil
}

// Read blocks until the next frame arrives and returns it decoded
// together with the raw payload.
func (c *Client) Read() (*Message, []byte, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil, fmt.Errorf("decode frame: %w", err)
	}
	return &msg, raw, nil
}

package vmservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Client is a minimal JSON-RPC 2.0 client for the Dart VM service
// websocket endpoint. It is not safe for concurrent use; the collection
// flow issues calls sequentially.
type Client struct {
	conn   *websocket.Conn
	nextID int64
}

// Dial connects to the websocket endpoint of the announced service URI.
func Dial(ctx context.Context, service *url.URL) (*Client, error) {
	ws := WebSocketURL(service)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ws.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial vm service %s: %w", ws, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts the websocket down.
func (c *Client) Close() error {
	return c.conn.Close()
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     *int64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("vm service error %d: %s", e.Code, e.Message)
}

// Call issues one request and decodes the matching response into result.
// Unsolicited stream events and stale responses are skipped. The context
// deadline, if any, bounds the read.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	id := c.nextID
	c.nextID++

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}

	if err := c.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var resp rpcResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
		return nil
	}
}

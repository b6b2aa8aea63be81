package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"taskora/internal/domain"

	"github.com/gorilla/websocket"
)

// FeedURL is the WebSocket address of the task event feed.
func (c *Client) FeedURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api scheme %q", u.Scheme)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Subscribe calls fn for every task event until ctx is done or the
// connection drops. ready, if non-nil, runs when the server greets the
// connection; events published after that point are delivered.
func (c *Client) Subscribe(ctx context.Context, ready func(), fn func(domain.TaskEvent)) error {
	feed, err := c.FeedURL()
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, feed, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &APIError{StatusCode: resp.StatusCode, Message: "Unauthorized"}
		}
		return fmt.Errorf("%w (%v)", ErrUnreachable, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read task feed: %w", err)
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &head); err != nil {
			continue
		}
		if head.Type == "ready" {
			if ready != nil {
				ready()
			}
			continue
		}
		if !strings.HasPrefix(head.Type, "task.") {
			continue
		}

		var ev domain.TaskEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			return fmt.Errorf("decode task event: %w", err)
		}
		fn(ev)
	}
}

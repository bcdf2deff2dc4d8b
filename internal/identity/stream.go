// ABOUTME: Change-notification stream from the identity backend over SSE
// ABOUTME: Delivers Change events in backend order until the context ends

package identity

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// streamBufferSize is the channel buffer for the change stream. Matches the
// fan-out buffer used by session store observers.
const streamBufferSize = 64

// Subscribe opens the backend's server-sent event stream and returns a
// channel of changes in delivery order. The channel is closed when ctx is
// cancelled or the stream ends. The initial HTTP exchange happens before
// Subscribe returns, so no event published after a successful return is lost.
func (c *Client) Subscribe(ctx context.Context) (<-chan Change, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/events", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrProtocol, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.statusError(resp)
	}

	ch := make(chan Change, streamBufferSize)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" {
				continue
			}

			var change Change
			if err := json.Unmarshal([]byte(payload), &change); err != nil {
				c.logger.Warn("dropping malformed change event", "error", err)
				continue
			}

			select {
			case ch <- change:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.logger.Warn("change stream ended", "error", err)
		}
	}()

	return ch, nil
}

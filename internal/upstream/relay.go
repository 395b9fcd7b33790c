package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

// ErrorBody is the JSON error payload for failed upstream calls.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Reply is a status and a JSON-encodable body ready for the HTTP layer.
type Reply struct {
	Status int
	Body   interface{}
}

// Relay sends req and passes the upstream status and JSON body through.
// An unconfigured client is a 500 with a hint. Network failures, an open
// breaker and non-JSON replies are a 502.
func (c *Client) Relay(ctx context.Context, req Request, hint string) Reply {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return failure(c.name, err, hint)
	}
	if !sonic.Valid(resp.Body) {
		return Reply{
			Status: http.StatusBadGateway,
			Body: ErrorBody{
				Error:   fmt.Sprintf("%s returned a non-JSON response", c.name),
				Details: fmt.Sprintf("status %d, content type %q", resp.Status, resp.ContentType),
			},
		}
	}
	return Reply{Status: resp.Status, Body: json.RawMessage(resp.Body)}
}

func failure(name string, err error, hint string) Reply {
	if errors.Is(err, ErrNotConfigured) {
		return Reply{
			Status: http.StatusInternalServerError,
			Body:   ErrorBody{Error: fmt.Sprintf("%s is not configured", name), Hint: hint},
		}
	}
	return Reply{
		Status: http.StatusBadGateway,
		Body:   ErrorBody{Error: fmt.Sprintf("failed to reach %s", name), Details: err.Error()},
	}
}

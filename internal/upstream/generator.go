package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
)

// Steps are the progress stages a generation run reports, in order.
var Steps = []string{
	"validating",
	"generating-contracts",
	"generating-frontend",
	"packaging",
	"pushing",
}

// GenerateResponse is the body returned for a generation request.
type GenerateResponse struct {
	BlueprintID string          `json:"blueprintId"`
	Steps       []string        `json:"steps"`
	Result      json.RawMessage `json:"result"`
}

// Generator hands exported blueprints to the code generation service.
type Generator struct {
	client *Client
}

// NewGenerator creates a generator that posts to client's base URL.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Configured reports whether a generation service is set.
func (g *Generator) Configured() bool { return g.client.Configured() }

// Generate posts bp as JSON and wraps the service reply with the step list.
func (g *Generator) Generate(ctx context.Context, bp blueprint.Blueprint) Reply {
	data, err := blueprint.Encode(bp, blueprint.FormatJSON)
	if err != nil {
		return Reply{Status: http.StatusInternalServerError, Body: ErrorBody{Error: err.Error()}}
	}

	reply := g.client.Relay(ctx, Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   data,
	}, "set GENERATOR_URL to the code generation service")
	raw, ok := reply.Body.(json.RawMessage)
	if !ok {
		return reply
	}

	steps := make([]string, len(Steps))
	copy(steps, Steps)
	return Reply{
		Status: reply.Status,
		Body:   GenerateResponse{BlueprintID: bp.ID, Steps: steps, Result: raw},
	}
}

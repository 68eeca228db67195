package mcp

import (
	"encoding/json"
)

// ResponseEnvelope is the shape every tool answers with.
type ResponseEnvelope struct {
	Data     any            `json:"data"`
	Context  map[string]any `json:"context,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Guidance []string       `json:"guidance,omitempty"`
}

// WrapResponse builds the envelope around a handler result.
func WrapResponse(data any, context map[string]any, warnings, guidance []string) ResponseEnvelope {
	return ResponseEnvelope{
		Data:     data,
		Context:  context,
		Warnings: warnings,
		Guidance: guidance,
	}
}

func formatResult(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return `{"error": "failed to encode result"}`
	}
	return string(out)
}

package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the wire format version clients pin against.
const envelopeVersion = 1

// successEnvelope wraps every successful JSON response.
type successEnvelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// errorEnvelope wraps every error JSON response.
type errorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in the versioned envelope.
// Registered as a huma transformer so every JSON route gets it for free.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch e := v.(type) {
	case nil:
		return &successEnvelope{V: envelopeVersion, Success: true}, nil
	case *APIError:
		return &errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		}, nil
	default:
		return &successEnvelope{V: envelopeVersion, Success: true, Data: v}, nil
	}
}

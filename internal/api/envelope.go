package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the wire format version. Bump only with a matching
// client release; clients hard-fail on an unknown version.
const envelopeVersion = 1

// successEnvelope wraps successful responses.
type successEnvelope struct {
	V       int  `json:"v" doc:"Envelope format version"`
	Success bool `json:"success" doc:"Always true for success responses"`
	Data    any  `json:"data" doc:"Response payload"`
}

// errorEnvelope wraps error responses. The flat error string is kept for
// clients that only display a message; code/message/details carry the
// structured form.
type errorEnvelope struct {
	V       int    `json:"v" doc:"Envelope format version"`
	Success bool   `json:"success" doc:"Always false for error responses"`
	Error   string `json:"error" doc:"Human-readable error message"`
	Code    string `json:"code,omitempty" doc:"Machine-readable error code"`
	Message string `json:"message,omitempty" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// EnvelopeTransformer wraps every huma response body in the versioned
// response envelope shared with the clients.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	return &successEnvelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

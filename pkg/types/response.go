package types

// Payload carries the resource keys of a success response, e.g. "cart" or "order".
type Payload map[string]any

// ErrorEnvelope is the body written for every failed request.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

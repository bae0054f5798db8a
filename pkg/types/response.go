package types

// SuccessEnvelope wraps every 2xx JSON body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details only appear for codes that
// allow them, and RequestID echoes X-Request-ID so clients can quote it.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

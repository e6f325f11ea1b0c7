package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer token
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName carries the per-request id used to correlate client
// logs with server logs.
const RequestIDHeaderName = "X-Request-Id"

// User types as reported by the attendance service.
const (
	UserTypeAdmin   = "admin"
	UserTypeStudent = "student"
)

// Package common contains shared constants and the error taxonomy used across
// userkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on directory calls.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is echoed on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

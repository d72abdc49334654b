// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the match handler.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Auth token missing, invalid or expired.
	InvalidUserIDError    = 3002 // Caller does not hold a seat in the match.
	RateLimitedError      = 3004 // Client kept sending after being throttled.
)

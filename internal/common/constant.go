package common

import "time"

// Local session cache keys. Both are written and cleared together.
const (
	AuthTokenKey = "auth_token"
	UserDataKey  = "user_data"
)

// DefaultSessionTTL is the lifetime of a freshly issued session token.
const DefaultSessionTTL = 24 * time.Hour

// SessionTokenBytes is the number of random bytes behind a session token
// (hex encoded to twice as many characters).
const SessionTokenBytes = 32

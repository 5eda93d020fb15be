package models

import "time"

// DeviceInfo describes where a session was issued.
type DeviceInfo struct {
	Platform  string    `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one login instance bound to a single opaque token.
type Session struct {
	Token      string     `json:"token"`
	UserID     string     `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiredAt  time.Time  `json:"expired_at"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
	Device     DeviceInfo `json:"device_info"`
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionLoggedOut SessionStatus = "logged_out"
	SessionExpired   SessionStatus = "expired"
)

func (s *Session) IsLoggedOut() bool {
	return s.LogoutTime != nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiredAt)
}

// IsValid reports whether the session can still authenticate at now.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsLoggedOut() && !s.IsExpired(now)
}

// Status is computed at read time. A logged out session stays logged out
// even after its expiry passes.
func (s *Session) Status(now time.Time) SessionStatus {
	switch {
	case s.IsLoggedOut():
		return SessionLoggedOut
	case s.IsExpired(now):
		return SessionExpired
	default:
		return SessionActive
	}
}

// Snapshot is what the device keeps between runs: the token of the last
// login and the stripped user it belongs to. It is never trusted without a
// remote validity check.
type Snapshot struct {
	Token string
	User  *Profile
}

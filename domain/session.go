package domain

import "time"

// Session is one live transport connection authenticated as a user.
// A user may hold any number of concurrent sessions (tabs, devices).
// Sessions are ephemeral: they die with the connection or the process.
type Session struct {
	ID          string
	UserID      string
	Role        Role
	DisplayName string
	ConnectedAt time.Time
}

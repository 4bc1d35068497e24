package domain

import "time"

// AccessToken is a signed bearer token issued at login.
type AccessToken struct {
	Value     string
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

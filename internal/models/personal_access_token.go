package models

import "time"

// PersonalAccessToken is a short-lived token bound to a subject and a purpose.
// Secret never leaves the service through a listing; only verification returns it.
type PersonalAccessToken struct {
	ID          int64      `json:"id"`
	SubjectType string     `json:"subject_type"`
	SubjectID   int64      `json:"subject_id"`
	Name        string     `json:"name,omitempty"`
	Secret      string     `json:"-"`
	Code        string     `json:"-"`
	Abilities   []string   `json:"abilities,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsExpired reports whether the token is past its expiry at the given instant.
func (t *PersonalAccessToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type VerifiedTokenResponse struct {
	ID          int64     `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	Name        string    `json:"name,omitempty"`
	Secret      string    `json:"secret,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

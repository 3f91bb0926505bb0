package dto

import "time"

// AcquireLockResponse reports the outcome of a lock acquisition attempt.
// Granted=false is a normal decision, not an error: the note is being
// edited by CurrentHolder until ExpiresAt.
type AcquireLockResponse struct {
	Granted       bool       `json:"granted"`
	CurrentHolder string     `json:"current_holder,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type ReleaseLockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type RenewLockResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// LockStatusResponse is the lazy-expiry view of a note's lock: an expired
// lock reports Locked=false even before it has been cleared in storage.
type LockStatusResponse struct {
	Locked     bool       `json:"locked"`
	Holder     string     `json:"holder,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CanEditNow bool       `json:"can_edit_now"`
}

package domain

import "time"

type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username,omitempty"`
	PasswordHash  string     `json:"-"`
	Confirmed     bool       `json:"confirmed"`
	ConfirmHash   string     `json:"-"`
	ConfirmExpiry *time.Time `json:"-"`
	ResetHash     string     `json:"-"`
	ResetExpiry   *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

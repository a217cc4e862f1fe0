package models

import "time"

// User is the identity record cached alongside the current session.
type User struct {
	ID               string     `bson:"id" json:"id"`
	Email            string     `bson:"email" json:"email"`
	DisplayName      string     `bson:"displayName,omitempty" json:"display_name,omitempty"`
	EmailConfirmedAt *time.Time `bson:"emailConfirmedAt,omitempty" json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt" json:"created_at"`
}

// Confirmed reports whether the platform has confirmed the user's email.
func (u *User) Confirmed() bool {
	return u != nil && u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero()
}

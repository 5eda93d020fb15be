// Package models defines the client-side records shared by the stores, the
// session manager and the CLI.
package models

import "time"

// Role is a coarse permission level. Every self-registered account is an editor.
type Role string

const RoleEditor Role = "EDITOR"

// User is the full credential record as persisted in the record store.
// It carries the password digest and therefore must not be cached, logged or
// returned to the presentation layer; use Strip to obtain a Profile.
type User struct {
	ID             string
	Email          string
	PasswordDigest string `json:"-"`
	FullName       string
	Gender         *string
	Age            *int
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Strip returns the user without its password digest.
func (u *User) Strip() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Gender:    u.Gender,
		Age:       u.Age,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Profile is the stripped user: safe to cache on the device and display.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Gender    *string   `json:"gender,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FullName *string
	Gender   *string
	Age      *int
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Gender == nil && u.Age == nil
}

// Apply copies the non-nil fields of u onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Gender != nil {
		p.Gender = u.Gender
	}
	if u.Age != nil {
		p.Age = u.Age
	}
}

package models

import (
	"encoding/json"
	"time"
)

// Post is a blog entry owned by a single user.
type Post struct {
	ID        string
	UserID    string
	Title     string
	SubTitle  string
	Body      string
	ImageKey  string
	Reference json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostInput carries user-supplied fields for create and update.
// Reference, when set, must be a JSON document. ImagePath points at a local
// file to upload.
type PostInput struct {
	Title     string
	SubTitle  string
	Body      string
	Reference string
	ImagePath string
}

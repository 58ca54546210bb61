package models

import "time"

// Project groups tasks under a shared ID prefix (e.g. "JC" -> JC-TASK-001).
// The prefix is unique across projects and normalized to uppercase.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Prefix      string    `json:"prefix"`
	Description string    `json:"description,omitempty"`
	Created     time.Time `json:"created_at"`
}

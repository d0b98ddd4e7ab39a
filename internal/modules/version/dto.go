package version

import "time"

// Metadata is the cheap listing shape: everything except the content.
type Metadata struct {
	ID          string    `json:"id"`
	Created     time.Time `json:"created"`
	VersionType string    `json:"version_type"`
	Description string    `json:"description,omitempty"`
}

// CreateDTO is the request body for creating a version.
type CreateDTO struct {
	Content     string                 `json:"content" binding:"required"`
	Metadata    map[string]interface{} `json:"metadata"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
}

package post

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PostInputDTO is the request body for creating or updating a post.
// Content may be a complete front-matter document; when it is a bare
// markdown body, the document is assembled from the other fields.
type PostInputDTO struct {
	Title    string   `json:"title"`
	Content  string   `json:"content" binding:"required"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Date     string   `json:"date"`
	Status   string   `json:"status"`
}

// RawDocument returns the front-matter + body document to validate.
func (d *PostInputDTO) RawDocument() string {
	if strings.HasPrefix(d.Content, "---\n") || strings.HasPrefix(d.Content, "---\r\n") {
		return d.Content
	}

	date := d.Date
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	meta := map[string]interface{}{
		"title":    d.Title,
		"excerpt":  d.Excerpt,
		"category": d.Category,
		"tags":     tags,
		"date":     date,
	}
	if d.Status != "" {
		meta["status"] = d.Status
	}

	encoded, err := yaml.Marshal(meta)
	if err != nil {
		return d.Content
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(strings.TrimSpace(string(encoded)))
	sb.WriteString("\n---\n\n")
	sb.WriteString(d.Content)
	return sb.String()
}

// UpdateStatusDTO is the PATCH body for publish/unpublish.
type UpdateStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

// BulkDeleteDTO is the body for bulk deletion.
type BulkDeleteDTO struct {
	Slugs []string `json:"slugs" binding:"required"`
}

// BulkDeleteResult reports the outcome per slug.
type BulkDeleteResult struct {
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing"`
}

// ListQuery holds the optional filters on post listings.
type ListQuery struct {
	Category *string
	Tag      *string
}

// TagCount is a tag with the number of live posts carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryCount is a category with the number of live posts in it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

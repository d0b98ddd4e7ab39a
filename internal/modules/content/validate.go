// Package content parses and validates raw post content, a YAML
// front-matter block followed by a markdown body.
package content

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation error kinds, in check order.
const (
	KindTitleRequired    = "TITLE_REQUIRED"
	KindExcerptRequired  = "EXCERPT_REQUIRED"
	KindCategoryRequired = "CATEGORY_REQUIRED"
	KindTagsInvalid      = "TAGS_INVALID"
	KindContentRequired  = "CONTENT_REQUIRED"
	KindDateInvalid      = "DATE_INVALID"
	KindMetadataInvalid  = "METADATA_INVALID"
)

// ValidationError reports the first failed check.
type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Parsed is the typed result of a successful validation. The metadata
// schema is closed: unknown front-matter keys are rejected instead of
// being carried downstream as untyped maps.
type Parsed struct {
	Title    string
	Excerpt  string
	Category string
	Tags     []string
	Status   string
	Date     time.Time
	Body     string
}

// Metadata returns the front-matter as a map, the shape stored in
// version snapshots.
func (p *Parsed) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"title":    p.Title,
		"excerpt":  p.Excerpt,
		"category": p.Category,
		"tags":     p.Tags,
		"status":   p.Status,
		"date":     p.Date.Format(time.RFC3339),
	}
}

var knownMetaKeys = map[string]bool{
	"title":    true,
	"excerpt":  true,
	"category": true,
	"tags":     true,
	"status":   true,
	"date":     true,
}

// Validate parses raw content and runs the required-field checks in
// order, returning the first failure. Pure: no side effects, same
// input always yields the same result.
func Validate(raw string) (*Parsed, *ValidationError) {
	front, body := splitFrontMatter(raw)

	meta := map[string]interface{}{}
	if front != "" {
		if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
			return nil, &ValidationError{KindMetadataInvalid, "malformed front-matter"}
		}
	}
	for key := range meta {
		if !knownMetaKeys[key] {
			return nil, &ValidationError{KindMetadataInvalid, fmt.Sprintf("unknown front-matter key %q", key)}
		}
	}

	p := &Parsed{}

	p.Title = strings.TrimSpace(metaString(meta["title"]))
	if p.Title == "" {
		return nil, &ValidationError{KindTitleRequired, "title is required"}
	}

	p.Excerpt = strings.TrimSpace(metaString(meta["excerpt"]))
	if p.Excerpt == "" {
		return nil, &ValidationError{KindExcerptRequired, "excerpt is required"}
	}

	p.Category = strings.TrimSpace(metaString(meta["category"]))
	if p.Category == "" {
		return nil, &ValidationError{KindCategoryRequired, "category is required"}
	}

	tags, ok := metaTags(meta["tags"])
	if !ok {
		return nil, &ValidationError{KindTagsInvalid, "tags must be an array"}
	}
	p.Tags = tags

	p.Body = strings.TrimSpace(body)
	if p.Body == "" {
		return nil, &ValidationError{KindContentRequired, "body is required"}
	}

	date, ok := metaDate(meta["date"])
	if !ok {
		return nil, &ValidationError{KindDateInvalid, "date is missing or not a valid date"}
	}
	p.Date = date

	p.Status = strings.TrimSpace(metaString(meta["status"]))
	if p.Status == "" {
		p.Status = "draft"
	}
	if p.Status != "draft" && p.Status != "published" {
		return nil, &ValidationError{KindMetadataInvalid, fmt.Sprintf("unknown status %q", p.Status)}
	}

	return p, nil
}

// splitFrontMatter separates the leading YAML block from the body.
// Content without a front-matter fence is all body.
func splitFrontMatter(raw string) (front, body string) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") && normalized != "---" {
		return "", normalized
	}

	rest := strings.TrimPrefix(normalized, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", normalized
	}

	front = rest[:end]
	body = rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return front, body
}

func metaString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

func metaTags(v interface{}) ([]string, bool) {
	switch value := v.(type) {
	case nil:
		return []string{}, true
	case []interface{}:
		tags := make([]string, 0, len(value))
		for _, item := range value {
			tags = append(tags, metaString(item))
		}
		return tags, true
	case []string:
		return value, true
	default:
		return nil, false
	}
}

func metaDate(v interface{}) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value, true
	case string:
		raw := strings.TrimSpace(value)
		if raw == "" {
			return time.Time{}, false
		}
		layouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

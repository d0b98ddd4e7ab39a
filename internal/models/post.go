package models

import "time"

// Post status values.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// PostModel is a blog post.
type PostModel struct {
	Base
	Slug        string      `json:"slug"         gorm:"uniqueIndex;not null"`
	Title       string      `json:"title"        gorm:"not null"`
	Content     string      `json:"content"      gorm:"type:longtext"`
	Excerpt     string      `json:"excerpt"`
	Category    string      `json:"category"     gorm:"index"`
	Tags        StringSlice `json:"tags"         gorm:"type:json;serializer:json"`
	Status      string      `json:"status"       gorm:"index;default:'draft'"`
	Date        *time.Time  `json:"date"`
	PublishedAt *time.Time  `json:"published_at"`
	ReadCount   int         `json:"read"         gorm:"column:read_count;default:0"`
	LikeCount   int         `json:"like"         gorm:"column:like_count;default:0"`
}

func (PostModel) TableName() string { return "posts" }

// IsPublished reports whether the post is publicly visible.
func (p PostModel) IsPublished() bool { return p.Status == PostStatusPublished }

package models

// Media kind values.
const (
	MediaKindUpload   = "upload"
	MediaKindExternal = "external"
)

// MediaModel tracks uploaded files and registered external embeds.
// Uploads live under <media-dir>/<post-slug>/ on disk; external rows
// only hold the remote URL.
type MediaModel struct {
	Base
	Name     string `json:"name"`
	URL      string `json:"url"       gorm:"index;not null"`
	Kind     string `json:"kind"      gorm:"index;default:'upload'"`
	MimeType string `json:"type"`
	Size     int64  `json:"size"`
	PostSlug string `json:"post_slug" gorm:"index"`
}

func (MediaModel) TableName() string { return "media" }

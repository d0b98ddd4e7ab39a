package models

// Version type values. Auto versions are written by the autosave
// scheduler and subject to retention pruning; manual versions are
// user-created checkpoints and are never pruned.
const (
	VersionTypeAuto   = "auto"
	VersionTypeManual = "manual"
)

// PostVersionModel is an immutable snapshot of a post's content and
// metadata. Rows are only ever created and deleted, never updated.
type PostVersionModel struct {
	Base
	PostID      string                 `json:"-"           gorm:"index;not null"`
	Content     string                 `json:"content"     gorm:"type:longtext"`
	Metadata    map[string]interface{} `json:"metadata"    gorm:"type:longtext;serializer:json"`
	VersionType string                 `json:"version_type" gorm:"index;default:'auto'"`
	Description string                 `json:"description"`
}

func (PostVersionModel) TableName() string { return "post_versions" }

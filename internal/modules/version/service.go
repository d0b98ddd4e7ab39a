package version

import (
	"errors"
	"fmt"

	"github.com/nagisa-works/inkstone/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultRetentionLimit bounds how many auto versions a post keeps.
const DefaultRetentionLimit = 5

var (
	// ErrInvalidType is returned for a version_type outside auto|manual.
	ErrInvalidType = errors.New("version type must be auto or manual")
)

// Service persists immutable post version snapshots.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	retention int
}

func NewService(db *gorm.DB, log *zap.Logger, retention int) *Service {
	if retention <= 0 {
		retention = DefaultRetentionLimit
	}
	return &Service{db: db, log: log, retention: retention}
}

// Create appends a snapshot. Auto versions beyond the retention limit
// are pruned synchronously, oldest first; a pruning failure never fails
// the create.
func (s *Service) Create(postID, content string, metadata map[string]interface{}, versionType, description string) (*models.PostVersionModel, error) {
	if versionType == "" {
		versionType = models.VersionTypeAuto
	}
	if versionType != models.VersionTypeAuto && versionType != models.VersionTypeManual {
		return nil, ErrInvalidType
	}

	v := &models.PostVersionModel{
		PostID:      postID,
		Content:     content,
		Metadata:    metadata,
		VersionType: versionType,
		Description: description,
	}
	if err := s.db.Create(v).Error; err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}

	if versionType == models.VersionTypeAuto {
		if err := s.pruneAuto(postID); err != nil {
			// the snapshot is already safe; losing it over a cleanup
			// error would be worse than keeping a few extra rows
			s.log.Warn("version pruning failed",
				zap.String("post_id", postID),
				zap.Error(err),
			)
		}
	}

	return v, nil
}

func (s *Service) pruneAuto(postID string) error {
	var all []models.PostVersionModel
	err := s.db.
		Select("id").
		Where("post_id = ? AND version_type = ?", postID, models.VersionTypeAuto).
		Order("created_at DESC").
		Find(&all).Error
	if err != nil {
		return err
	}
	if len(all) <= s.retention {
		return nil
	}

	stale := all[s.retention:]
	ids := make([]string, 0, len(stale))
	for _, v := range stale {
		ids = append(ids, v.ID)
	}
	return s.db.Unscoped().Delete(&models.PostVersionModel{}, "id IN ?", ids).Error
}

// List returns version metadata newest-first, without content.
func (s *Service) List(postID string) ([]Metadata, error) {
	var versions []models.PostVersionModel
	err := s.db.
		Select("id", "created_at", "version_type", "description").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}

	out := make([]Metadata, 0, len(versions))
	for _, v := range versions {
		out = append(out, Metadata{
			ID:          v.ID,
			Created:     v.CreatedAt,
			VersionType: v.VersionType,
			Description: v.Description,
		})
	}
	return out, nil
}

// Get returns a full snapshot, or (nil, nil) when absent.
func (s *Service) Get(postID, versionID string) (*models.PostVersionModel, error) {
	var v models.PostVersionModel
	err := s.db.Where("id = ? AND post_id = ?", versionID, postID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteAllForPost hard-deletes every version of a post. Called when
// the post itself is deleted.
func (s *Service) DeleteAllForPost(postID string) error {
	return s.db.Unscoped().Delete(&models.PostVersionModel{}, "post_id = ?", postID).Error
}

// CountAuto reports how many auto versions a post currently holds.
func (s *Service) CountAuto(postID string) (int64, error) {
	var n int64
	err := s.db.Model(&models.PostVersionModel{}).
		Where("post_id = ? AND version_type = ?", postID, models.VersionTypeAuto).
		Count(&n).Error
	return n, err
}

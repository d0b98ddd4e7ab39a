package post

import (
	"errors"
	"time"

	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/modules/content"
	"github.com/nagisa-works/inkstone/internal/modules/version"
	"github.com/nagisa-works/inkstone/internal/pkg/pagination"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
	"github.com/nagisa-works/inkstone/internal/pkg/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidStatus is returned for a status outside draft|published.
var ErrInvalidStatus = errors.New("status must be draft or published")

// MediaStore is the slice of the media service the post lifecycle
// needs: keeping a post's media directory in step with its slug.
type MediaStore interface {
	RelocateDir(oldSlug, newSlug string) error
	RemoveDir(slug string) error
}

// Service drives the post lifecycle: create, update, publish,
// unpublish, delete, and version restore.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	versions *version.Service
	media    MediaStore
}

func NewService(db *gorm.DB, log *zap.Logger, versions *version.Service) *Service {
	return &Service{db: db, log: log, versions: versions}
}

// SetMediaStore wires up media directory relocation (optional).
func (s *Service) SetMediaStore(m MediaStore) { s.media = m }

// List returns a paginated post listing. Public listings only include
// published posts, newest published first; admin listings include
// drafts, newest created first.
func (s *Service) List(q pagination.Query, lq ListQuery, includeDrafts bool) ([]models.PostModel, response.Pagination, error) {
	tx := s.db.Model(&models.PostModel{})
	if includeDrafts {
		tx = tx.Order("created_at DESC")
	} else {
		tx = tx.Where("status = ?", models.PostStatusPublished).Order("published_at DESC")
	}
	if lq.Category != nil {
		tx = tx.Where("category = ?", *lq.Category)
	}

	// tags live in a JSON column; filter in process to stay portable
	if lq.Tag != nil {
		var all []models.PostModel
		if err := tx.Find(&all).Error; err != nil {
			return nil, response.Pagination{}, err
		}
		matched := make([]models.PostModel, 0, len(all))
		for _, p := range all {
			for _, t := range p.Tags {
				if t == *lq.Tag {
					matched = append(matched, p)
					break
				}
			}
		}
		return paginateSlice(matched, q)
	}

	var posts []models.PostModel
	pag, err := pagination.Paginate(tx, q, &posts)
	return posts, pag, err
}

func paginateSlice(posts []models.PostModel, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	total := int64(len(posts))
	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))

	start := (q.Page - 1) * q.Size
	if start > len(posts) {
		start = len(posts)
	}
	end := start + q.Size
	if end > len(posts) {
		end = len(posts)
	}

	return posts[start:end], response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

// GetBySlug fetches a single post. Drafts are only visible when
// includeDrafts is set. Returns (nil, nil) when absent.
func (s *Service) GetBySlug(sl string, includeDrafts bool) (*models.PostModel, error) {
	var post models.PostModel
	tx := s.db.Where("slug = ?", sl)
	if !includeDrafts {
		tx = tx.Where("status = ?", models.PostStatusPublished)
	}
	if err := tx.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create validates raw content and persists a new draft.
func (s *Service) Create(raw string) (*models.PostModel, *content.ValidationError, error) {
	parsed, verr := content.Validate(raw)
	if verr != nil {
		return nil, verr, nil
	}

	derived := slug.Generate(parsed.Title)
	unique, err := slug.EnsureUnique(s.db, derived, "")
	if err != nil {
		return nil, nil, err
	}

	date := parsed.Date
	post := models.PostModel{
		Slug:     unique,
		Title:    parsed.Title,
		Content:  parsed.Body,
		Excerpt:  parsed.Excerpt,
		Category: parsed.Category,
		Tags:     parsed.Tags,
		Status:   models.PostStatusDraft,
		Date:     &date,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, nil, err
	}
	return &post, nil, nil
}

// Update validates raw content and overwrites the post. A title change
// re-derives the slug and relocates the post's media directory. Every
// successful update snapshots a version of the given type.
func (s *Service) Update(sl, raw, versionType string) (*models.PostModel, *content.ValidationError, error) {
	post, err := s.GetBySlug(sl, true)
	if err != nil || post == nil {
		return nil, nil, err
	}

	parsed, verr := content.Validate(raw)
	if verr != nil {
		return nil, verr, nil
	}

	newSlug := post.Slug
	if derived := slug.Generate(parsed.Title); derived != slug.Generate(post.Title) {
		newSlug, err = slug.EnsureUnique(s.db, derived, post.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	if newSlug != post.Slug && s.media != nil {
		if err := s.media.RelocateDir(post.Slug, newSlug); err != nil {
			return nil, nil, err
		}
	}

	date := parsed.Date
	post.Slug = newSlug
	post.Title = parsed.Title
	post.Content = parsed.Body
	post.Excerpt = parsed.Excerpt
	post.Category = parsed.Category
	post.Tags = parsed.Tags
	post.Date = &date

	if err := s.db.Save(post).Error; err != nil {
		return nil, nil, err
	}

	if _, err := s.versions.Create(post.ID, post.Content, parsed.Metadata(), versionType, ""); err != nil {
		// the post itself saved; a failed snapshot must not undo that
		s.log.Warn("version snapshot failed",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
	}

	return post, nil, nil
}

// Publish transitions draft -> published and stamps published_at.
func (s *Service) Publish(sl string) (*models.PostModel, error) {
	post, err := s.GetBySlug(sl, true)
	if err != nil || post == nil {
		return nil, err
	}

	now := time.Now()
	post.Status = models.PostStatusPublished
	post.PublishedAt = &now
	if err := s.db.Model(post).Select("status", "published_at").Updates(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Unpublish transitions published -> draft and clears published_at.
func (s *Service) Unpublish(sl string) (*models.PostModel, error) {
	post, err := s.GetBySlug(sl, true)
	if err != nil || post == nil {
		return nil, err
	}

	post.Status = models.PostStatusDraft
	post.PublishedAt = nil
	err = s.db.Model(post).
		Select("status", "published_at").
		Updates(map[string]interface{}{"status": models.PostStatusDraft, "published_at": nil}).Error
	if err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateStatus dispatches an explicit status transition.
func (s *Service) UpdateStatus(sl, status string) (*models.PostModel, error) {
	switch status {
	case models.PostStatusPublished:
		return s.Publish(sl)
	case models.PostStatusDraft:
		return s.Unpublish(sl)
	default:
		return nil, ErrInvalidStatus
	}
}

// Delete soft-deletes the post for listing purposes and physically
// removes its version history and media directory.
func (s *Service) Delete(sl string) (bool, error) {
	post, err := s.GetBySlug(sl, true)
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, nil
	}

	if err := s.db.Delete(post).Error; err != nil {
		return false, err
	}
	if err := s.versions.DeleteAllForPost(post.ID); err != nil {
		return false, err
	}
	if s.media != nil {
		if err := s.media.RemoveDir(post.Slug); err != nil {
			s.log.Warn("media cleanup failed",
				zap.String("slug", post.Slug),
				zap.Error(err),
			)
		}
	}
	return true, nil
}

// BulkDelete deletes each slug, silently skipping the missing ones and
// reporting both groups.
func (s *Service) BulkDelete(slugs []string) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{Deleted: []string{}, Missing: []string{}}
	for _, sl := range slugs {
		ok, err := s.Delete(sl)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Deleted = append(result.Deleted, sl)
		} else {
			result.Missing = append(result.Missing, sl)
		}
	}
	return result, nil
}

// RestoreVersion overwrites the post's content and metadata with the
// snapshot. The pre-restore state is not captured: a restore is not
// itself versioned.
func (s *Service) RestoreVersion(sl, versionID string) (*models.PostModel, error) {
	post, err := s.GetBySlug(sl, true)
	if err != nil || post == nil {
		return nil, err
	}

	v, err := s.versions.Get(post.ID, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	post.Content = v.Content
	applyMetadata(post, v.Metadata)

	if err := s.db.Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func applyMetadata(post *models.PostModel, meta map[string]interface{}) {
	if meta == nil {
		return
	}
	if title, ok := meta["title"].(string); ok && title != "" {
		post.Title = title
	}
	if excerpt, ok := meta["excerpt"].(string); ok {
		post.Excerpt = excerpt
	}
	if category, ok := meta["category"].(string); ok {
		post.Category = category
	}
	if raw, ok := meta["tags"].([]interface{}); ok {
		tags := make([]string, 0, len(raw))
		for _, t := range raw {
			if str, ok := t.(string); ok {
				tags = append(tags, str)
			}
		}
		post.Tags = tags
	} else if tags, ok := meta["tags"].([]string); ok {
		post.Tags = tags
	}
	if raw, ok := meta["date"].(string); ok {
		if date, err := time.Parse(time.RFC3339, raw); err == nil {
			post.Date = &date
		}
	}
}

// IncrementRead bumps the read counter; failures are non-fatal.
func (s *Service) IncrementRead(id string) {
	err := s.db.Model(&models.PostModel{}).Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + 1")).Error
	if err != nil {
		s.log.Warn("read counter bump failed", zap.String("post_id", id), zap.Error(err))
	}
}

// Like bumps the like counter of a published post.
func (s *Service) Like(sl string) (*models.PostModel, error) {
	post, err := s.GetBySlug(sl, false)
	if err != nil || post == nil {
		return nil, err
	}
	err = s.db.Model(post).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	if err != nil {
		return nil, err
	}
	post.LikeCount++
	return post, nil
}

// Tags aggregates tag usage over live posts.
func (s *Service) Tags() ([]TagCount, error) {
	var posts []models.PostModel
	if err := s.db.Select("tags").Find(&posts).Error; err != nil {
		return nil, err
	}

	counts := map[string]int{}
	order := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, seen := counts[t]; !seen {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(order))
	for _, t := range order {
		out = append(out, TagCount{Name: t, Count: counts[t]})
	}
	return out, nil
}

// Categories aggregates category usage over live posts.
func (s *Service) Categories() ([]CategoryCount, error) {
	var rows []CategoryCount
	err := s.db.Model(&models.PostModel{}).
		Select("category AS name, COUNT(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

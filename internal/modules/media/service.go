package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/pkg/pagination"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// unscopedDir receives uploads that are not tied to a post yet.
const unscopedDir = "uploads"

// orphanAge is how long an unscoped upload may stay unreferenced
// before the cleanup job removes it.
const orphanAge = 24 * time.Hour

var (
	// ErrHostNotAllowed rejects external embeds from unknown hosts.
	ErrHostNotAllowed = errors.New("embed host is not on the allow list")
	// ErrUnsafeName rejects path-traversal attempts in names or slugs.
	ErrUnsafeName = errors.New("unsafe file or directory name")
)

// Service stores uploads under <media-dir>/<post-slug>/ and tracks
// them, along with allow-listed external embeds, in the database.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	mediaDir     string
	allowedHosts []string
}

func NewService(db *gorm.DB, log *zap.Logger, mediaDir string, allowedHosts []string) *Service {
	return &Service{db: db, log: log, mediaDir: mediaDir, allowedHosts: allowedHosts}
}

// SaveUpload writes the file to disk under the post's directory (or
// the unscoped one) and records it.
func (s *Service) SaveUpload(postSlug, originalName, contentType string, r io.Reader) (*models.MediaModel, error) {
	dir := unscopedDir
	if postSlug != "" {
		if !isSafeSegment(postSlug) {
			return nil, ErrUnsafeName
		}
		dir = postSlug
	}

	name := buildFileName(originalName)
	absDir := filepath.Join(s.mediaDir, dir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(absDir, name))
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	size, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filepath.Join(absDir, name))
		return nil, fmt.Errorf("write media file: %w", err)
	}

	m := &models.MediaModel{
		Name:     name,
		URL:      "/media/" + dir + "/" + name,
		Kind:     models.MediaKindUpload,
		MimeType: detectContentType(originalName, contentType),
		Size:     size,
		PostSlug: postSlug,
	}
	if err := s.db.Create(m).Error; err != nil {
		os.Remove(filepath.Join(absDir, name))
		return nil, err
	}
	return m, nil
}

// RegisterExternal records an embed URL after matching its host
// against the allow list.
func (s *Service) RegisterExternal(rawURL string) (*models.MediaModel, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid embed url %q", rawURL)
	}
	if !s.hostAllowed(u.Hostname()) {
		return nil, ErrHostNotAllowed
	}

	m := &models.MediaModel{
		Name: filepath.Base(u.Path),
		URL:  u.String(),
		Kind: models.MediaKindExternal,
	}
	if err := s.db.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// hostAllowed matches the host against the configured patterns; a
// pattern matches exactly or as a parent domain.
func (s *Service) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range s.allowedHosts {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if host == pattern || strings.HasSuffix(host, "."+pattern) {
			return true
		}
	}
	return false
}

// List returns a paginated media listing, newest first.
func (s *Service) List(q pagination.Query) ([]models.MediaModel, response.Pagination, error) {
	tx := s.db.Model(&models.MediaModel{}).Order("created_at DESC")
	var items []models.MediaModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Delete removes the record and, for uploads, the backing file.
// Returns false when the id is unknown.
func (s *Service) Delete(id string) (bool, error) {
	var m models.MediaModel
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.db.Unscoped().Delete(&m).Error; err != nil {
		return false, err
	}
	if m.Kind == models.MediaKindUpload {
		if err := os.Remove(s.absPath(m.URL)); err != nil && !os.IsNotExist(err) {
			s.log.Warn("media file removal failed", zap.String("url", m.URL), zap.Error(err))
		}
	}
	return true, nil
}

// RelocateDir renames a post's media directory after a slug change and
// rewrites the stored URLs.
func (s *Service) RelocateDir(oldSlug, newSlug string) error {
	if !isSafeSegment(oldSlug) || !isSafeSegment(newSlug) {
		return ErrUnsafeName
	}

	oldDir := filepath.Join(s.mediaDir, oldSlug)
	newDir := filepath.Join(s.mediaDir, newSlug)
	if _, err := os.Stat(oldDir); err == nil {
		if err := os.Rename(oldDir, newDir); err != nil {
			return fmt.Errorf("relocate media dir: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	var items []models.MediaModel
	if err := s.db.Where("post_slug = ?", oldSlug).Find(&items).Error; err != nil {
		return err
	}
	oldPrefix := "/media/" + oldSlug + "/"
	newPrefix := "/media/" + newSlug + "/"
	for i := range items {
		items[i].PostSlug = newSlug
		items[i].URL = newPrefix + strings.TrimPrefix(items[i].URL, oldPrefix)
		if err := s.db.Model(&items[i]).
			Select("post_slug", "url").
			Updates(map[string]interface{}{"post_slug": newSlug, "url": items[i].URL}).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveDir deletes a post's media directory and its records. Called
// when the post is deleted.
func (s *Service) RemoveDir(slug string) error {
	if !isSafeSegment(slug) {
		return ErrUnsafeName
	}
	if err := os.RemoveAll(filepath.Join(s.mediaDir, slug)); err != nil {
		return err
	}
	return s.db.Unscoped().Delete(&models.MediaModel{}, "post_slug = ?", slug).Error
}

// CleanupOrphans removes unscoped uploads older than a day. Runs as a
// cron job.
func (s *Service) CleanupOrphans(ctx context.Context) error {
	cutoff := time.Now().Add(-orphanAge)

	var orphans []models.MediaModel
	err := s.db.WithContext(ctx).
		Where("kind = ? AND post_slug = ? AND created_at < ?", models.MediaKindUpload, "", cutoff).
		Find(&orphans).Error
	if err != nil {
		return err
	}

	for _, m := range orphans {
		if _, err := s.Delete(m.ID); err != nil {
			s.log.Warn("orphan cleanup failed", zap.String("id", m.ID), zap.Error(err))
		}
	}
	if len(orphans) > 0 {
		s.log.Info("orphan media cleaned up", zap.Int("count", len(orphans)))
	}
	return nil
}

func (s *Service) absPath(mediaURL string) string {
	rel := strings.TrimPrefix(mediaURL, "/media/")
	return filepath.Join(s.mediaDir, filepath.FromSlash(rel))
}

// buildFileName generates a collision-resistant filename that keeps
// the original extension.
func buildFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 || !isSafeSegment(ext[1:]) {
		ext = ".dat"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:18] + ext
}

// detectContentType prefers the client-declared type, then the
// extension.
func detectContentType(filename, fallback string) string {
	if ct := strings.TrimSpace(fallback); ct != "" {
		return ct
	}
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}
	return "application/octet-stream"
}

// isSafeSegment reports whether s is a single safe path segment.
func isSafeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' ||
			(r >= 0x4E00 && r <= 0x9FA5) {
			continue
		}
		return false
	}
	return true
}

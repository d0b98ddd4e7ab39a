package version

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nagisa-works/inkstone/internal/database"
	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestService(t *testing.T, retention int) (*Service, *gorm.DB) {
	db := newTestDB(t)
	return NewService(db, zap.NewNop(), retention), db
}

func seedPost(t *testing.T, db *gorm.DB) *models.PostModel {
	t.Helper()
	post := &models.PostModel{
		Slug:    "seed-post",
		Title:   "Seed Post",
		Content: "body",
		Status:  models.PostStatusDraft,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	meta := map[string]interface{}{
		"title":   "Seed Post",
		"excerpt": "an excerpt",
		"tags":    []interface{}{"a", "b"},
	}
	created, err := svc.Create(post.ID, "# Draft v1", meta, models.VersionTypeManual, "checkpoint")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(post.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "# Draft v1", got.Content)
	assert.Equal(t, "Seed Post", got.Metadata["title"])
	assert.Equal(t, models.VersionTypeManual, got.VersionType)
	assert.Equal(t, "checkpoint", got.Description)
}

func TestGetMissing(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	got, err := svc.Get(post.ID, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateInvalidType(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	_, err := svc.Create(post.ID, "x", nil, "hourly", "")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestRetentionPrunesOldestAuto(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	var ids []string
	for i := 1; i <= 6; i++ {
		v, err := svc.Create(post.ID, fmt.Sprintf("draft v%d", i), nil, models.VersionTypeAuto, "")
		require.NoError(t, err)
		ids = append(ids, v.ID)
		// created_at is the pruning order key
		time.Sleep(2 * time.Millisecond)
	}

	list, err := svc.List(post.ID)
	require.NoError(t, err)
	require.Len(t, list, 5)

	// newest first: versions 6..2 survive, version 1 is gone
	for i, m := range list {
		assert.Equal(t, ids[5-i], m.ID)
	}

	gone, err := svc.Get(post.ID, ids[0])
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRetentionExemptsManual(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	manual, err := svc.Create(post.ID, "keep me", nil, models.VersionTypeManual, "milestone")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	for i := 0; i < 8; i++ {
		_, err := svc.Create(post.ID, "auto", nil, models.VersionTypeAuto, "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	autoCount, err := svc.CountAuto(post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, autoCount)

	kept, err := svc.Get(post.ID, manual.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "keep me", kept.Content)

	list, err := svc.List(post.ID)
	require.NoError(t, err)
	assert.Len(t, list, 6)
}

func TestListIsMetadataOnly(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	_, err := svc.Create(post.ID, "content", nil, models.VersionTypeAuto, "")
	require.NoError(t, err)

	list, err := svc.List(post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].ID)
	assert.False(t, list[0].Created.IsZero())
	assert.Equal(t, models.VersionTypeAuto, list[0].VersionType)
}

func TestDeleteAllForPost(t *testing.T) {
	svc, db := newTestService(t, 5)
	post := seedPost(t, db)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(post.ID, "x", nil, models.VersionTypeManual, "")
		require.NoError(t, err)
	}
	require.NoError(t, svc.DeleteAllForPost(post.ID))

	list, err := svc.List(post.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// hard delete: nothing lingers behind the soft-delete veil
	var n int64
	require.NoError(t, db.Unscoped().Model(&models.PostVersionModel{}).Where("post_id = ?", post.ID).Count(&n).Error)
	assert.Zero(t, n)
}

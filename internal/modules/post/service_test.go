package post

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nagisa-works/inkstone/internal/database"
	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/modules/autosave"
	"github.com/nagisa-works/inkstone/internal/modules/content"
	"github.com/nagisa-works/inkstone/internal/modules/version"
	"github.com/nagisa-works/inkstone/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMediaStore struct {
	relocations [][2]string
	removed     []string
}

func (f *fakeMediaStore) RelocateDir(oldSlug, newSlug string) error {
	f.relocations = append(f.relocations, [2]string{oldSlug, newSlug})
	return nil
}

func (f *fakeMediaStore) RemoveDir(slug string) error {
	f.removed = append(f.removed, slug)
	return nil
}

func newTestService(t *testing.T) (*Service, *version.Service, *fakeMediaStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	versions := version.NewService(db, zap.NewNop(), 5)
	svc := NewService(db, zap.NewNop(), versions)
	media := &fakeMediaStore{}
	svc.SetMediaStore(media)
	return svc, versions, media
}

func doc(title, body string) string {
	return fmt.Sprintf(`---
title: %q
excerpt: "short summary"
category: "notes"
tags: ["go", "testing"]
date: "2026-08-30T10:00:00Z"
---

%s`, title, body)
}

func mustCreate(t *testing.T, svc *Service, title string) *models.PostModel {
	t.Helper()
	p, verr, err := svc.Create(doc(title, "Body of "+title))
	require.NoError(t, err)
	require.Nil(t, verr)
	return p
}

func TestCreateDerivesSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := mustCreate(t, svc, "Hello World")
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, models.PostStatusDraft, p.Status)
	assert.Equal(t, "Body of Hello World", strings.TrimSpace(p.Content))
	assert.Equal(t, models.StringSlice{"go", "testing"}, p.Tags)
	require.NotNil(t, p.Date)
}

func TestCreateSlugCollisionGetsSuffix(t *testing.T) {
	svc, _, _ := newTestService(t)

	first := mustCreate(t, svc, "Hello World")
	second := mustCreate(t, svc, "Hello World")

	assert.Equal(t, "hello-world", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "hello-world-"))
}

func TestCreateRejectsInvalidContent(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, verr, err := svc.Create("---\ntitle: \"\"\n---\n\nbody")
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, content.KindTitleRequired, verr.Kind)
}

func TestPublishAndUnpublish(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "Going Live")

	published, err := svc.Publish(p.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	// the public view now includes it
	visible, err := svc.GetBySlug(p.Slug, false)
	require.NoError(t, err)
	require.NotNil(t, visible)

	reverted, err := svc.Unpublish(p.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, reverted.Status)
	assert.Nil(t, reverted.PublishedAt)

	hidden, err := svc.GetBySlug(p.Slug, false)
	require.NoError(t, err)
	assert.Nil(t, hidden)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "Stateful")

	_, err := svc.UpdateStatus(p.Slug, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateSnapshotsVersion(t *testing.T) {
	svc, versions, _ := newTestService(t)
	p := mustCreate(t, svc, "Versioned Post")

	updated, verr, err := svc.Update(p.Slug, doc("Versioned Post", "Revised body"), models.VersionTypeManual)
	require.NoError(t, err)
	require.Nil(t, verr)
	assert.Equal(t, "Revised body", strings.TrimSpace(updated.Content))

	list, err := versions.List(p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.VersionTypeManual, list[0].VersionType)
}

func TestUpdateTitleChangeRelocatesMedia(t *testing.T) {
	svc, _, media := newTestService(t)
	p := mustCreate(t, svc, "Old Title")

	updated, verr, err := svc.Update(p.Slug, doc("Brand New Title", "body"), models.VersionTypeManual)
	require.NoError(t, err)
	require.Nil(t, verr)
	assert.Equal(t, "brand-new-title", updated.Slug)

	require.Len(t, media.relocations, 1)
	assert.Equal(t, [2]string{"old-title", "brand-new-title"}, media.relocations[0])

	// the post is reachable under the new slug only
	old, err := svc.GetBySlug("old-title", true)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestUpdateSameTitleKeepsSlug(t *testing.T) {
	svc, _, media := newTestService(t)
	p := mustCreate(t, svc, "Stable Title")

	updated, verr, err := svc.Update(p.Slug, doc("Stable Title", "new body"), models.VersionTypeAuto)
	require.NoError(t, err)
	require.Nil(t, verr)
	assert.Equal(t, p.Slug, updated.Slug)
	assert.Empty(t, media.relocations)
}

func TestRestoreDoesNotSnapshot(t *testing.T) {
	svc, versions, _ := newTestService(t)
	p := mustCreate(t, svc, "Restorable")

	_, verr, err := svc.Update(p.Slug, doc("Restorable", "first revision"), models.VersionTypeManual)
	require.NoError(t, err)
	require.Nil(t, verr)
	_, verr, err = svc.Update(p.Slug, doc("Restorable", "second revision"), models.VersionTypeManual)
	require.NoError(t, err)
	require.Nil(t, verr)

	list, err := versions.List(p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	oldest := list[len(list)-1]

	restored, err := svc.RestoreVersion(p.Slug, oldest.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "first revision", strings.TrimSpace(restored.Content))

	after, err := versions.List(p.ID)
	require.NoError(t, err)
	assert.Len(t, after, 2, "restore must not add a version")
}

func TestRestoreMissingVersion(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "No Such Version")

	restored, err := svc.RestoreVersion(p.Slug, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestDeleteRemovesVersionsAndMedia(t *testing.T) {
	svc, versions, media := newTestService(t)
	p := mustCreate(t, svc, "Doomed")

	_, verr, err := svc.Update(p.Slug, doc("Doomed", "rev"), models.VersionTypeManual)
	require.NoError(t, err)
	require.Nil(t, verr)

	ok, err := svc.Delete(p.Slug)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"doomed"}, media.removed)

	gone, err := svc.GetBySlug(p.Slug, true)
	require.NoError(t, err)
	assert.Nil(t, gone)

	list, err := versions.List(p.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBulkDeleteReportsMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := mustCreate(t, svc, "Keep Me Not")
	b := mustCreate(t, svc, "Me Neither")

	result, err := svc.BulkDelete([]string{a.Slug, "ghost", b.Slug})
	require.NoError(t, err)
	assert.Equal(t, []string{a.Slug, b.Slug}, result.Deleted)
	assert.Equal(t, []string{"ghost"}, result.Missing)
}

func TestSlugNotReusedAfterDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	first := mustCreate(t, svc, "Hello World")

	ok, err := svc.Delete(first.Slug)
	require.NoError(t, err)
	require.True(t, ok)

	// the dead row still owns the slug column, so the new post
	// must get a suffix instead of a constraint error
	second := mustCreate(t, svc, "Hello World")
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "hello-world-"))
}

func TestAutosaveSaverReportsMissingPost(t *testing.T) {
	svc, _, _ := newTestService(t)

	save := NewAutosaveSaver(svc, nil, "ghost")
	err := save(autosave.Payload{Content: doc("Ghost", "body")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestAutosaveSaverDropsSessionOnRename(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "Old Name")

	var mgr *autosave.Manager
	mgr = autosave.NewManager(time.Hour, time.Hour, func(slug string) autosave.SaveFunc {
		return NewAutosaveSaver(svc, mgr, slug)
	})
	defer mgr.CloseAll()

	session := mgr.Session(p.Slug)
	session.Submit(doc("Brand New Name", "body"), nil)
	session.Flush()

	st := session.State()
	require.NotNil(t, st.LastSaved)
	assert.Empty(t, st.Error)

	renamed, err := svc.GetBySlug("brand-new-name", true)
	require.NoError(t, err)
	require.NotNil(t, renamed)

	assert.Nil(t, mgr.Peek(p.Slug), "session keyed by the old slug must be dropped")
}

func TestListPublicOnlyShowsPublished(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "Draft One")
	published := mustCreate(t, svc, "Published One")
	_, err := svc.Publish(published.Slug)
	require.NoError(t, err)

	posts, pag, err := svc.List(pagination.Query{Page: 1, Size: 10}, ListQuery{}, false)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "published-one", posts[0].Slug)
	assert.Equal(t, int64(1), pag.Total)

	all, pag, err := svc.List(pagination.Query{Page: 1, Size: 10}, ListQuery{}, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), pag.Total)
}

func TestListFiltersByTag(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "Tagged Post")

	other, verr, err := svc.Create(`---
title: "Untagged Post"
excerpt: "e"
category: "notes"
tags: ["misc"]
date: "2026-08-30"
---

body`)
	require.NoError(t, err)
	require.Nil(t, verr)

	tag := "go"
	posts, pag, err := svc.List(pagination.Query{Page: 1, Size: 10}, ListQuery{Tag: &tag}, true)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "tagged-post", posts[0].Slug)
	assert.Equal(t, int64(1), pag.Total)
	assert.NotEqual(t, other.Slug, posts[0].Slug)
}

func TestLikeAndReadCounters(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "Counted")
	_, err := svc.Publish(p.Slug)
	require.NoError(t, err)

	liked, err := svc.Like(p.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	svc.IncrementRead(p.ID)
	got, err := svc.GetBySlug(p.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReadCount)
}

func TestLikeDraftNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustCreate(t, svc, "Hidden Draft")

	liked, err := svc.Like(p.Slug)
	require.NoError(t, err)
	assert.Nil(t, liked)
}

func TestTagsAndCategories(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, "First")
	mustCreate(t, svc, "Second")

	tags, err := svc.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, TagCount{Name: "go", Count: 2}, tags[0])
	assert.Equal(t, TagCount{Name: "testing", Count: 2}, tags[1])

	cats, err := svc.Categories()
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "notes", cats[0].Name)
	assert.Equal(t, 2, cats[0].Count)
}

package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/edushare-api/internal/domain"
	"github.com/phrazzld/edushare-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	mentor := createTestUser(t, db, domain.RoleMentor)
	created := createTestPlaylist(t, db, mentor.ID, "c", "a", "b")
	s := NewPlaylistStore(db, SQLite, discardLogger())

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.ExternalID, got.ExternalID)
	assert.Equal(t, mentor.ID, got.MentorID)
	assert.Equal(t, []string{"c", "a", "b"}, got.VideoIDs(), "videos keep playlist order")

	ids, err := s.ListByMentor(ctx, mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{created.ID}, ids)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrPlaylistNotFound)
}

func TestPlaylistStore_CreateUnknownMentor(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	s := NewPlaylistStore(db, SQLite, discardLogger())

	p, err := domain.NewPlaylist(uuid.New(), "", "https://www.youtube.com/playlist?list=PLx",
		[]domain.PlaylistVideo{{VideoID: "v"}})
	require.NoError(t, err)

	err = s.Create(context.Background(), p)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPlaylistStore_DeleteCascadesRecords(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	mentor := createTestUser(t, db, domain.RoleMentor)
	p := createTestPlaylist(t, db, mentor.ID, "v1")
	s := NewPlaylistStore(db, SQLite, discardLogger())
	records := NewEnrichmentStore(db, SQLite, discardLogger())

	_, err := records.CreateOrGet(ctx, "v1", p.ID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, p.ID))
	assert.ErrorIs(t, s.Delete(ctx, p.ID), store.ErrPlaylistNotFound)

	_, err = records.Get(ctx, "v1", p.ID)
	assert.ErrorIs(t, err, store.ErrEnrichmentRecordNotFound)
}

func TestEnrollmentStore(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	mentor := createTestUser(t, db, domain.RoleMentor)
	student := createTestUser(t, db, domain.RoleStudent)
	p := createTestPlaylist(t, db, mentor.ID, "v1")
	s := NewEnrollmentStore(db, SQLite, discardLogger())

	require.NoError(t, s.Enroll(ctx, student.ID, p.ID))
	require.NoError(t, s.Enroll(ctx, student.ID, p.ID), "enrolling twice is a no-op")

	n, err := s.CountEnrolled(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	followed, err := s.ListFollowedPlaylists(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, followed)

	users, err := s.ListEnrolledUsers(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{student.ID}, users)

	removed, err := s.Unenroll(ctx, student.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Unenroll(ctx, student.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.ErrorIs(t, s.Enroll(ctx, student.ID, uuid.New()), store.ErrInvalidEntity)
}

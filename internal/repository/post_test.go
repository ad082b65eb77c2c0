package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"postboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{Title: "Test Post", Content: "Content", OwnerID: 7}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_Mock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT posts\.\*, COUNT\(votes\.post_id\) AS votes FROM "posts" LEFT JOIN votes ON votes\.post_id = posts\.id WHERE posts\.id = \$1 GROUP BY`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "owner_id", "votes"}).
			AddRow(5, "Hello", "World", 9, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(9, "owner@example.com"))

	post, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), post.Votes)
	assert.Equal(t, "owner@example.com", post.Owner.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_FindForUpdate_Locks(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE "posts"\."id" = \$1 LIMIT \$2 FOR UPDATE`).
		WithArgs(4, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(4, 2))

	post, err := repo.FindForUpdate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint(2), post.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_EscapesSearch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`WHERE posts\.title LIKE \$1 ESCAPE '\\' GROUP BY .* ORDER BY posts\.id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(`%50\%\_off%`, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := repo.List(context.Background(), ListOptions{Limit: 10, Offset: 20, Search: "50%_off"})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NotNil(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}

func TestPostRepository_SQLite_VoteCountsAndOwner(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	first := seedPost(t, db, alice, "First")
	second := seedPost(t, db, bob, "Second")

	votes := NewVoteRepository(db)
	require.NoError(t, votes.Create(ctx, &models.Vote{PostID: first.ID, UserID: alice.ID}))
	require.NoError(t, votes.Create(ctx, &models.Vote{PostID: first.ID, UserID: bob.ID}))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Votes)
	assert.Equal(t, "alice@example.com", got.Owner.Email)
	assert.False(t, got.Published)

	list, err := repo.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, int64(2), list[0].Votes)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, int64(0), list[1].Votes, "posts without votes still appear")
	assert.Equal(t, "bob@example.com", list[1].Owner.Email)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_SQLite_Search(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	seedPost(t, db, owner, "Go Tips")
	seedPost(t, db, owner, "go routines")
	seedPost(t, db, owner, "100% coverage")
	seedPost(t, db, owner, "1000 coverage")

	titles := func(posts []*models.Post) []string {
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.Title)
		}
		return out
	}

	sensitive, err := repo.List(ctx, ListOptions{Limit: 10, Search: "Go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Tips"}, titles(sensitive))

	insensitive, err := repo.List(ctx, ListOptions{Limit: 10, Search: "go", CaseInsensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Tips", "go routines"}, titles(insensitive))

	literal, err := repo.List(ctx, ListOptions{Limit: 10, Search: "0%", CaseInsensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% coverage"}, titles(literal))

	paged, err := repo.List(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"go routines", "100% coverage"}, titles(paged))
}

func TestPostRepository_SQLite_UpdateAndDelete(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	post := seedPost(t, db, owner, "Draft")

	now := time.Now().UTC().Truncate(time.Second)
	published := true
	require.NoError(t, repo.Update(ctx, post.ID, PostChanges{Title: "Final", Content: "Body", Published: &published, UpdatedAt: now}))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.True(t, got.Published)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(now))

	// A nil Published keeps the stored value.
	require.NoError(t, repo.Update(ctx, post.ID, PostChanges{Title: "Final 2", Content: "Body", UpdatedAt: now}))
	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.Published)

	err = repo.Update(ctx, 9999, PostChanges{Title: "x", Content: "y", UpdatedAt: now})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, NewVoteRepository(db).Create(ctx, &models.Vote{PostID: post.ID, UserID: owner.ID}))
	require.NoError(t, repo.Delete(ctx, post.ID))

	exists, err := repo.Exists(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	voted, err := NewVoteRepository(db).Exists(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, voted, "votes cascade with their post")

	assert.True(t, models.HasCode(repo.Delete(ctx, post.ID), models.CodeNotFound))

	locked, err := repo.FindForUpdate(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, locked)
}

package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

func TestWhereBuilder_Predicate(t *testing.T) {
	t.Run("match all adds nothing", func(t *testing.T) {
		var w whereBuilder
		w.predicate(musicbox.MatchAll, true)
		assert.Equal(t, "", w.String())
		assert.Empty(t, w.args)
	})

	t.Run("anonymous on artists", func(t *testing.T) {
		var w whereBuilder
		w.eq("id", int64(7))
		w.predicate(musicbox.Resolve(musicbox.Anonymous()), false)

		assert.Equal(t, " WHERE id = $1 AND (status = ANY($2))", w.String())
		assert.Equal(t, []any{int64(7), []string{"approved"}}, w.args)
	})

	t.Run("artist viewer on songs", func(t *testing.T) {
		var w whereBuilder
		w.eq("album_id", int64(3))
		w.predicate(musicbox.Resolve(musicbox.NewViewer(musicbox.RoleArtist, 11)), true)

		assert.Equal(t,
			" WHERE album_id = $1 AND (status = ANY($2) OR artist_id IN (SELECT id FROM artists WHERE user_id = $3))",
			w.String())
		assert.Equal(t, []any{int64(3), []string{"approved", "deleted"}, int64(11)}, w.args)
	})

	t.Run("artist viewer on artists", func(t *testing.T) {
		var w whereBuilder
		w.predicate(musicbox.Resolve(musicbox.NewViewer(musicbox.RoleArtist, 11)), false)
		assert.Equal(t, " WHERE (status = ANY($1) OR user_id = $2)", w.String())
	})

	t.Run("empty predicate matches nothing", func(t *testing.T) {
		var w whereBuilder
		w.predicate(musicbox.Predicate{}, true)
		assert.Equal(t, " WHERE FALSE", w.String())
	})
}

func TestWhereBuilder_Set(t *testing.T) {
	var w whereBuilder
	var sets []string
	w.set(&sets, "name", "Renamed")
	w.set(&sets, "status", musicbox.StatusApproved)
	w.eq("id", int64(4))

	assert.Equal(t, []string{"name = $1", "status = $2"}, sets)
	assert.Equal(t, " WHERE id = $3", w.String())
	assert.Equal(t, []any{"Renamed", musicbox.StatusApproved, int64(4)}, w.args)
}

func TestHandlePostgresError(t *testing.T) {
	t.Run("no rows maps to the given not found", func(t *testing.T) {
		err := handlePostgresError("get artist", pgx.ErrNoRows, musicbox.ErrArtistNotFound)
		assert.ErrorIs(t, err, musicbox.ErrArtistNotFound)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		err := handlePostgresError("create user", pgError("23505"), nil)
		assert.ErrorIs(t, err, musicbox.ErrConflict)
	})

	t.Run("foreign key violation is a conflict", func(t *testing.T) {
		err := handlePostgresError("create album", pgError("23503"), nil)
		assert.ErrorIs(t, err, musicbox.ErrConflict)
	})

	t.Run("not null violation is a validation error", func(t *testing.T) {
		err := handlePostgresError("create song", pgError("23502"), nil)
		assert.ErrorIs(t, err, musicbox.ErrValidation)
	})
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code, Message: "test", ConstraintName: "test_constraint", ColumnName: "name"}
}

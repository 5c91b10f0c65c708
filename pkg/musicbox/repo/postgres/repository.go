package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements musicbox.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return handlePostgresError("migrate", err, nil)
	}
	return nil
}

// handlePostgresError maps driver errors onto musicbox error kinds. notFound
// is returned for pgx.ErrNoRows.
func handlePostgresError(operation string, err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: duplicate entry (%s)", musicbox.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced record not found (%s)", musicbox.ErrConflict, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", musicbox.ErrValidation, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// whereBuilder collects AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) eq(column string, v any) {
	w.conds = append(w.conds, column+" = "+w.arg(v))
}

// predicate adds the visibility filter. Artist rows carry user_id themselves;
// albums and songs reach it through their artist.
func (w *whereBuilder) predicate(pred musicbox.Predicate, viaArtist bool) {
	if pred.All {
		return
	}

	var alts []string
	if len(pred.Statuses) > 0 {
		statuses := make([]string, len(pred.Statuses))
		for i, s := range pred.Statuses {
			statuses[i] = string(s)
		}
		alts = append(alts, "status = ANY("+w.arg(statuses)+")")
	}
	if pred.OwnerUserID != nil {
		if viaArtist {
			alts = append(alts, "artist_id IN (SELECT id FROM artists WHERE user_id = "+w.arg(*pred.OwnerUserID)+")")
		} else {
			alts = append(alts, "user_id = "+w.arg(*pred.OwnerUserID))
		}
	}

	if len(alts) == 0 {
		w.conds = append(w.conds, "FALSE")
		return
	}
	w.conds = append(w.conds, "("+strings.Join(alts, " OR ")+")")
}

// set appends a "column = $n" assignment for an UPDATE.
func (w *whereBuilder) set(assignments *[]string, column string, v any) {
	*assignments = append(*assignments, column+" = "+w.arg(v))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// User operations

const userColumns = `id, email, name, role, avatar, created_at, updated_at`

func scanUser(row pgx.Row) (*musicbox.User, error) {
	var u musicbox.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *musicbox.User) error {
	query := `
		INSERT INTO users (email, name, role, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		user.Email, user.Name, user.Role, user.Avatar, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		return handlePostgresError("create user", err, nil)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*musicbox.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("get user", err, musicbox.ErrUserNotFound)
	}
	return user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*musicbox.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list users", err, nil)
	}
	defer rows.Close()

	var users []*musicbox.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, handlePostgresError("list users", err, nil)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) SetUserRole(ctx context.Context, id int64, role musicbox.Role) (musicbox.Role, error) {
	query := `
		UPDATE users u SET role = $2, updated_at = NOW()
		FROM (SELECT id, role FROM users WHERE id = $1 FOR UPDATE) old
		WHERE u.id = old.id
		RETURNING old.role`

	var from musicbox.Role
	if err := r.db.QueryRow(ctx, query, id, role).Scan(&from); err != nil {
		return "", handlePostgresError("set user role", err, musicbox.ErrUserNotFound)
	}
	return from, nil
}

func (r *Repository) SetUserAvatar(ctx context.Context, id int64, storedName *string) (*string, error) {
	return r.swapColumn(ctx, "users", "avatar", id, storedName, musicbox.ErrUserNotFound)
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) (*musicbox.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("delete user", err, musicbox.ErrUserNotFound)
	}
	return user, nil
}

// Artist operations

const artistColumns = `id, user_id, name, description, status, avatar, cover, created_at, updated_at`

func scanArtist(row pgx.Row) (*musicbox.Artist, error) {
	var a musicbox.Artist
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Status,
		&a.Avatar, &a.Cover, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateArtist(ctx context.Context, artist *musicbox.Artist) error {
	query := `
		INSERT INTO artists (user_id, name, description, status, avatar, cover, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		artist.UserID, artist.Name, artist.Description, artist.Status,
		artist.Avatar, artist.Cover, artist.CreatedAt, artist.UpdatedAt).Scan(&artist.ID)
	if err != nil {
		return handlePostgresError("create artist", err, nil)
	}
	return nil
}

func (r *Repository) GetArtist(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Artist, error) {
	var w whereBuilder
	w.eq("id", id)
	w.predicate(pred, false)

	artist, err := scanArtist(r.db.QueryRow(ctx, `SELECT `+artistColumns+` FROM artists`+w.String(), w.args...))
	if err != nil {
		return nil, handlePostgresError("get artist", err, musicbox.ErrArtistNotFound)
	}
	return artist, nil
}

func (r *Repository) GetArtistByUserID(ctx context.Context, userID int64) (*musicbox.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE user_id = $1`

	artist, err := scanArtist(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, handlePostgresError("get artist by user", err, musicbox.ErrArtistNotFound)
	}
	return artist, nil
}

func (r *Repository) ListArtists(ctx context.Context, pred musicbox.Predicate) ([]*musicbox.Artist, error) {
	var w whereBuilder
	w.predicate(pred, false)

	rows, err := r.db.Query(ctx, `SELECT `+artistColumns+` FROM artists`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, handlePostgresError("list artists", err, nil)
	}
	defer rows.Close()

	var artists []*musicbox.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, handlePostgresError("list artists", err, nil)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

func (r *Repository) UpdateArtist(ctx context.Context, id int64, fields musicbox.ArtistFields) (*musicbox.Artist, error) {
	var w whereBuilder
	var sets []string
	if fields.Name != nil {
		w.set(&sets, "name", *fields.Name)
	}
	if fields.Description != nil {
		w.set(&sets, "description", *fields.Description)
	}
	if fields.Status != nil {
		w.set(&sets, "status", *fields.Status)
	}
	sets = append(sets, "updated_at = NOW()")
	w.eq("id", id)

	query := `UPDATE artists SET ` + strings.Join(sets, ", ") + w.String() + ` RETURNING ` + artistColumns
	artist, err := scanArtist(r.db.QueryRow(ctx, query, w.args...))
	if err != nil {
		return nil, handlePostgresError("update artist", err, musicbox.ErrArtistNotFound)
	}
	return artist, nil
}

func (r *Repository) SetArtistFile(ctx context.Context, id int64, typ musicbox.ResourceType, storedName *string) (*string, error) {
	var column string
	switch typ {
	case musicbox.ResourceAvatar:
		column = "avatar"
	case musicbox.ResourceCover:
		column = "cover"
	default:
		return nil, fmt.Errorf("%w: artists have no %q resource", musicbox.ErrValidation, typ)
	}
	return r.swapColumn(ctx, "artists", column, id, storedName, musicbox.ErrArtistNotFound)
}

func (r *Repository) DeleteArtist(ctx context.Context, id int64) (*musicbox.Artist, error) {
	query := `DELETE FROM artists WHERE id = $1 RETURNING ` + artistColumns

	artist, err := scanArtist(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("delete artist", err, musicbox.ErrArtistNotFound)
	}
	return artist, nil
}

// Album operations

const albumColumns = `id, artist_id, name, status, cover, created_at, updated_at`

func scanAlbum(row pgx.Row) (*musicbox.Album, error) {
	var a musicbox.Album
	err := row.Scan(&a.ID, &a.ArtistID, &a.Name, &a.Status, &a.Cover, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateAlbum(ctx context.Context, album *musicbox.Album) error {
	query := `
		INSERT INTO albums (artist_id, name, status, cover, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		album.ArtistID, album.Name, album.Status, album.Cover, album.CreatedAt, album.UpdatedAt).Scan(&album.ID)
	if err != nil {
		return handlePostgresError("create album", err, nil)
	}
	return nil
}

func (r *Repository) GetAlbum(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Album, error) {
	var w whereBuilder
	w.eq("id", id)
	w.predicate(pred, true)

	album, err := scanAlbum(r.db.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums`+w.String(), w.args...))
	if err != nil {
		return nil, handlePostgresError("get album", err, musicbox.ErrAlbumNotFound)
	}
	return album, nil
}

func (r *Repository) ListAlbums(ctx context.Context, filter musicbox.AlbumFilter, pred musicbox.Predicate) ([]*musicbox.Album, error) {
	var w whereBuilder
	if filter.ArtistID != nil {
		w.eq("artist_id", *filter.ArtistID)
	}
	w.predicate(pred, true)

	rows, err := r.db.Query(ctx, `SELECT `+albumColumns+` FROM albums`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, handlePostgresError("list albums", err, nil)
	}
	defer rows.Close()

	var albums []*musicbox.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, handlePostgresError("list albums", err, nil)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

func (r *Repository) UpdateAlbum(ctx context.Context, id int64, fields musicbox.AlbumFields) (*musicbox.Album, error) {
	var w whereBuilder
	var sets []string
	if fields.Name != nil {
		w.set(&sets, "name", *fields.Name)
	}
	if fields.Status != nil {
		w.set(&sets, "status", *fields.Status)
	}
	sets = append(sets, "updated_at = NOW()")
	w.eq("id", id)

	query := `UPDATE albums SET ` + strings.Join(sets, ", ") + w.String() + ` RETURNING ` + albumColumns
	album, err := scanAlbum(r.db.QueryRow(ctx, query, w.args...))
	if err != nil {
		return nil, handlePostgresError("update album", err, musicbox.ErrAlbumNotFound)
	}
	return album, nil
}

func (r *Repository) SetAlbumCover(ctx context.Context, id int64, storedName *string) (*string, error) {
	return r.swapColumn(ctx, "albums", "cover", id, storedName, musicbox.ErrAlbumNotFound)
}

func (r *Repository) DeleteAlbum(ctx context.Context, id int64) (*musicbox.Album, error) {
	query := `DELETE FROM albums WHERE id = $1 RETURNING ` + albumColumns

	album, err := scanAlbum(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("delete album", err, musicbox.ErrAlbumNotFound)
	}
	return album, nil
}

// Song operations

const songColumns = `id, artist_id, album_id, name, text, explicit, listens, status, cover, audio, created_at, updated_at`

func scanSong(row pgx.Row) (*musicbox.Song, error) {
	var s musicbox.Song
	err := row.Scan(&s.ID, &s.ArtistID, &s.AlbumID, &s.Name, &s.Text, &s.Explicit,
		&s.Listens, &s.Status, &s.Cover, &s.Audio, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) CreateSong(ctx context.Context, song *musicbox.Song) error {
	query := `
		INSERT INTO songs (artist_id, album_id, name, text, explicit, listens, status, cover, audio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		song.ArtistID, song.AlbumID, song.Name, song.Text, song.Explicit, song.Listens,
		song.Status, song.Cover, song.Audio, song.CreatedAt, song.UpdatedAt).Scan(&song.ID)
	if err != nil {
		return handlePostgresError("create song", err, nil)
	}
	return nil
}

func (r *Repository) GetSong(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Song, error) {
	var w whereBuilder
	w.eq("id", id)
	w.predicate(pred, true)

	song, err := scanSong(r.db.QueryRow(ctx, `SELECT `+songColumns+` FROM songs`+w.String(), w.args...))
	if err != nil {
		return nil, handlePostgresError("get song", err, musicbox.ErrSongNotFound)
	}
	return song, nil
}

func (r *Repository) ListSongs(ctx context.Context, filter musicbox.SongFilter, pred musicbox.Predicate) ([]*musicbox.Song, error) {
	var w whereBuilder
	if filter.ArtistID != nil {
		w.eq("artist_id", *filter.ArtistID)
	}
	if filter.AlbumID != nil {
		w.eq("album_id", *filter.AlbumID)
	}
	w.predicate(pred, true)

	rows, err := r.db.Query(ctx, `SELECT `+songColumns+` FROM songs`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, handlePostgresError("list songs", err, nil)
	}
	defer rows.Close()

	var songs []*musicbox.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, handlePostgresError("list songs", err, nil)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (r *Repository) UpdateSong(ctx context.Context, id int64, fields musicbox.SongFields) (*musicbox.Song, error) {
	var w whereBuilder
	var sets []string
	switch {
	case fields.DetachAlbum:
		sets = append(sets, "album_id = NULL")
	case fields.AlbumID != nil:
		w.set(&sets, "album_id", *fields.AlbumID)
	}
	if fields.Name != nil {
		w.set(&sets, "name", *fields.Name)
	}
	if fields.Text != nil {
		w.set(&sets, "text", *fields.Text)
	}
	if fields.Explicit != nil {
		w.set(&sets, "explicit", *fields.Explicit)
	}
	if fields.Status != nil {
		w.set(&sets, "status", *fields.Status)
	}
	sets = append(sets, "updated_at = NOW()")
	w.eq("id", id)

	query := `UPDATE songs SET ` + strings.Join(sets, ", ") + w.String() + ` RETURNING ` + songColumns
	song, err := scanSong(r.db.QueryRow(ctx, query, w.args...))
	if err != nil {
		return nil, handlePostgresError("update song", err, musicbox.ErrSongNotFound)
	}
	return song, nil
}

func (r *Repository) SetSongFile(ctx context.Context, id int64, typ musicbox.ResourceType, storedName *string) (*string, error) {
	var column string
	switch typ {
	case musicbox.ResourceCover:
		column = "cover"
	case musicbox.ResourceAudio:
		column = "audio"
	default:
		return nil, fmt.Errorf("%w: songs have no %q resource", musicbox.ErrValidation, typ)
	}
	return r.swapColumn(ctx, "songs", column, id, storedName, musicbox.ErrSongNotFound)
}

func (r *Repository) DeleteSong(ctx context.Context, id int64) (*musicbox.Song, error) {
	query := `DELETE FROM songs WHERE id = $1 RETURNING ` + songColumns

	song, err := scanSong(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("delete song", err, musicbox.ErrSongNotFound)
	}
	return song, nil
}

// swapColumn writes one file column and returns the value it replaced. The
// row lock in the subquery orders concurrent swaps of the same row.
// table and column are never caller input.
func (r *Repository) swapColumn(ctx context.Context, table, column string, id int64, storedName *string, notFound error) (*string, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s t SET %[2]s = $2, updated_at = NOW()
		FROM (SELECT id, %[2]s FROM %[1]s WHERE id = $1 FOR UPDATE) old
		WHERE t.id = old.id
		RETURNING old.%[2]s`, table, column)

	var previous *string
	if err := r.db.QueryRow(ctx, query, id, storedName).Scan(&previous); err != nil {
		return nil, handlePostgresError("set "+table+"."+column, err, notFound)
	}
	return previous, nil
}

// Library operations

func (r *Repository) AddLibraryArtist(ctx context.Context, userID, artistID int64) error {
	query := `INSERT INTO user_artists (user_id, artist_id, created_at) VALUES ($1, $2, NOW())`

	if _, err := r.db.Exec(ctx, query, userID, artistID); err != nil {
		return handlePostgresError("add library artist", err, nil)
	}
	return nil
}

func (r *Repository) RemoveLibraryArtist(ctx context.Context, userID, artistID int64) error {
	query := `DELETE FROM user_artists WHERE user_id = $1 AND artist_id = $2`

	tag, err := r.db.Exec(ctx, query, userID, artistID)
	if err != nil {
		return handlePostgresError("remove library artist", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return musicbox.ErrLibraryEntryNotFound
	}
	return nil
}

func (r *Repository) ListLibraryArtists(ctx context.Context, userID int64, pred musicbox.Predicate) ([]*musicbox.Artist, error) {
	var w whereBuilder
	w.conds = append(w.conds, "id IN (SELECT artist_id FROM user_artists WHERE user_id = "+w.arg(userID)+")")
	w.predicate(pred, false)

	rows, err := r.db.Query(ctx, `SELECT `+artistColumns+` FROM artists`+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, handlePostgresError("list library artists", err, nil)
	}
	defer rows.Close()

	var artists []*musicbox.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, handlePostgresError("list library artists", err, nil)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

var _ musicbox.Repository = (*Repository)(nil)

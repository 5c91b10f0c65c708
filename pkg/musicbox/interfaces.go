package musicbox

import (
	"context"
	"io"
)

// BlobStore defines the interface for storage backends. Keys are slash
// separated paths; directories are implied by key prefixes.
type BlobStore interface {
	// Upload writes the reader's bytes to params.ObjectKey, replacing any object there
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download returns the object's bytes, or an error wrapping ErrObjectNotFound
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key succeeds.
	Delete(ctx context.Context, objectKey string) error

	// DeleteDirIfEmpty removes dir when nothing is stored below it
	DeleteDirIfEmpty(ctx context.Context, dir string) error

	// List returns the keys stored below prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Size      int64
}

// AlbumFilter narrows album listings. Nil fields are ignored.
type AlbumFilter struct {
	ArtistID *int64
}

// SongFilter narrows song listings. Nil fields are ignored.
type SongFilter struct {
	ArtistID *int64
	AlbumID  *int64
}

// ArtistFields holds the artist columns an update may change. Nil fields keep
// their stored value.
type ArtistFields struct {
	Name        *string
	Description *string
	Status      *Status
}

// AlbumFields holds the album columns an update may change.
type AlbumFields struct {
	Name   *string
	Status *Status
}

// SongFields holds the song columns an update may change. DetachAlbum clears
// album_id and wins over AlbumID.
type SongFields struct {
	AlbumID     *int64
	DetachAlbum bool
	Name        *string
	Text        *string
	Explicit    *bool
	Status      *Status
}

// Repository defines the interface for catalogue persistence. Lookups of
// absent rows return errors wrapping ErrNotFound; reads that take a Predicate
// treat rows outside it as absent.
//
// Updates are column scoped: each one writes only the columns it names, so
// concurrent updates of different columns of a row never overwrite each
// other. The Set* file methods return the stored name they replaced.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	// SetUserRole writes the role column and returns the role it replaced
	SetUserRole(ctx context.Context, id int64, role Role) (Role, error)
	SetUserAvatar(ctx context.Context, id int64, storedName *string) (*string, error)
	// DeleteUser removes the user and cascades to its artist, albums, songs and library
	DeleteUser(ctx context.Context, id int64) (*User, error)

	// Artist operations
	CreateArtist(ctx context.Context, artist *Artist) error
	GetArtist(ctx context.Context, id int64, pred Predicate) (*Artist, error)
	GetArtistByUserID(ctx context.Context, userID int64) (*Artist, error)
	ListArtists(ctx context.Context, pred Predicate) ([]*Artist, error)
	UpdateArtist(ctx context.Context, id int64, fields ArtistFields) (*Artist, error)
	// SetArtistFile writes the avatar or cover column
	SetArtistFile(ctx context.Context, id int64, typ ResourceType, storedName *string) (*string, error)
	// DeleteArtist removes the artist with its albums and songs and returns the deleted row
	DeleteArtist(ctx context.Context, id int64) (*Artist, error)

	// Album operations
	CreateAlbum(ctx context.Context, album *Album) error
	GetAlbum(ctx context.Context, id int64, pred Predicate) (*Album, error)
	ListAlbums(ctx context.Context, filter AlbumFilter, pred Predicate) ([]*Album, error)
	UpdateAlbum(ctx context.Context, id int64, fields AlbumFields) (*Album, error)
	SetAlbumCover(ctx context.Context, id int64, storedName *string) (*string, error)
	// DeleteAlbum removes the album; its songs are kept and detached
	DeleteAlbum(ctx context.Context, id int64) (*Album, error)

	// Song operations
	CreateSong(ctx context.Context, song *Song) error
	GetSong(ctx context.Context, id int64, pred Predicate) (*Song, error)
	ListSongs(ctx context.Context, filter SongFilter, pred Predicate) ([]*Song, error)
	UpdateSong(ctx context.Context, id int64, fields SongFields) (*Song, error)
	// SetSongFile writes the cover or audio column
	SetSongFile(ctx context.Context, id int64, typ ResourceType, storedName *string) (*string, error)
	DeleteSong(ctx context.Context, id int64) (*Song, error)

	// Library operations. A user keeps at most one link per artist; adding
	// an existing link returns an error wrapping ErrConflict.
	AddLibraryArtist(ctx context.Context, userID, artistID int64) error
	RemoveLibraryArtist(ctx context.Context, userID, artistID int64) error
	ListLibraryArtists(ctx context.Context, userID int64, pred Predicate) ([]*Artist, error)
}

// EventSink receives lifecycle notifications. Errors are logged and never
// fail the operation that fired the event.
type EventSink interface {
	ArtistCreated(ctx context.Context, artist *Artist) error
	ArtistRemoved(ctx context.Context, artist *Artist) error
	RoleChanged(ctx context.Context, userID int64, from, to Role) error
	CleanupFailed(ctx context.Context, key string, err error) error
}

package musicbox

import "context"

// Service defines the catalogue operations. Reads take the Viewer they are
// performed for. Catalogue mutations are administrative and take no viewer;
// the library and profile operations act on behalf of the signed-in viewer.
type Service interface {
	// Artist operations
	CreateArtist(ctx context.Context, req CreateArtistRequest) (*Artist, error)
	GetArtist(ctx context.Context, id int64, viewer Viewer) (*ArtistDetails, error)
	ListArtists(ctx context.Context, viewer Viewer) ([]*Artist, error)
	UpdateArtist(ctx context.Context, req UpdateArtistRequest) (*Artist, error)
	RemoveArtist(ctx context.Context, id int64) error
	RemoveArtistResource(ctx context.Context, id int64, typ ResourceType) error
	ArtistFile(ctx context.Context, id int64, typ ResourceType, viewer Viewer) ([]byte, error)

	// Album operations
	CreateAlbum(ctx context.Context, req CreateAlbumRequest) (*Album, error)
	GetAlbum(ctx context.Context, id int64, viewer Viewer) (*AlbumDetails, error)
	ListAlbums(ctx context.Context, filter AlbumFilter, viewer Viewer) ([]*Album, error)
	UpdateAlbum(ctx context.Context, req UpdateAlbumRequest) (*Album, error)
	RemoveAlbum(ctx context.Context, id int64) error
	RemoveAlbumCover(ctx context.Context, id int64) error
	AlbumCover(ctx context.Context, id int64, viewer Viewer) ([]byte, error)

	// Song operations
	CreateSong(ctx context.Context, req CreateSongRequest) (*Song, error)
	GetSong(ctx context.Context, id int64, viewer Viewer) (*Song, error)
	ListSongs(ctx context.Context, filter SongFilter, viewer Viewer) ([]*Song, error)
	UpdateSong(ctx context.Context, req UpdateSongRequest) (*Song, error)
	RemoveSong(ctx context.Context, id int64) error
	RemoveSongCover(ctx context.Context, id int64) error
	SongFile(ctx context.Context, id int64, typ ResourceType, viewer Viewer) ([]byte, error)

	// User operations
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUserRole(ctx context.Context, id int64, role Role) (*User, error)
	RemoveUser(ctx context.Context, id int64) error
	SetUserAvatar(ctx context.Context, id int64, file *File) (*User, error)
	RemoveUserAvatar(ctx context.Context, id int64) error
	UserAvatar(ctx context.Context, id int64) ([]byte, error)

	// Library operations. The library is the set of artists a user follows.
	Library(ctx context.Context, viewer Viewer) ([]*Artist, error)
	AddToLibrary(ctx context.Context, viewer Viewer, artistID int64) error
	RemoveFromLibrary(ctx context.Context, viewer Viewer, artistID int64) error

	// Profile operations act on the artist owned by the viewer
	GetProfile(ctx context.Context, viewer Viewer) (*ArtistDetails, error)
	CreateProfile(ctx context.Context, viewer Viewer, req ProfileRequest) (*Artist, error)
	UpdateProfile(ctx context.Context, viewer Viewer, req ProfileRequest) (*Artist, error)

	// Maintenance
	SweepOrphans(ctx context.Context) (*SweepReport, error)
}

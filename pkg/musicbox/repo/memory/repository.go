package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

// Repository implements musicbox.Repository using in-memory storage. Deletes
// cascade the way the postgres schema does.
type Repository struct {
	mu      sync.RWMutex
	users   map[int64]*musicbox.User
	artists map[int64]*musicbox.Artist
	albums  map[int64]*musicbox.Album
	songs   map[int64]*musicbox.Song
	library map[libraryKey]time.Time
	lastID  struct{ user, artist, album, song int64 }
}

type libraryKey struct{ userID, artistID int64 }

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:   make(map[int64]*musicbox.User),
		artists: make(map[int64]*musicbox.Artist),
		albums:  make(map[int64]*musicbox.Album),
		songs:   make(map[int64]*musicbox.Song),
		library: make(map[libraryKey]time.Time),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *musicbox.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email %s already registered", musicbox.ErrConflict, user.Email)
		}
	}

	r.lastID.user++
	user.ID = r.lastID.user
	userCopy := *user
	r.users[user.ID] = &userCopy
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*musicbox.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, musicbox.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*musicbox.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*musicbox.User, 0, len(r.users))
	for _, user := range r.users {
		userCopy := *user
		result = append(result, &userCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) SetUserRole(ctx context.Context, id int64, role musicbox.Role) (musicbox.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return "", musicbox.ErrUserNotFound
	}
	from := user.Role
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	return from, nil
}

func (r *Repository) SetUserAvatar(ctx context.Context, id int64, storedName *string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return nil, musicbox.ErrUserNotFound
	}
	previous := user.Avatar
	user.Avatar = storedName
	user.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) (*musicbox.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return nil, musicbox.ErrUserNotFound
	}
	for _, artist := range r.artists {
		if artist.UserID == id {
			r.deleteArtistLocked(artist.ID)
		}
	}
	for key := range r.library {
		if key.userID == id {
			delete(r.library, key)
		}
	}
	delete(r.users, id)
	return user, nil
}

// Artist operations

func (r *Repository) CreateArtist(ctx context.Context, artist *musicbox.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[artist.UserID]; !exists {
		return fmt.Errorf("%w: user %d does not exist", musicbox.ErrConflict, artist.UserID)
	}
	for _, a := range r.artists {
		if a.UserID == artist.UserID {
			return fmt.Errorf("%w: user %d already has an artist", musicbox.ErrConflict, artist.UserID)
		}
	}

	r.lastID.artist++
	artist.ID = r.lastID.artist
	artistCopy := *artist
	r.artists[artist.ID] = &artistCopy
	return nil
}

func (r *Repository) GetArtist(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artist, exists := r.artists[id]
	if !exists || !pred.Matches(artist.Status, artist.UserID) {
		return nil, musicbox.ErrArtistNotFound
	}
	artistCopy := *artist
	return &artistCopy, nil
}

func (r *Repository) GetArtistByUserID(ctx context.Context, userID int64) (*musicbox.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, artist := range r.artists {
		if artist.UserID == userID {
			artistCopy := *artist
			return &artistCopy, nil
		}
	}
	return nil, musicbox.ErrArtistNotFound
}

func (r *Repository) ListArtists(ctx context.Context, pred musicbox.Predicate) ([]*musicbox.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*musicbox.Artist
	for _, artist := range r.artists {
		if pred.Matches(artist.Status, artist.UserID) {
			artistCopy := *artist
			result = append(result, &artistCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) UpdateArtist(ctx context.Context, id int64, fields musicbox.ArtistFields) (*musicbox.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artist, exists := r.artists[id]
	if !exists {
		return nil, musicbox.ErrArtistNotFound
	}
	if fields.Name != nil {
		artist.Name = *fields.Name
	}
	if fields.Description != nil {
		artist.Description = *fields.Description
	}
	if fields.Status != nil {
		artist.Status = *fields.Status
	}
	artist.UpdatedAt = time.Now().UTC()

	artistCopy := *artist
	return &artistCopy, nil
}

func (r *Repository) SetArtistFile(ctx context.Context, id int64, typ musicbox.ResourceType, storedName *string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artist, exists := r.artists[id]
	if !exists {
		return nil, musicbox.ErrArtistNotFound
	}

	var field **string
	switch typ {
	case musicbox.ResourceAvatar:
		field = &artist.Avatar
	case musicbox.ResourceCover:
		field = &artist.Cover
	default:
		return nil, fmt.Errorf("%w: artists have no %q resource", musicbox.ErrValidation, typ)
	}

	previous := *field
	*field = storedName
	artist.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func (r *Repository) DeleteArtist(ctx context.Context, id int64) (*musicbox.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artist, exists := r.artists[id]
	if !exists {
		return nil, musicbox.ErrArtistNotFound
	}
	r.deleteArtistLocked(id)
	return artist, nil
}

func (r *Repository) deleteArtistLocked(id int64) {
	for songID, song := range r.songs {
		if song.ArtistID == id {
			delete(r.songs, songID)
		}
	}
	for albumID, album := range r.albums {
		if album.ArtistID == id {
			delete(r.albums, albumID)
		}
	}
	for key := range r.library {
		if key.artistID == id {
			delete(r.library, key)
		}
	}
	delete(r.artists, id)
}

// Album operations

func (r *Repository) CreateAlbum(ctx context.Context, album *musicbox.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artists[album.ArtistID]; !exists {
		return fmt.Errorf("%w: artist %d does not exist", musicbox.ErrConflict, album.ArtistID)
	}

	r.lastID.album++
	album.ID = r.lastID.album
	albumCopy := *album
	r.albums[album.ID] = &albumCopy
	return nil
}

func (r *Repository) GetAlbum(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	album, exists := r.albums[id]
	if !exists || !pred.Matches(album.Status, r.ownerLocked(album.ArtistID)) {
		return nil, musicbox.ErrAlbumNotFound
	}
	albumCopy := *album
	return &albumCopy, nil
}

func (r *Repository) ListAlbums(ctx context.Context, filter musicbox.AlbumFilter, pred musicbox.Predicate) ([]*musicbox.Album, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*musicbox.Album
	for _, album := range r.albums {
		if filter.ArtistID != nil && album.ArtistID != *filter.ArtistID {
			continue
		}
		if !pred.Matches(album.Status, r.ownerLocked(album.ArtistID)) {
			continue
		}
		albumCopy := *album
		result = append(result, &albumCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) UpdateAlbum(ctx context.Context, id int64, fields musicbox.AlbumFields) (*musicbox.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	album, exists := r.albums[id]
	if !exists {
		return nil, musicbox.ErrAlbumNotFound
	}
	if fields.Name != nil {
		album.Name = *fields.Name
	}
	if fields.Status != nil {
		album.Status = *fields.Status
	}
	album.UpdatedAt = time.Now().UTC()

	albumCopy := *album
	return &albumCopy, nil
}

func (r *Repository) SetAlbumCover(ctx context.Context, id int64, storedName *string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	album, exists := r.albums[id]
	if !exists {
		return nil, musicbox.ErrAlbumNotFound
	}
	previous := album.Cover
	album.Cover = storedName
	album.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func (r *Repository) DeleteAlbum(ctx context.Context, id int64) (*musicbox.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	album, exists := r.albums[id]
	if !exists {
		return nil, musicbox.ErrAlbumNotFound
	}
	for _, song := range r.songs {
		if song.AlbumID != nil && *song.AlbumID == id {
			song.AlbumID = nil
		}
	}
	delete(r.albums, id)
	return album, nil
}

// Song operations

func (r *Repository) CreateSong(ctx context.Context, song *musicbox.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artists[song.ArtistID]; !exists {
		return fmt.Errorf("%w: artist %d does not exist", musicbox.ErrConflict, song.ArtistID)
	}
	if song.AlbumID != nil {
		if _, exists := r.albums[*song.AlbumID]; !exists {
			return fmt.Errorf("%w: album %d does not exist", musicbox.ErrConflict, *song.AlbumID)
		}
	}

	r.lastID.song++
	song.ID = r.lastID.song
	songCopy := *song
	r.songs[song.ID] = &songCopy
	return nil
}

func (r *Repository) GetSong(ctx context.Context, id int64, pred musicbox.Predicate) (*musicbox.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	song, exists := r.songs[id]
	if !exists || !pred.Matches(song.Status, r.ownerLocked(song.ArtistID)) {
		return nil, musicbox.ErrSongNotFound
	}
	songCopy := *song
	return &songCopy, nil
}

func (r *Repository) ListSongs(ctx context.Context, filter musicbox.SongFilter, pred musicbox.Predicate) ([]*musicbox.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*musicbox.Song
	for _, song := range r.songs {
		if filter.ArtistID != nil && song.ArtistID != *filter.ArtistID {
			continue
		}
		if filter.AlbumID != nil && (song.AlbumID == nil || *song.AlbumID != *filter.AlbumID) {
			continue
		}
		if !pred.Matches(song.Status, r.ownerLocked(song.ArtistID)) {
			continue
		}
		songCopy := *song
		result = append(result, &songCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) UpdateSong(ctx context.Context, id int64, fields musicbox.SongFields) (*musicbox.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, exists := r.songs[id]
	if !exists {
		return nil, musicbox.ErrSongNotFound
	}
	switch {
	case fields.DetachAlbum:
		song.AlbumID = nil
	case fields.AlbumID != nil:
		if _, exists := r.albums[*fields.AlbumID]; !exists {
			return nil, fmt.Errorf("%w: album %d does not exist", musicbox.ErrConflict, *fields.AlbumID)
		}
		albumID := *fields.AlbumID
		song.AlbumID = &albumID
	}
	if fields.Name != nil {
		song.Name = *fields.Name
	}
	if fields.Text != nil {
		song.Text = *fields.Text
	}
	if fields.Explicit != nil {
		song.Explicit = *fields.Explicit
	}
	if fields.Status != nil {
		song.Status = *fields.Status
	}
	song.UpdatedAt = time.Now().UTC()

	songCopy := *song
	return &songCopy, nil
}

func (r *Repository) SetSongFile(ctx context.Context, id int64, typ musicbox.ResourceType, storedName *string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, exists := r.songs[id]
	if !exists {
		return nil, musicbox.ErrSongNotFound
	}

	var field **string
	switch typ {
	case musicbox.ResourceCover:
		field = &song.Cover
	case musicbox.ResourceAudio:
		field = &song.Audio
	default:
		return nil, fmt.Errorf("%w: songs have no %q resource", musicbox.ErrValidation, typ)
	}

	previous := *field
	*field = storedName
	song.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func (r *Repository) DeleteSong(ctx context.Context, id int64) (*musicbox.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, exists := r.songs[id]
	if !exists {
		return nil, musicbox.ErrSongNotFound
	}
	delete(r.songs, id)
	return song, nil
}

// Library operations

func (r *Repository) AddLibraryArtist(ctx context.Context, userID, artistID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[userID]; !exists {
		return fmt.Errorf("%w: user %d does not exist", musicbox.ErrConflict, userID)
	}
	if _, exists := r.artists[artistID]; !exists {
		return fmt.Errorf("%w: artist %d does not exist", musicbox.ErrConflict, artistID)
	}

	key := libraryKey{userID: userID, artistID: artistID}
	if _, exists := r.library[key]; exists {
		return fmt.Errorf("%w: artist %d already added", musicbox.ErrConflict, artistID)
	}
	r.library[key] = time.Now().UTC()
	return nil
}

func (r *Repository) RemoveLibraryArtist(ctx context.Context, userID, artistID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := libraryKey{userID: userID, artistID: artistID}
	if _, exists := r.library[key]; !exists {
		return musicbox.ErrLibraryEntryNotFound
	}
	delete(r.library, key)
	return nil
}

func (r *Repository) ListLibraryArtists(ctx context.Context, userID int64, pred musicbox.Predicate) ([]*musicbox.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*musicbox.Artist
	for key := range r.library {
		if key.userID != userID {
			continue
		}
		artist, exists := r.artists[key.artistID]
		if !exists || !pred.Matches(artist.Status, artist.UserID) {
			continue
		}
		artistCopy := *artist
		result = append(result, &artistCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ownerLocked returns the user id behind an artist, or 0 when it is gone.
func (r *Repository) ownerLocked(artistID int64) int64 {
	if artist, exists := r.artists[artistID]; exists {
		return artist.UserID
	}
	return 0
}

var _ musicbox.Repository = (*Repository)(nil)

package musicbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	eventSink  EventSink
	logger     *slog.Logger
	files      *FileManager
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the storage backend holding every file resource
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	s.files = NewFileManager(s.blobStore, s.logger, s.eventSink)

	return s, nil
}

// Artist operations

func (s *service) CreateArtist(ctx context.Context, req CreateArtistRequest) (*Artist, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	user, err := s.repository.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == RoleAdmin {
		return nil, fmt.Errorf("%w: admin %d cannot own an artist profile", ErrConflict, user.ID)
	}
	if _, err := s.repository.GetArtistByUserID(ctx, user.ID); err == nil {
		return nil, fmt.Errorf("%w: user %d already has an artist profile", ErrConflict, user.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	artist := &Artist{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if artist.Avatar, err = storedNameOf(req.Avatar); err != nil {
		return nil, err
	}
	if artist.Cover, err = storedNameOf(req.Cover); err != nil {
		return nil, err
	}

	if err := s.repository.CreateArtist(ctx, artist); err != nil {
		return nil, err
	}

	if err := s.setRole(ctx, user, RoleArtist); err != nil {
		return nil, &EntityError{Entity: "artist", ID: artist.ID, Op: "create", Err: err}
	}

	owner := ArtistOwner(artist.ID)
	for _, slot := range []struct {
		typ  ResourceType
		file *File
	}{{ResourceAvatar, req.Avatar}, {ResourceCover, req.Cover}} {
		if slot.file == nil {
			continue
		}
		if _, err := s.files.Add(ctx, owner, slot.typ, slot.file); err != nil {
			s.logger.Error("Failed to store artist file", "artist_id", artist.ID, "type", slot.typ, "error", err)
			return nil, &EntityError{Entity: "artist", ID: artist.ID, Op: "create", Err: err}
		}
	}

	s.emit("artist_created", s.eventSink.ArtistCreated(ctx, artist))
	return artist, nil
}

func (s *service) GetArtist(ctx context.Context, id int64, viewer Viewer) (*ArtistDetails, error) {
	pred := Resolve(viewer)

	artist, err := s.repository.GetArtist(ctx, id, pred)
	if err != nil {
		return nil, err
	}
	albums, err := s.repository.ListAlbums(ctx, AlbumFilter{ArtistID: &id}, pred)
	if err != nil {
		return nil, err
	}
	songs, err := s.repository.ListSongs(ctx, SongFilter{ArtistID: &id}, pred)
	if err != nil {
		return nil, err
	}

	return &ArtistDetails{Artist: *artist, Albums: albums, Songs: songs}, nil
}

func (s *service) ListArtists(ctx context.Context, viewer Viewer) ([]*Artist, error) {
	return s.repository.ListArtists(ctx, Resolve(viewer))
}

func (s *service) UpdateArtist(ctx context.Context, req UpdateArtistRequest) (*Artist, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := prepare(req.Avatar, req.Cover); err != nil {
		return nil, err
	}

	artist, err := s.repository.UpdateArtist(ctx, req.ID, ArtistFields{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return nil, err
	}

	owner := ArtistOwner(artist.ID)
	if req.Avatar != nil {
		if artist.Avatar, err = s.attach(ctx, owner, ResourceAvatar, req.Avatar, s.artistColumn(ctx, artist.ID, ResourceAvatar)); err != nil {
			return nil, &EntityError{Entity: "artist", ID: artist.ID, Op: "update", Err: err}
		}
	}
	if req.Cover != nil {
		if artist.Cover, err = s.attach(ctx, owner, ResourceCover, req.Cover, s.artistColumn(ctx, artist.ID, ResourceCover)); err != nil {
			return nil, &EntityError{Entity: "artist", ID: artist.ID, Op: "update", Err: err}
		}
	}

	return artist, nil
}

func (s *service) RemoveArtist(ctx context.Context, id int64) error {
	artist, err := s.repository.DeleteArtist(ctx, id)
	if err != nil {
		return err
	}

	user, err := s.repository.GetUser(ctx, artist.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Warn("artist owner already gone", "artist_id", artist.ID, "user_id", artist.UserID)
	case err != nil:
		return &EntityError{Entity: "artist", ID: artist.ID, Op: "remove", Err: err}
	case user.Role == RoleArtist:
		if err := s.setRole(ctx, user, RoleUser); err != nil {
			return &EntityError{Entity: "artist", ID: artist.ID, Op: "remove", Err: err}
		}
	}

	s.files.RemoveResources(ctx, artist.ID, OwnerArtist)
	s.emit("artist_removed", s.eventSink.ArtistRemoved(ctx, artist))
	return nil
}

func (s *service) RemoveArtistResource(ctx context.Context, id int64, typ ResourceType) error {
	if typ != ResourceAvatar && typ != ResourceCover {
		return validationError("artists have no %q resource", typ)
	}

	previous, err := s.repository.SetArtistFile(ctx, id, typ, nil)
	if err != nil {
		return err
	}
	return s.removeFile(ctx, "artist", id, ArtistOwner(id), typ, previous)
}

func (s *service) ArtistFile(ctx context.Context, id int64, typ ResourceType, viewer Viewer) ([]byte, error) {
	artist, err := s.repository.GetArtist(ctx, id, Resolve(viewer))
	if err != nil {
		return nil, err
	}

	switch typ {
	case ResourceAvatar:
		return s.files.Get(ctx, ArtistOwner(artist.ID), typ, artist.Avatar)
	case ResourceCover:
		return s.files.Get(ctx, ArtistOwner(artist.ID), typ, artist.Cover)
	default:
		return nil, validationError("artists have no %q resource", typ)
	}
}

// Album operations

func (s *service) CreateAlbum(ctx context.Context, req CreateAlbumRequest) (*Album, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repository.GetArtist(ctx, req.ArtistID, MatchAll); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	album := &Album{
		ArtistID:  req.ArtistID,
		Name:      req.Name,
		Status:    req.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var err error
	if album.Cover, err = storedNameOf(req.Cover); err != nil {
		return nil, err
	}

	if err := s.repository.CreateAlbum(ctx, album); err != nil {
		return nil, err
	}

	if req.Cover != nil {
		if _, err := s.files.Add(ctx, ArtistOwner(album.ArtistID), ResourceCover, req.Cover); err != nil {
			s.logger.Error("Failed to store album cover", "album_id", album.ID, "error", err)
			return nil, &EntityError{Entity: "album", ID: album.ID, Op: "create", Err: err}
		}
	}
	return album, nil
}

func (s *service) GetAlbum(ctx context.Context, id int64, viewer Viewer) (*AlbumDetails, error) {
	pred := Resolve(viewer)

	album, err := s.repository.GetAlbum(ctx, id, pred)
	if err != nil {
		return nil, err
	}
	songs, err := s.repository.ListSongs(ctx, SongFilter{AlbumID: &id}, pred)
	if err != nil {
		return nil, err
	}

	return &AlbumDetails{Album: *album, Songs: songs}, nil
}

func (s *service) ListAlbums(ctx context.Context, filter AlbumFilter, viewer Viewer) ([]*Album, error) {
	return s.repository.ListAlbums(ctx, filter, Resolve(viewer))
}

func (s *service) UpdateAlbum(ctx context.Context, req UpdateAlbumRequest) (*Album, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := prepare(req.Cover); err != nil {
		return nil, err
	}

	album, err := s.repository.UpdateAlbum(ctx, req.ID, AlbumFields{Name: req.Name, Status: req.Status})
	if err != nil {
		return nil, err
	}

	if req.Cover != nil {
		setCover := func(name *string) (*string, error) {
			return s.repository.SetAlbumCover(ctx, album.ID, name)
		}
		if album.Cover, err = s.attach(ctx, ArtistOwner(album.ArtistID), ResourceCover, req.Cover, setCover); err != nil {
			return nil, &EntityError{Entity: "album", ID: album.ID, Op: "update", Err: err}
		}
	}
	return album, nil
}

func (s *service) RemoveAlbum(ctx context.Context, id int64) error {
	album, err := s.repository.DeleteAlbum(ctx, id)
	if err != nil {
		return err
	}
	return s.removeFile(ctx, "album", album.ID, ArtistOwner(album.ArtistID), ResourceCover, album.Cover)
}

func (s *service) RemoveAlbumCover(ctx context.Context, id int64) error {
	album, err := s.repository.GetAlbum(ctx, id, MatchAll)
	if err != nil {
		return err
	}

	previous, err := s.repository.SetAlbumCover(ctx, album.ID, nil)
	if err != nil {
		return err
	}
	return s.removeFile(ctx, "album", album.ID, ArtistOwner(album.ArtistID), ResourceCover, previous)
}

func (s *service) AlbumCover(ctx context.Context, id int64, viewer Viewer) ([]byte, error) {
	album, err := s.repository.GetAlbum(ctx, id, Resolve(viewer))
	if err != nil {
		return nil, err
	}
	return s.files.Get(ctx, ArtistOwner(album.ArtistID), ResourceCover, album.Cover)
}

// Song operations

func (s *service) CreateSong(ctx context.Context, req CreateSongRequest) (*Song, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repository.GetArtist(ctx, req.ArtistID, MatchAll); err != nil {
		return nil, err
	}
	if err := s.checkAlbum(ctx, req.ArtistID, req.AlbumID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	song := &Song{
		ArtistID:  req.ArtistID,
		AlbumID:   req.AlbumID,
		Name:      req.Name,
		Text:      req.Text,
		Explicit:  req.Explicit,
		Status:    req.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var err error
	if song.Cover, err = storedNameOf(req.Cover); err != nil {
		return nil, err
	}
	if song.Audio, err = storedNameOf(req.Audio); err != nil {
		return nil, err
	}

	if err := s.repository.CreateSong(ctx, song); err != nil {
		return nil, err
	}

	owner := ArtistOwner(song.ArtistID)
	if req.Cover != nil {
		if _, err := s.files.Add(ctx, owner, ResourceCover, req.Cover); err != nil {
			s.logger.Error("Failed to store song cover", "song_id", song.ID, "error", err)
			return nil, &EntityError{Entity: "song", ID: song.ID, Op: "create", Err: err}
		}
	}
	if _, err := s.files.Add(ctx, owner, ResourceAudio, req.Audio); err != nil {
		s.logger.Error("Failed to store song audio", "song_id", song.ID, "error", err)
		return nil, &EntityError{Entity: "song", ID: song.ID, Op: "create", Err: err}
	}
	return song, nil
}

func (s *service) GetSong(ctx context.Context, id int64, viewer Viewer) (*Song, error) {
	return s.repository.GetSong(ctx, id, Resolve(viewer))
}

func (s *service) ListSongs(ctx context.Context, filter SongFilter, viewer Viewer) ([]*Song, error) {
	return s.repository.ListSongs(ctx, filter, Resolve(viewer))
}

func (s *service) UpdateSong(ctx context.Context, req UpdateSongRequest) (*Song, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := prepare(req.Cover, req.Audio); err != nil {
		return nil, err
	}

	current, err := s.repository.GetSong(ctx, req.ID, MatchAll)
	if err != nil {
		return nil, err
	}
	if !req.DetachAlbum {
		if err := s.checkAlbum(ctx, current.ArtistID, req.AlbumID); err != nil {
			return nil, err
		}
	}

	song, err := s.repository.UpdateSong(ctx, current.ID, SongFields{
		AlbumID:     req.AlbumID,
		DetachAlbum: req.DetachAlbum,
		Name:        req.Name,
		Text:        req.Text,
		Explicit:    req.Explicit,
		Status:      req.Status,
	})
	if err != nil {
		return nil, err
	}

	owner := ArtistOwner(song.ArtistID)
	if req.Cover != nil {
		if song.Cover, err = s.attach(ctx, owner, ResourceCover, req.Cover, s.songColumn(ctx, song.ID, ResourceCover)); err != nil {
			return nil, &EntityError{Entity: "song", ID: song.ID, Op: "update", Err: err}
		}
	}
	if req.Audio != nil {
		if song.Audio, err = s.attach(ctx, owner, ResourceAudio, req.Audio, s.songColumn(ctx, song.ID, ResourceAudio)); err != nil {
			return nil, &EntityError{Entity: "song", ID: song.ID, Op: "update", Err: err}
		}
	}
	return song, nil
}

func (s *service) RemoveSong(ctx context.Context, id int64) error {
	song, err := s.repository.DeleteSong(ctx, id)
	if err != nil {
		return err
	}

	owner := ArtistOwner(song.ArtistID)
	return errors.Join(
		s.removeFile(ctx, "song", song.ID, owner, ResourceCover, song.Cover),
		s.removeFile(ctx, "song", song.ID, owner, ResourceAudio, song.Audio),
	)
}

func (s *service) RemoveSongCover(ctx context.Context, id int64) error {
	song, err := s.repository.GetSong(ctx, id, MatchAll)
	if err != nil {
		return err
	}

	previous, err := s.repository.SetSongFile(ctx, song.ID, ResourceCover, nil)
	if err != nil {
		return err
	}
	return s.removeFile(ctx, "song", song.ID, ArtistOwner(song.ArtistID), ResourceCover, previous)
}

func (s *service) SongFile(ctx context.Context, id int64, typ ResourceType, viewer Viewer) ([]byte, error) {
	song, err := s.repository.GetSong(ctx, id, Resolve(viewer))
	if err != nil {
		return nil, err
	}

	switch typ {
	case ResourceCover:
		return s.files.Get(ctx, ArtistOwner(song.ArtistID), typ, song.Cover)
	case ResourceAudio:
		return s.files.Get(ctx, ArtistOwner(song.ArtistID), typ, song.Audio)
	default:
		return nil, validationError("songs have no %q resource", typ)
	}
}

// User operations

func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repository.GetUser(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repository.ListUsers(ctx)
}

// UpdateUserRole changes a user's role. The artist role is only ever granted
// by CreateArtist, and a user that owns an artist profile keeps it until the
// profile is removed.
func (s *service) UpdateUserRole(ctx context.Context, id int64, role Role) (*User, error) {
	if !role.IsValid() {
		return nil, validationError("unknown role %q", role)
	}

	user, err := s.repository.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if role == RoleArtist {
		return nil, fmt.Errorf("%w: the artist role is granted by creating an artist profile", ErrConflict)
	}
	if _, err := s.repository.GetArtistByUserID(ctx, user.ID); err == nil {
		return nil, fmt.Errorf("%w: user %d owns an artist profile", ErrConflict, user.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := s.setRole(ctx, user, role); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) RemoveUser(ctx context.Context, id int64) error {
	artist, err := s.repository.GetArtistByUserID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	user, err := s.repository.DeleteUser(ctx, id)
	if err != nil {
		return err
	}

	if artist != nil {
		s.files.RemoveResources(ctx, artist.ID, OwnerArtist)
		s.emit("artist_removed", s.eventSink.ArtistRemoved(ctx, artist))
	}
	s.files.RemoveResources(ctx, user.ID, OwnerUser)
	return nil
}

func (s *service) SetUserAvatar(ctx context.Context, id int64, file *File) (*User, error) {
	if file == nil {
		return nil, validationError("avatar file is required")
	}
	if err := prepare(file); err != nil {
		return nil, err
	}

	user, err := s.repository.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	setAvatar := func(name *string) (*string, error) {
		return s.repository.SetUserAvatar(ctx, user.ID, name)
	}
	if user.Avatar, err = s.attach(ctx, UserOwner(user.ID), ResourceAvatar, file, setAvatar); err != nil {
		return nil, &EntityError{Entity: "user", ID: user.ID, Op: "set_avatar", Err: err}
	}
	return user, nil
}

func (s *service) RemoveUserAvatar(ctx context.Context, id int64) error {
	previous, err := s.repository.SetUserAvatar(ctx, id, nil)
	if err != nil {
		return err
	}
	return s.removeFile(ctx, "user", id, UserOwner(id), ResourceAvatar, previous)
}

func (s *service) UserAvatar(ctx context.Context, id int64) ([]byte, error) {
	user, err := s.repository.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.files.Get(ctx, UserOwner(user.ID), ResourceAvatar, user.Avatar)
}

// Library operations

func (s *service) Library(ctx context.Context, viewer Viewer) ([]*Artist, error) {
	userID, err := signedIn(viewer)
	if err != nil {
		return nil, err
	}
	return s.repository.ListLibraryArtists(ctx, userID, Resolve(viewer))
}

// AddToLibrary links an artist the viewer can see into their library.
func (s *service) AddToLibrary(ctx context.Context, viewer Viewer, artistID int64) error {
	userID, err := signedIn(viewer)
	if err != nil {
		return err
	}
	if _, err := s.repository.GetArtist(ctx, artistID, Resolve(viewer)); err != nil {
		return err
	}
	return s.repository.AddLibraryArtist(ctx, userID, artistID)
}

func (s *service) RemoveFromLibrary(ctx context.Context, viewer Viewer, artistID int64) error {
	userID, err := signedIn(viewer)
	if err != nil {
		return err
	}
	return s.repository.RemoveLibraryArtist(ctx, userID, artistID)
}

// Profile operations

// GetProfile returns the viewer's own artist with all of its content,
// whatever its status.
func (s *service) GetProfile(ctx context.Context, viewer Viewer) (*ArtistDetails, error) {
	artist, err := s.profile(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return s.GetArtist(ctx, artist.ID, NewViewer(RoleArtist, artist.UserID))
}

func (s *service) CreateProfile(ctx context.Context, viewer Viewer, req ProfileRequest) (*Artist, error) {
	userID, err := signedIn(viewer)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Name == nil {
		return nil, validationError("artist name is required")
	}

	create := CreateArtistRequest{
		UserID: userID,
		Name:   *req.Name,
		Status: StatusPending,
		Avatar: req.Avatar,
		Cover:  req.Cover,
	}
	if req.Description != nil {
		create.Description = *req.Description
	}
	return s.CreateArtist(ctx, create)
}

// UpdateProfile edits the viewer's own artist. The status is left alone.
func (s *service) UpdateProfile(ctx context.Context, viewer Viewer, req ProfileRequest) (*Artist, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	artist, err := s.profile(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return s.UpdateArtist(ctx, UpdateArtistRequest{
		ID:          artist.ID,
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Cover:       req.Cover,
	})
}

func (s *service) profile(ctx context.Context, viewer Viewer) (*Artist, error) {
	userID, err := signedIn(viewer)
	if err != nil {
		return nil, err
	}
	return s.repository.GetArtistByUserID(ctx, userID)
}

// SweepOrphans removes storage namespaces whose owning row no longer exists.
// It catches what RemoveResources could not delete when a removal's cleanup
// failed.
func (s *service) SweepOrphans(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{Removed: []Owner{}}

	for _, role := range []OwnerRole{OwnerArtist, OwnerUser} {
		ids, err := s.files.Namespaces(ctx, role)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			report.Scanned++

			if role == OwnerArtist {
				_, err = s.repository.GetArtist(ctx, id, MatchAll)
			} else {
				_, err = s.repository.GetUser(ctx, id)
			}
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}

			s.files.RemoveResources(ctx, id, role)
			report.Removed = append(report.Removed, Owner{ID: id, Role: role})
		}
	}

	s.logger.Info("orphan sweep finished", "scanned", report.Scanned, "removed", len(report.Removed))
	return report, nil
}

// Helpers

func (s *service) setRole(ctx context.Context, user *User, role Role) error {
	from, err := s.repository.SetUserRole(ctx, user.ID, role)
	if err != nil {
		return err
	}

	user.Role = role
	if from != role {
		s.emit("role_changed", s.eventSink.RoleChanged(ctx, user.ID, from, role))
	}
	return nil
}

// checkAlbum verifies albumID, when set, names an album of artistID.
func (s *service) checkAlbum(ctx context.Context, artistID int64, albumID *int64) error {
	if albumID == nil {
		return nil
	}

	album, err := s.repository.GetAlbum(ctx, *albumID, MatchAll)
	if err != nil {
		return err
	}
	if album.ArtistID != artistID {
		return validationError("album %d does not belong to artist %d", album.ID, artistID)
	}
	return nil
}

// attach points a file column at file and stores its bytes. set swaps the
// column and returns the name it held; that file is deleted once the new one
// is stored. Only the column is written, so concurrent updates of other
// columns of the row survive.
func (s *service) attach(ctx context.Context, owner Owner, typ ResourceType, file *File, set func(*string) (*string, error)) (*string, error) {
	name, err := storedNameOf(file)
	if err != nil {
		return nil, err
	}

	previous, err := set(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.files.Update(ctx, owner, typ, file, previous); err != nil {
		s.logger.Error("Failed to store file", "owner_role", owner.Role, "owner_id", owner.ID, "type", typ, "error", err)
		return nil, err
	}
	return name, nil
}

func (s *service) artistColumn(ctx context.Context, id int64, typ ResourceType) func(*string) (*string, error) {
	return func(name *string) (*string, error) {
		return s.repository.SetArtistFile(ctx, id, typ, name)
	}
}

func (s *service) songColumn(ctx context.Context, id int64, typ ResourceType) func(*string) (*string, error) {
	return func(name *string) (*string, error) {
		return s.repository.SetSongFile(ctx, id, typ, name)
	}
}

// removeFile deletes a file whose row reference is already gone. The row
// change stays committed; a failed delete is reported to the caller and the
// event sink.
func (s *service) removeFile(ctx context.Context, entity string, id int64, owner Owner, typ ResourceType, storedName *string) error {
	err := s.files.Remove(ctx, owner, typ, storedName)
	if err == nil {
		return nil
	}

	s.logger.Warn("resource cleanup failed", "owner_role", owner.Role, "owner_id", owner.ID, "type", typ, "error", err)
	s.emit("cleanup_failed", s.eventSink.CleanupFailed(ctx, ObjectKey(owner, typ, *storedName), err))
	return &EntityError{Entity: entity, ID: id, Op: "remove_resource", Err: err}
}

func signedIn(viewer Viewer) (int64, error) {
	if viewer.UserID <= 0 {
		return 0, validationError("a signed-in user is required")
	}
	return viewer.UserID, nil
}

func (s *service) emit(event string, err error) {
	if err != nil {
		s.logger.Warn("event sink failed", "event", event, "error", err)
	}
}

// prepare assigns stored names up front so a file without content fails the
// request before any row changes.
func prepare(files ...*File) error {
	for _, file := range files {
		if _, err := storedNameOf(file); err != nil {
			return err
		}
	}
	return nil
}

func storedNameOf(file *File) (*string, error) {
	if file == nil {
		return nil, nil
	}
	name, err := file.StoredName()
	if err != nil {
		return nil, err
	}
	return &name, nil
}

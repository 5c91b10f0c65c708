package musicbox

import "strings"

// Request DTOs. Nil pointer fields on update requests leave the stored value
// untouched; a nil *File means no new upload for that slot.

// CreateArtistRequest contains parameters for creating an artist profile
type CreateArtistRequest struct {
	UserID      int64
	Name        string
	Description string
	Status      Status // defaults to pending
	Avatar      *File
	Cover       *File
}

func (r *CreateArtistRequest) validate() error {
	if r.UserID <= 0 {
		return validationError("user id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return validationError("artist name is required")
	}
	return checkStatus(&r.Status)
}

// UpdateArtistRequest contains parameters for updating an artist
type UpdateArtistRequest struct {
	ID          int64
	Name        *string
	Description *string
	Status      *Status
	Avatar      *File
	Cover       *File
}

func (r *UpdateArtistRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return validationError("artist name cannot be empty")
	}
	return checkStatusPtr(r.Status)
}

// ProfileRequest is an artist's edit of their own profile. Status is not
// part of it; new profiles start pending and only admins change status.
type ProfileRequest struct {
	Name        *string
	Description *string
	Avatar      *File
	Cover       *File
}

func (r *ProfileRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return validationError("artist name cannot be empty")
	}
	return nil
}

// CreateAlbumRequest contains parameters for creating an album
type CreateAlbumRequest struct {
	ArtistID int64
	Name     string
	Status   Status
	Cover    *File
}

func (r *CreateAlbumRequest) validate() error {
	if r.ArtistID <= 0 {
		return validationError("artist id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return validationError("album name is required")
	}
	return checkStatus(&r.Status)
}

// UpdateAlbumRequest contains parameters for updating an album
type UpdateAlbumRequest struct {
	ID     int64
	Name   *string
	Status *Status
	Cover  *File
}

func (r *UpdateAlbumRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return validationError("album name cannot be empty")
	}
	return checkStatusPtr(r.Status)
}

// CreateSongRequest contains parameters for creating a song. Audio is required.
type CreateSongRequest struct {
	ArtistID int64
	AlbumID  *int64
	Name     string
	Text     string
	Explicit bool
	Status   Status
	Cover    *File
	Audio    *File
}

func (r *CreateSongRequest) validate() error {
	if r.ArtistID <= 0 {
		return validationError("artist id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return validationError("song name is required")
	}
	if r.Audio == nil {
		return validationError("song audio is required")
	}
	return checkStatus(&r.Status)
}

// UpdateSongRequest contains parameters for updating a song. DetachAlbum
// clears the album reference and wins over AlbumID.
type UpdateSongRequest struct {
	ID          int64
	AlbumID     *int64
	DetachAlbum bool
	Name        *string
	Text        *string
	Explicit    *bool
	Status      *Status
	Cover       *File
	Audio       *File
}

func (r *UpdateSongRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return validationError("song name cannot be empty")
	}
	return checkStatusPtr(r.Status)
}

func checkStatus(s *Status) error {
	if *s == "" {
		*s = StatusPending
	}
	if !s.IsValid() {
		return validationError("unknown status %q", *s)
	}
	return nil
}

func checkStatusPtr(s *Status) error {
	if s != nil && !s.IsValid() {
		return validationError("unknown status %q", *s)
	}
	return nil
}

package musicbox

import "time"

// Role is the role of a user account.
type Role string

const (
	RoleUser   Role = "user"
	RoleArtist Role = "artist"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleArtist, RoleAdmin:
		return true
	}
	return false
}

// Status is the moderation status of catalogue content.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeleted  Status = "deleted"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeleted:
		return true
	}
	return false
}

// OwnerRole selects the storage namespace a resource belongs to.
type OwnerRole string

const (
	OwnerUser   OwnerRole = "user"
	OwnerArtist OwnerRole = "artist"
)

// ResourceType is the slot a stored file fills.
type ResourceType string

const (
	ResourceAvatar ResourceType = "avatar"
	ResourceCover  ResourceType = "cover"
	ResourceAudio  ResourceType = "audio"
)

// ResourceTypes lists every resource type in namespace order.
var ResourceTypes = []ResourceType{ResourceAvatar, ResourceCover, ResourceAudio}

// Owner identifies whose namespace a stored file lives in.
type Owner struct {
	ID   int64     `json:"id"`
	Role OwnerRole `json:"role"`
}

// UserOwner returns the storage owner for a user account.
func UserOwner(id int64) Owner { return Owner{ID: id, Role: OwnerUser} }

// ArtistOwner returns the storage owner for an artist. Album and song files
// live in their artist's namespace.
func ArtistOwner(id int64) Owner { return Owner{ID: id, Role: OwnerArtist} }

// FileDescriptor ties a stored name to the slot it fills. StoredName is nil
// when nothing is attached.
type FileDescriptor struct {
	Owner      Owner
	Type       ResourceType
	StoredName *string
}

// User is an account. Role mirrors whether an Artist row exists for it.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Artist is the public profile backed by exactly one user.
type Artist struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Avatar      *string   `json:"avatar,omitempty"`
	Cover       *string   `json:"cover,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Album belongs to an artist; its cover is stored in the artist namespace.
type Album struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Cover     *string   `json:"cover,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Song belongs to an artist and optionally to one of its albums.
type Song struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	AlbumID   *int64    `json:"album_id,omitempty"`
	Name      string    `json:"name"`
	Text      string    `json:"text,omitempty"`
	Explicit  bool      `json:"explicit"`
	Listens   int64     `json:"listens"`
	Status    Status    `json:"status"`
	Cover     *string   `json:"cover,omitempty"`
	Audio     *string   `json:"audio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistDetails is an artist together with its visible albums and songs.
type ArtistDetails struct {
	Artist
	Albums []*Album `json:"albums"`
	Songs  []*Song  `json:"songs"`
}

// AlbumDetails is an album together with its visible songs.
type AlbumDetails struct {
	Album
	Songs []*Song `json:"songs"`
}

// SweepReport summarises an orphan sweep.
type SweepReport struct {
	Scanned int     `json:"scanned"`
	Removed []Owner `json:"removed"`
}

package musicbox

import "slices"

// Viewer is whoever a read is performed for. The zero Viewer is anonymous.
type Viewer struct {
	Role   Role
	UserID int64

	unrestricted bool
}

// Anonymous returns the public viewer.
func Anonymous() Viewer { return Viewer{} }

// Unrestricted returns the all-access viewer used by administrative reads.
func Unrestricted() Viewer { return Viewer{unrestricted: true} }

// NewViewer returns an authenticated viewer.
func NewViewer(role Role, userID int64) Viewer {
	return Viewer{Role: role, UserID: userID}
}

// Predicate filters catalogue content. Rows match when All is set, when
// their status is in Statuses, or when their artist belongs to OwnerUserID.
type Predicate struct {
	All         bool
	Statuses    []Status
	OwnerUserID *int64
}

// MatchAll is the predicate that places no restriction.
var MatchAll = Predicate{All: true}

// Matches reports whether a row with the given status, owned by an artist
// whose user is ownerUserID, passes the predicate.
func (p Predicate) Matches(status Status, ownerUserID int64) bool {
	if p.All {
		return true
	}
	if p.OwnerUserID != nil && *p.OwnerUserID == ownerUserID {
		return true
	}
	return slices.Contains(p.Statuses, status)
}

// Resolve produces the predicate every list and detail read applies for v.
//
// Admins and the unrestricted viewer see everything. Anonymous viewers see
// approved content only. Signed-in viewers also see soft-deleted content, and
// artists additionally see all of their own content whatever its status.
func Resolve(v Viewer) Predicate {
	if v.unrestricted || v.Role == RoleAdmin {
		return MatchAll
	}
	if v.Role == "" {
		return Predicate{Statuses: []Status{StatusApproved}}
	}

	p := Predicate{Statuses: []Status{StatusApproved, StatusDeleted}}
	if v.Role == RoleArtist && v.UserID != 0 {
		id := v.UserID
		p.OwnerUserID = &id
	}
	return p
}

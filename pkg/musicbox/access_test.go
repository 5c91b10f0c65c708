package musicbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		viewer musicbox.Viewer
		want   musicbox.Predicate
	}{
		{
			name:   "anonymous",
			viewer: musicbox.Anonymous(),
			want:   musicbox.Predicate{Statuses: []musicbox.Status{musicbox.StatusApproved}},
		},
		{
			name:   "user",
			viewer: musicbox.NewViewer(musicbox.RoleUser, 4),
			want:   musicbox.Predicate{Statuses: []musicbox.Status{musicbox.StatusApproved, musicbox.StatusDeleted}},
		},
		{
			name:   "artist",
			viewer: musicbox.NewViewer(musicbox.RoleArtist, 4),
			want: musicbox.Predicate{
				Statuses:    []musicbox.Status{musicbox.StatusApproved, musicbox.StatusDeleted},
				OwnerUserID: func() *int64 { id := int64(4); return &id }(),
			},
		},
		{
			name:   "admin",
			viewer: musicbox.NewViewer(musicbox.RoleAdmin, 1),
			want:   musicbox.MatchAll,
		},
		{
			name:   "unrestricted",
			viewer: musicbox.Unrestricted(),
			want:   musicbox.MatchAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, musicbox.Resolve(tt.viewer))
		})
	}
}

func TestPredicate_Matches(t *testing.T) {
	anonymous := musicbox.Resolve(musicbox.Anonymous())
	assert.True(t, anonymous.Matches(musicbox.StatusApproved, 1))
	assert.False(t, anonymous.Matches(musicbox.StatusPending, 1))
	assert.False(t, anonymous.Matches(musicbox.StatusDeleted, 1))

	artist := musicbox.Resolve(musicbox.NewViewer(musicbox.RoleArtist, 7))
	assert.True(t, artist.Matches(musicbox.StatusPending, 7))
	assert.False(t, artist.Matches(musicbox.StatusPending, 8))
	assert.True(t, artist.Matches(musicbox.StatusDeleted, 8))

	assert.True(t, musicbox.MatchAll.Matches(musicbox.StatusPending, 0))
}

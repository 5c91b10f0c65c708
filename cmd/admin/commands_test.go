package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	"github.com/shahzod418/musicbox/pkg/musicbox/repo/memory"
	memorystorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/memory"
)

func setupCommandTest(t *testing.T) (*memory.Repository, *memorystorage.Backend, musicbox.Service) {
	t.Helper()
	repo := memory.New()
	store := memorystorage.New()
	svc, err := musicbox.New(musicbox.WithRepository(repo), musicbox.WithBlobStore(store))
	require.NoError(t, err)

	previous := newService
	newService = func(ctx context.Context) (musicbox.Service, func(), error) {
		return svc, func() {}, nil
	}
	t.Cleanup(func() {
		newService = previous
		jsonOutput = false
	})
	return repo, store, svc
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSetRoleCommand(t *testing.T) {
	repo, _, svc := setupCommandTest(t)
	u := &musicbox.User{Email: "a@example.com", Role: musicbox.RoleUser}
	require.NoError(t, repo.CreateUser(context.Background(), u))

	out, err := run(t, "set-role", "1", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "User 1 is now admin")

	got, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, musicbox.RoleAdmin, got.Role)

	_, err = run(t, "set-role", "1", "artist")
	assert.ErrorIs(t, err, musicbox.ErrConflict)

	_, err = run(t, "set-role", "x", "user")
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	_, store, _ := setupCommandTest(t)
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, bytes.NewReader([]byte("x")), musicbox.UploadParams{
		ObjectKey: musicbox.ObjectKey(musicbox.ArtistOwner(9), musicbox.ResourceCover, "old.png"),
	}))

	out, err := run(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed: 1")
	assert.Contains(t, out, "artist/9")

	keys, err := store.List(ctx, "artist/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRemoveUserCommand(t *testing.T) {
	repo, _, svc := setupCommandTest(t)
	u := &musicbox.User{Email: "b@example.com", Role: musicbox.RoleUser}
	require.NoError(t, repo.CreateUser(context.Background(), u))

	out, err := run(t, "remove-user", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "User 1 removed")

	_, err = svc.GetUser(context.Background(), u.ID)
	assert.ErrorIs(t, err, musicbox.ErrNotFound)

	_, err = run(t, "remove-artist", "5")
	assert.ErrorIs(t, err, musicbox.ErrNotFound)
}

package musicbox_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	"github.com/shahzod418/musicbox/pkg/musicbox/repo/memory"
	memorystorage "github.com/shahzod418/musicbox/pkg/musicbox/storage/memory"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// mockStore is a BlobStore driven by testify expectations
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upload(ctx context.Context, reader io.Reader, params musicbox.UploadParams) error {
	_, _ = io.Copy(io.Discard, reader)
	return m.Called(params.ObjectKey).Error(0)
}

func (m *mockStore) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(objectKey)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, objectKey string) error {
	return m.Called(objectKey).Error(0)
}

func (m *mockStore) DeleteDirIfEmpty(ctx context.Context, dir string) error {
	return m.Called(dir).Error(0)
}

func (m *mockStore) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

// recordingSink keeps every event it receives
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingSink) ArtistCreated(ctx context.Context, artist *musicbox.Artist) error {
	r.add("artist_created")
	return nil
}

func (r *recordingSink) ArtistRemoved(ctx context.Context, artist *musicbox.Artist) error {
	r.add("artist_removed")
	return nil
}

func (r *recordingSink) RoleChanged(ctx context.Context, userID int64, from, to musicbox.Role) error {
	r.add("role_changed:" + string(from) + "->" + string(to))
	return nil
}

func (r *recordingSink) CleanupFailed(ctx context.Context, key string, err error) error {
	r.add("cleanup_failed")
	return nil
}

type fixture struct {
	svc    musicbox.Service
	repo   musicbox.Repository
	store  musicbox.BlobStore
	events *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memorystorage.New())
}

func newFixtureWithStore(t *testing.T, store musicbox.BlobStore) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, memory.New(), store)
}

func newFixtureWithRepo(t *testing.T, repo musicbox.Repository, store musicbox.BlobStore) *fixture {
	t.Helper()

	events := &recordingSink{}
	svc, err := musicbox.New(
		musicbox.WithRepository(repo),
		musicbox.WithBlobStore(store),
		musicbox.WithEventSink(events),
	)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, store: store, events: events}
}

// gatedRepo parks the first call of one method until release is closed, so a
// writer can be held between its read and its write while another runs.
type gatedRepo struct {
	*memory.Repository
	method  string
	taken   atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func newGatedRepo(method string) *gatedRepo {
	return &gatedRepo{
		Repository: memory.New(),
		method:     method,
		parked:     make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedRepo) gate(method string) {
	if method == g.method && g.taken.CompareAndSwap(false, true) {
		close(g.parked)
		<-g.release
	}
}

func (g *gatedRepo) SetArtistFile(ctx context.Context, id int64, typ musicbox.ResourceType, storedName *string) (*string, error) {
	g.gate("SetArtistFile")
	return g.Repository.SetArtistFile(ctx, id, typ, storedName)
}

func (g *gatedRepo) SetUserAvatar(ctx context.Context, id int64, storedName *string) (*string, error) {
	g.gate("SetUserAvatar")
	return g.Repository.SetUserAvatar(ctx, id, storedName)
}

func (f *fixture) user(t *testing.T, email string, role musicbox.Role) *musicbox.User {
	t.Helper()
	now := time.Now().UTC()
	user := &musicbox.User{Email: email, Name: email, Role: role, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.repo.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) artist(t *testing.T, email string, status musicbox.Status) (*musicbox.User, *musicbox.Artist) {
	t.Helper()
	user := f.user(t, email, musicbox.RoleUser)
	artist, err := f.svc.CreateArtist(context.Background(), musicbox.CreateArtistRequest{
		UserID: user.ID,
		Name:   "Artist " + email,
		Status: status,
	})
	require.NoError(t, err)
	return user, artist
}

func (f *fixture) keys(t *testing.T, prefix string) []string {
	t.Helper()
	keys, err := f.store.List(context.Background(), prefix)
	require.NoError(t, err)
	return keys
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu           sync.Mutex
	expiresAt    time.Time
	deleteStatus int
	deleted      []string
	userAuth     string
}

func (f *fakeBackend) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401.2,"message":"Could not authenticate with the provided credentials."}`))
			return
		}
		f.mu.Lock()
		expiresAt := f.expiresAt
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(presenter.Session{Token: "tok", CSRF: "csrf", ExpiresAt: expiresAt, CreatedAt: time.Now()})
	})
	r.Get("/v1/users/current", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.userAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401.2,"message":"Could not authenticate."}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"displayName":"Alice","email":"alice@example.org","verbs":["project.create"]}`))
	})
	r.Delete("/v1/sessions/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deleted = append(f.deleted, chi.URLParam(r, "token"))
		status := f.deleteStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	return r
}

func newManager(t *testing.T, backend *fakeBackend, opts ...Option) (*Manager, *central.Client, *requestdata.Store) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client, err := central.New(srv.URL)
	require.NoError(t, err)
	store := requestdata.NewStore(client, resources.NewRegistry())
	return NewManager(client, store, opts...), client, store
}

func TestLoginLoadsUser(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour)}
	m, client, store := newManager(t, backend)

	user, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.True(t, user.Can("project.create"))
	assert.Equal(t, "tok", client.Token())
	assert.Equal(t, "Bearer tok", backend.userAuth)
	assert.True(t, store.Get(resources.Session).DataExists())
	assert.Equal(t, requestdata.Success, store.Get(resources.CurrentUser).State)
}

func TestLoginFailureUsesCustomAlert(t *testing.T) {
	m, client, _ := newManager(t, &fakeBackend{})

	_, err := m.Login(context.Background(), "alice@example.org", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email address and/or password.", central.AlertMessage(err, LoginProblemToAlert))
	assert.Empty(t, client.Token())
	_, ok := m.Session()
	assert.False(t, ok)
}

func TestLogoutClearsState(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusNotFound} {
		backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour), deleteStatus: status}
		tokens := &MemoryStore{}
		m, client, store := newManager(t, backend, WithTokenStore(tokens))

		_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
		require.NoError(t, err)
		require.NoError(t, m.Logout(context.Background()), "status %d", status)

		assert.Equal(t, []string{"tok"}, backend.deleted)
		assert.Empty(t, client.Token())
		assert.False(t, store.Get(resources.CurrentUser).DataExists())
		_, err = tokens.Load()
		assert.ErrorIs(t, err, ErrNoSession)
	}
}

func TestLogoutKeepsStateOnServerError(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour), deleteStatus: http.StatusInternalServerError}
	m, client, _ := newManager(t, backend)

	_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)
	require.Error(t, m.Logout(context.Background()))
	assert.Equal(t, "tok", client.Token())
}

func TestRestore(t *testing.T) {
	backend := &fakeBackend{}
	tokens := &MemoryStore{}
	m, client, _ := newManager(t, backend, WithTokenStore(tokens))

	_, err := m.Restore(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, tokens.Save(presenter.Session{Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)}))
	_, err = m.Restore(context.Background())
	assert.ErrorIs(t, err, ErrExpired)
	_, err = tokens.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, tokens.Save(presenter.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))
	user, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Equal(t, "tok", client.Token())

	require.NoError(t, tokens.Save(presenter.Session{Token: "revoked", ExpiresAt: time.Now().Add(time.Hour)}))
	_, err = m.Restore(context.Background())
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, client.Token())
}

func TestWatchWarnsThenLogsOut(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(300 * time.Millisecond)}
	m, _, _ := newManager(t, backend, WithExpiryLeads(200*time.Millisecond, 100*time.Millisecond))

	_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)

	var events []string
	err = m.Watch(context.Background(),
		func(presenter.Session) { events = append(events, "warn") },
		func(err error) { events = append(events, "logout") })

	require.NoError(t, err)
	assert.Equal(t, []string{"warn", "logout"}, events)
	_, ok := m.Session()
	assert.False(t, ok)
}

func TestWatchStopsWithContext(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour)}
	m, _, _ := newManager(t, backend)
	_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = m.Watch(ctx, nil, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	_, ok := m.Session()
	assert.True(t, ok)
}

func TestLoginEndsPreviousSession(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour)}
	m, client, store := newManager(t, backend)

	_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)
	store.Set(resources.Project, presenter.Project{ID: 1, Name: "Alice's project"})

	_, err = m.Login(context.Background(), "bob@example.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, backend.deleted)
	assert.False(t, store.Get(resources.Project).DataExists())
	assert.True(t, store.Get(resources.CurrentUser).DataExists())

	store.Set(resources.Project, presenter.Project{ID: 1, Name: "Bob's project"})
	_, err = m.Login(context.Background(), "carol@example.org", "wrong")
	require.Error(t, err)
	_, ok := m.Session()
	assert.False(t, ok)
	assert.Empty(t, client.Token())
	assert.False(t, store.Get(resources.Project).DataExists())
	assert.False(t, store.Get(resources.CurrentUser).DataExists())
}

func TestWatchReturnsWhenSessionEnds(t *testing.T) {
	backend := &fakeBackend{expiresAt: time.Now().Add(time.Hour)}
	m, _, _ := newManager(t, backend)
	_, err := m.Login(context.Background(), "alice@example.org", "correct horse")
	require.NoError(t, err)

	done := make(chan error, 1)
	expired := false
	go func() {
		done <- m.Watch(context.Background(), nil, func(error) { expired = true })
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Logout(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.False(t, expired)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after logout")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	fs, err := NewFileStore(path, []byte("s3cret"))
	require.NoError(t, err)

	_, err = fs.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	want := presenter.Session{Token: "tok", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, fs.Save(want))
	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	other, err := NewFileStore(path, []byte("other"))
	require.NoError(t, err)
	_, err = other.Load()
	assert.Error(t, err)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	_, err = fs.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewFileStoreRequiresSecret(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "s"), nil)
	assert.Error(t, err)
}

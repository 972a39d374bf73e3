package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskman/handlers"
	"taskman/models"
	"taskman/store"
	"taskman/token"
)

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by email
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User)}
}

func (f *fakeUsers) Create(_ context.Context, name, email string, hash []byte) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return models.User{}, store.ErrEmailTaken
	}
	u := models.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: hash}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ByID(_ context.Context, id uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeUsers) EmailInUse(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, email string, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	f.users[email] = u
	return nil
}

// fakeTasks is an in-memory TaskStore with the same observable
// filter, ordering and pagination behavior as the SQL one.
type fakeTasks struct {
	mu     sync.Mutex
	tasks  map[int64]models.Task
	nextID int64
	clock  time.Time
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: make(map[int64]models.Task), clock: time.Now()}
}

func (f *fakeTasks) Create(_ context.Context, owner uuid.UUID, title, description string) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	// Distinct creation instants keep the newest-first order testable.
	f.clock = f.clock.Add(time.Second)
	t := models.Task{
		ID:          f.nextID,
		UserID:      owner,
		Title:       title,
		Description: description,
		Status:      models.StatusPending,
		CreatedAt:   f.clock,
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTasks) ByID(_ context.Context, owner uuid.UUID, id int64) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != owner {
		return models.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeTasks) List(_ context.Context, owner uuid.UUID, filter store.Filter) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := []models.Task{}
	for _, t := range f.tasks {
		if t.UserID != owner {
			continue
		}
		if filter.Search != "" && !strings.Contains(t.Title, filter.Search) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	skip := (filter.Page - 1) * filter.PageSize
	if skip >= len(matched) {
		return []models.Task{}, nil
	}
	end := skip + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

func (f *fakeTasks) Update(_ context.Context, owner uuid.UUID, id int64, patch store.TaskPatch) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != owner {
		return models.Task{}, store.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	f.tasks[id] = t
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, owner uuid.UUID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != owner {
		return store.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

// fakeResets is an in-memory ResetStore. TTLs are ignored; expiry is
// exercised against the real Redis store, not here.
type fakeResets struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeResets() *fakeResets {
	return &fakeResets{codes: make(map[string]string)}
}

func (f *fakeResets) SaveCode(_ context.Context, email, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	return nil
}

func (f *fakeResets) ConsumeCode(_ context.Context, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.codes[email]
	if !ok {
		return false, nil
	}
	delete(f.codes, email)
	return stored == code, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent map[string]string // email -> last code
}

func newFakeMail() *fakeMail {
	return &fakeMail{sent: make(map[string]string)}
}

func (f *fakeMail) SendResetCode(email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[email] = code
	return nil
}

// testAPI wires the real handlers, routes and token service against
// the in-memory fakes.
type testAPI struct {
	mux    *http.ServeMux
	tokens *token.Service
	users  *fakeUsers
	tasks  *fakeTasks
	resets *fakeResets
	mail   *fakeMail
}

func newTestAPI() *testAPI {
	api := &testAPI{
		tokens: token.New(token.Config{
			AccessSecret:  "handler-test-access",
			RefreshSecret: "handler-test-refresh",
		}),
		users:  newFakeUsers(),
		tasks:  newFakeTasks(),
		resets: newFakeResets(),
		mail:   newFakeMail(),
	}
	auth := &handlers.Auth{
		Users:  api.users,
		Tokens: api.tokens,
		Resets: api.resets,
		Mail:   api.mail,
	}
	tasks := &handlers.Tasks{Store: api.tasks}
	api.mux = handlers.Routes(auth, tasks, api.tokens)
	return api
}

// request performs one call against the API. An empty accessToken
// means no Authorization header.
func (api *testAPI) request(t *testing.T, method, path, accessToken string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	api.mux.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) registerAndLogin(t *testing.T, name, email, password string) models.TokenPair {
	t.Helper()

	rec := api.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body)
	}

	rec = api.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, rec.Code, rec.Body)
	}

	var pair models.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	return pair
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) models.Task {
	t.Helper()
	var task models.Task
	if err := json.NewDecoder(rec.Body).Decode(&task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []models.Task {
	t.Helper()
	var tasks []models.Task
	if err := json.NewDecoder(rec.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode task list: %v", err)
	}
	return tasks
}

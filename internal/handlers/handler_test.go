// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests: an
// in-memory session store and a fake catalog API served by httptest.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"spectranet/internal/apiclient"
	"spectranet/internal/cache"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/session"
)

// memSessions is an in-memory Sessions keyed by the session cookie.
// Data is stored as JSON, like the Valkey store does.
type memSessions struct {
	mu        sync.Mutex
	data      map[string][]byte
	next      int
	destroyed int
}

func newMemSessions() *memSessions {
	return &memSessions{data: make(map[string][]byte)}
}

func (m *memSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := "sess-" + strconv.Itoa(m.next)
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	m.data[id] = raw
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: id, Path: "/"})
	return id, nil
}

func (m *memSessions) Get(_ context.Context, r *http.Request) (*session.Data, error) {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[c.Value]
	if !ok {
		return nil, nil
	}
	var d session.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *memSessions) Update(_ context.Context, r *http.Request, data *session.Data) error {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return session.ErrNoCookie
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c.Value] = raw
	return nil
}

func (m *memSessions) Destroy(_ context.Context, w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, c.Value)
	m.destroyed++
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1})
	return nil
}

// put stores data under id and returns it as it will be read back.
func (m *memSessions) put(t *testing.T, id string, data *session.Data) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	m.mu.Lock()
	m.data[id] = raw
	m.mu.Unlock()
}

func (m *memSessions) load(t *testing.T, id string) *session.Data {
	t.Helper()
	m.mu.Lock()
	raw, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	var d session.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	return &d
}

// fakeAPI is a catalog API stand-in. Tests register handlers per route;
// every request is recorded.
type fakeAPI struct {
	mux    *http.ServeMux
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

// json registers a handler answering with status and body encoded as JSON.
func (f *fakeAPI) json(pattern string, status int, body any) {
	f.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeAPI) seen(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

// testTree is the category forest A(B(D), C) used across tests.
func testTree() []models.Category {
	b, a := int64(2), int64(1)
	return []models.Category{
		{ID: 1, Name: "A", Children: []models.Category{
			{ID: 2, Name: "B", ParentID: &a, Children: []models.Category{
				{ID: 4, Name: "D", ParentID: &b},
			}},
		}},
		{ID: 3, Name: "C"},
	}
}

// testEnv holds the dependencies of handler tests.
type testEnv struct {
	api      *fakeAPI
	sessions *memSessions
	deps     Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rn, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	api := newFakeAPI(t)
	api.json("GET /api/categories/tree", http.StatusOK, testTree())

	client := apiclient.New(api.server.URL)
	sessions := newMemSessions()

	return &testEnv{
		api:      api,
		sessions: sessions,
		deps: Deps{
			API:            client,
			Renderer:       rn,
			Sessions:       sessions,
			Categories:     cache.NewCategoryCache(nil, client, 0),
			PublicURL:      "https://spectra.example.org",
			UploadLabels:   []string{"棉", "蚕丝"},
			UploadMaxBytes: 10 << 20,
		},
	}
}

// uploader returns an admin session stored under cookie "sess-up".
func (e *testEnv) uploader(t *testing.T) *session.Data {
	t.Helper()
	sess := &session.Data{Token: "tok-up", UserID: 7, Username: "alice", DisplayName: "Alice", IsAdmin: true}
	e.sessions.put(t, "sess-up", sess)
	return sess
}

// superuser returns a superuser session stored under cookie "sess-root".
func (e *testEnv) superuser(t *testing.T) *session.Data {
	t.Helper()
	sess := &session.Data{Token: "tok-root", UserID: 1, Username: "root", DisplayName: "Root", IsSuperuser: true}
	e.sessions.put(t, "sess-root", sess)
	return sess
}

// request builds a request carrying sess in its context and cookie.
func request(method, target string, body io.Reader, sess *session.Data, cookie string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	return req
}

// formRequest builds a urlencoded POST.
func formRequest(target string, form url.Values, sess *session.Data, cookie string) *http.Request {
	req := request(http.MethodPost, target, strings.NewReader(form.Encode()), sess, cookie)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withParams attaches chi URL parameters to req.
func withParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeJSON reads a JSON request body in fake API handlers.
func decodeJSON(t *testing.T, r *http.Request, v any) {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read request body: %v", err)
		return
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		t.Errorf("decode request body %q: %v", raw, err)
	}
}

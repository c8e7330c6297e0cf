package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/todos/internal/ident"
	"github.com/roach88/todos/internal/store/sqlstore"
)

const testSecret = "test-session-secret"

// backendFactories build each backend with deterministic ids.
var backendFactories = map[string]func(t *testing.T) Backend{
	"session": func(t *testing.T) Backend {
		return SessionBackend{IDs: ident.NewSequenceGenerator("id")}
	},
	"database": func(t *testing.T) Backend {
		st, err := sqlstore.Open(context.Background(), filepath.Join(t.TempDir(), "todos.db"), ident.NewSequenceGenerator("id"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return DatabaseBackend{Store: st}
	},
}

// sessionStoreFor mirrors serve: session state on disk for the session
// backend, cookie-only sessions for the database backend.
func sessionStoreFor(t *testing.T, backend string) sessions.Store {
	if backend != "session" {
		return NewCookieStore(testSecret, false)
	}
	fs, err := NewFilesystemStore(filepath.Join(t.TempDir(), "sessions"), testSecret, false)
	require.NoError(t, err)
	return fs
}

func forEachBackend(t *testing.T, fn func(t *testing.T, ts *httptest.Server)) {
	for name, factory := range backendFactories {
		t.Run(name, func(t *testing.T) {
			srv, err := NewServer(factory(t), sessionStoreFor(t, name))
			require.NoError(t, err)
			ts := httptest.NewServer(srv)
			t.Cleanup(ts.Close)
			fn(t, ts)
		})
	}
}

// testClient keeps cookies between requests and does not follow redirects.
type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: ts.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) get(path string) (int, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	require.NoError(c.t, err)
	return readResponse(c.t, resp)
}

func (c *testClient) post(path string, form url.Values) (int, string) {
	c.t.Helper()
	resp, err := c.http.PostForm(c.base+path, form)
	require.NoError(c.t, err)
	code, _ := readResponse(c.t, resp)
	return code, resp.Header.Get("Location")
}

// postBody is post for requests that render instead of redirecting.
func (c *testClient) postBody(path string, form url.Values) (int, string) {
	c.t.Helper()
	resp, err := c.http.PostForm(c.base+path, form)
	require.NoError(c.t, err)
	return readResponse(c.t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (c *testClient) createList(title string) {
	c.t.Helper()
	code, loc := c.post("/lists", url.Values{"list_title": {title}})
	require.Equal(c.t, http.StatusSeeOther, code)
	require.Equal(c.t, "/lists", loc)
}

func (c *testClient) createTodo(listID, title string) {
	c.t.Helper()
	code, loc := c.post("/lists/"+listID+"/todos", url.Values{"todo": {title}})
	require.Equal(c.t, http.StatusSeeOther, code)
	require.Equal(c.t, "/lists/"+listID, loc)
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, NewCookieStore(testSecret, false))
	assert.Error(t, err)

	_, err = NewServer(SessionBackend{}, nil)
	assert.Error(t, err)
}

func TestIndexRedirectsToLists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		resp, err := c.http.Get(ts.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/lists", resp.Header.Get("Location"))
	})
}

func TestGetLists_Empty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		code, body := newTestClient(t, ts).get("/lists")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "You have no lists.")
	})
}

func TestCreateList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("  Work  ")

		code, body := c.get("/lists")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "The list has been added.")
		assert.Contains(t, body, `<a href="/lists/id-0001">Work</a>`)

		// Flashes are shown once.
		_, body = c.get("/lists")
		assert.NotContains(t, body, "The list has been added.")
	})
}

func TestCreateList_Validation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")

		tests := []struct {
			name  string
			title string
			want  string
		}{
			{name: "duplicate ignoring case", title: "work", want: "The title must be unique."},
			{name: "empty after trim", title: "   ", want: "The title must be between 1 and 100 characters."},
			{name: "too long", title: strings.Repeat("a", 101), want: "The title must be between 1 and 100 characters."},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				code, body := c.postBody("/lists", url.Values{"list_title": {tt.title}})
				assert.Equal(t, http.StatusUnprocessableEntity, code)
				assert.Contains(t, body, tt.want)
				assert.Contains(t, body, `value="`+strings.TrimSpace(tt.title)+`"`)
			})
		}

		_, body := c.get("/lists")
		assert.Equal(t, 1, strings.Count(body, `<a href="/lists/id-`))
	})
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")

		code, _ := c.get("/lists/missing")
		assert.Equal(t, http.StatusNotFound, code)
		code, _ = c.get("/lists/missing/edit")
		assert.Equal(t, http.StatusNotFound, code)

		posts := []string{
			"/lists/missing",
			"/lists/missing/delete",
			"/lists/missing/todos",
			"/lists/missing/complete_all",
			"/lists/id-0001/todos/missing/toggle",
			"/lists/id-0001/todos/missing/delete",
		}
		for _, path := range posts {
			code, _ := c.postBody(path, url.Values{"title": {"x"}, "todo": {"x"}, "completed": {"true"}})
			assert.Equal(t, http.StatusNotFound, code, path)
		}
	})
}

func TestTodoLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")
		c.createTodo("id-0001", "Email")
		c.createTodo("id-0001", "Call")

		code, body := c.get("/lists/id-0001")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "The todo was added.")
		assert.Less(t, strings.Index(body, ">Call<"), strings.Index(body, ">Email<"))

		code, loc := c.post("/lists/id-0001/todos/id-0002/toggle", url.Values{"completed": {"TRUE"}})
		require.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/lists/id-0001", loc)

		_, body = c.get("/lists")
		assert.Contains(t, body, "1 / 2")

		code, _ = c.post("/lists/id-0001/complete_all", nil)
		require.Equal(t, http.StatusSeeOther, code)
		_, body = c.get("/lists/id-0001")
		assert.Contains(t, body, `<section id="todos" class="complete">`)

		code, _ = c.post("/lists/id-0001/todos/id-0002/toggle", url.Values{"completed": {"false"}})
		require.Equal(t, http.StatusSeeOther, code)
		_, body = c.get("/lists/id-0001")
		assert.Contains(t, body, `<section id="todos" class="">`)
		assert.Less(t, strings.Index(body, ">Email<"), strings.Index(body, ">Call<"))

		code, _ = c.post("/lists/id-0001/todos/id-0003/delete", nil)
		require.Equal(t, http.StatusSeeOther, code)
		_, body = c.get("/lists/id-0001")
		assert.NotContains(t, body, ">Call<")
		assert.Contains(t, body, ">Email<")
	})
}

func TestCreateTodo_Validation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")

		code, body := c.postBody("/lists/id-0001/todos", url.Values{"todo": {"  "}})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, body, "Todo title must be between 1 and 100 characters.")
		assert.Contains(t, body, "<h2>Work</h2>")
	})
}

func TestUpdateList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")

		code, body := c.get("/lists/id-0001/edit")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `value="Work"`)

		code, loc := c.post("/lists/id-0001", url.Values{"title": {" Chores "}})
		require.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/lists/id-0001", loc)

		_, body = c.get("/lists/id-0001")
		assert.Contains(t, body, "<h2>Chores</h2>")
		assert.Contains(t, body, "The list has been updated.")

		code, body = c.postBody("/lists/id-0001", url.Values{"title": {"CHORES"}})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, body, "The title must be unique.")

		code, body = c.postBody("/lists/id-0001", url.Values{"title": {""}})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, body, "The title must be between 1 and 100 characters.")
	})
}

func TestDeleteList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Work")
		c.createTodo("id-0001", "Email")

		code, loc := c.post("/lists/id-0001/delete", nil)
		require.Equal(t, http.StatusSeeOther, code)
		assert.Equal(t, "/lists", loc)

		_, body := c.get("/lists")
		assert.Contains(t, body, "The list has been deleted.")
		assert.Contains(t, body, "You have no lists.")

		code, _ = c.get("/lists/id-0001")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestListsSortedByCompletion(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ts *httptest.Server) {
		c := newTestClient(t, ts)
		c.createList("Alpha")
		c.createTodo("id-0001", "Done")
		c.createList("Beta")

		code, _ := c.post("/lists/id-0001/complete_all", nil)
		require.Equal(t, http.StatusSeeOther, code)

		_, body := c.get("/lists")
		assert.Less(t, strings.Index(body, ">Beta<"), strings.Index(body, ">Alpha<"))
		assert.Contains(t, body, `<li class="complete">`)
	})
}

func TestSessionBackend_VisitorsAreIsolated(t *testing.T) {
	srv, err := NewServer(backendFactories["session"](t), sessionStoreFor(t, "session"))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	newTestClient(t, ts).createList("Work")

	_, body := newTestClient(t, ts).get("/lists")
	assert.Contains(t, body, "You have no lists.")
}

func TestSessionBackend_StateLargerThanACookie(t *testing.T) {
	srv, err := NewServer(SessionBackend{}, sessionStoreFor(t, "session"))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c := newTestClient(t, ts)
	padding := strings.Repeat("x", 80)
	for i := 1; i <= 60; i++ {
		c.createList(fmt.Sprintf("List %02d %s", i, padding))
	}

	code, body := c.get("/lists")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 60, strings.Count(body, padding+"</a>"))
	assert.Contains(t, body, "List 60 "+padding)

	for _, cookie := range c.http.Jar.Cookies(mustParseURL(t, ts.URL)) {
		assert.Less(t, len(cookie.Value), 4096)
	}
}

func TestCookieStore_RejectsOversizedSession(t *testing.T) {
	srv, err := NewServer(SessionBackend{}, NewCookieStore(testSecret, false))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c := newTestClient(t, ts)
	padding := strings.Repeat("x", 80)
	var code int
	for i := 1; i <= 60 && code != http.StatusInternalServerError; i++ {
		code, _ = c.post("/lists", url.Values{"list_title": {fmt.Sprintf("List %02d %s", i, padding)}})
	}
	assert.Equal(t, http.StatusInternalServerError, code, "cookie sessions are capped at 4096 bytes")
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestDatabaseBackend_VisitorsShareLists(t *testing.T) {
	srv, err := NewServer(backendFactories["database"](t), NewCookieStore(testSecret, false))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	newTestClient(t, ts).createList("Work")

	_, body := newTestClient(t, ts).get("/lists")
	assert.Contains(t, body, ">Work<")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

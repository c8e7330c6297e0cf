package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/roach88/todos/internal/store"
)

// SessionName is the cookie name of the visitor session.
const SessionName = "todos"

// Flash categories.
const (
	flashSuccess = "success"
	flashError   = "error"
)

// Server routes requests to handlers. It implements http.Handler.
type Server struct {
	backend  Backend
	sessions sessions.Store
	views    views
	router   *mux.Router
}

// NewServer creates a server over backend, keeping sessions in sessionStore.
func NewServer(backend Backend, sessionStore sessions.Store) (*Server, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if sessionStore == nil {
		return nil, errors.New("session store is required")
	}

	v, err := parseViews()
	if err != nil {
		return nil, err
	}

	s := &Server{
		backend:  backend,
		sessions: sessionStore,
		views:    v,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

// NewCookieStore creates a session store that keeps everything in an
// authenticated cookie keyed by secret. Cookies are capped at 4096 bytes, so
// it suits the database backend, whose sessions carry only flashes.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = cookieOptions(secure)
	return cs
}

// NewFilesystemStore creates a session store that keeps session values in
// files under dir and only the authenticated session id in the cookie. The
// session backend uses it since a visitor's lists outgrow a cookie.
func NewFilesystemStore(dir, secret string, secure bool) (*sessions.FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	fs := sessions.NewFilesystemStore(dir, []byte(secret))
	fs.MaxLength(0)
	fs.Options = cookieOptions(secure)
	return fs, nil
}

func cookieOptions(secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// routes registers every route. /lists/new precedes /lists/{list_id} since
// mux matches in registration order.
func (s *Server) routes() {
	r := s.router
	r.Use(logRequests)

	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/lists", s.handle(s.getLists)).Methods(http.MethodGet)
	r.HandleFunc("/lists", s.handle(s.createList)).Methods(http.MethodPost)
	r.HandleFunc("/lists/new", s.handle(s.newList)).Methods(http.MethodGet)
	r.HandleFunc("/lists/{list_id}", s.handle(s.showList)).Methods(http.MethodGet)
	r.HandleFunc("/lists/{list_id}", s.handle(s.updateList)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{list_id}/edit", s.handle(s.editList)).Methods(http.MethodGet)
	r.HandleFunc("/lists/{list_id}/delete", s.handle(s.deleteList)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{list_id}/todos", s.handle(s.createTodo)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{list_id}/complete_all", s.handle(s.completeAll)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{list_id}/todos/{todo_id}/toggle", s.handle(s.toggleTodo)).Methods(http.MethodPost)
	r.HandleFunc("/lists/{list_id}/todos/{todo_id}/delete", s.handle(s.deleteTodo)).Methods(http.MethodPost)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// request is the per-request scope handed to handlers.
type request struct {
	w      http.ResponseWriter
	r      *http.Request
	store  store.Store
	sess   *sessions.Session
	commit func() error
	views  views
}

type handlerFunc func(req *request) error

// notFoundError is returned by handlers for unknown list or todo ids.
type notFoundError struct {
	what string
}

func (e *notFoundError) Error() string {
	return e.what + " not found"
}

// handle loads the session, binds the backend and maps handler errors to
// responses.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(r, SessionName)
		if err != nil {
			// Get still returns a fresh session when the cookie cannot be
			// decoded, e.g. after the secret changed.
			slog.Debug("starting new session", "error", err)
		}

		st, commit, err := s.backend.Bind(sess)
		if err != nil {
			serverError(w, r, err)
			return
		}

		req := &request{w: w, r: r, store: st, sess: sess, commit: commit, views: s.views}
		if err := h(req); err != nil {
			var nf *notFoundError
			if errors.As(err, &nf) {
				http.Error(w, nf.Error(), http.StatusNotFound)
				return
			}
			serverError(w, r, err)
		}
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/lists", http.StatusFound)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (req *request) flash(category, msg string) {
	req.sess.AddFlash(msg, category)
}

// save commits backend state into the session and writes the cookie. It must
// run before anything is written to the response.
func (req *request) save() error {
	if err := req.commit(); err != nil {
		return fmt.Errorf("commit session state: %w", err)
	}
	if err := req.sess.Save(req.r, req.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (req *request) redirect(url string) error {
	if err := req.save(); err != nil {
		return err
	}
	http.Redirect(req.w, req.r, url, http.StatusSeeOther)
	return nil
}

// render consumes pending flashes into data and writes the page.
func (req *request) render(status int, page string, data pageData) error {
	data.Success = flashStrings(req.sess.Flashes(flashSuccess))
	data.Errors = flashStrings(req.sess.Flashes(flashError))

	body, err := req.views.render(page, data)
	if err != nil {
		return err
	}
	if err := req.save(); err != nil {
		return err
	}
	writeHTML(req.w, status, body)
	return nil
}

func flashStrings(flashes []interface{}) []string {
	out := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (req *request) ctx() context.Context {
	return req.r.Context()
}

func (req *request) param(name string) string {
	return mux.Vars(req.r)[name]
}

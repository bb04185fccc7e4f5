package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/repository"
	"github.com/olegiv/catadmin/internal/session"
	"github.com/olegiv/catadmin/internal/testutil"
)

// Seeded demo category IDs.
const (
	electronicsID = 1
	phonesID      = 2
	smartphonesID = 3
	laptopsID     = 5
	booksID       = 9
	homeGardenID  = 12
	seededRev     = 2
)

// envelope decodes either a success or an error response.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *Meta           `json:"meta"`
	Error *ErrorDetail    `json:"error"`
}

// newTestRouter mounts the API over the seeded demo tree.
func newTestRouter(t *testing.T, opts RouteOptions) chi.Router {
	t.Helper()
	repo, _ := testutil.SeededRepository(t)
	return newRouter(repo, opts)
}

func newRouter(repo repository.Repository, opts RouteOptions) chi.Router {
	h := NewHandler(repo, session.New(nil, "memory", true), testutil.TestLoggerSilent())
	r := chi.NewRouter()
	h.Mount(r, opts)
	return r
}

// do sends a request to router and decodes the envelope.
func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// failingRepo fails every call.
type failingRepo struct{}

var errBackendDown = errors.New("database is locked")

func (failingRepo) FetchTree(context.Context) ([]category.NestedRecord, repository.Revision, error) {
	return nil, 0, errBackendDown
}

func (failingRepo) FetchFlatList(context.Context) ([]category.Record, repository.Revision, error) {
	return nil, 0, errBackendDown
}

func (failingRepo) MoveCategory(context.Context, int64, int64, repository.Revision) error {
	return errBackendDown
}

func (failingRepo) CreateCategory(context.Context, string, string, int64) (category.Record, error) {
	return category.Record{}, errBackendDown
}

func (failingRepo) DeleteCategory(context.Context, int64) error {
	return errBackendDown
}

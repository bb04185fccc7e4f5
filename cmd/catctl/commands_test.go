package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/config"
	"github.com/olegiv/catadmin/internal/handler/api"
	"github.com/olegiv/catadmin/internal/repository"
	"github.com/olegiv/catadmin/internal/session"
	"github.com/olegiv/catadmin/internal/testutil"
)

func sampleRecords() []category.Record {
	return []category.Record{
		{ID: 1, Name: "Electronics", Slug: "categories/electronics"},
		{ID: 2, Name: "Phones", ParentID: category.ParentRef(1), Slug: "categories/electronics/phones"},
		{ID: 3, Name: "Smartphones", ParentID: category.ParentRef(2), Slug: "categories/electronics/phones/smartphones"},
		{ID: 4, Name: "Books", Slug: "categories/books"},
	}
}

func memoryFactory(repo repository.Repository) repoFactory {
	return func(*config.ClientConfig, *slog.Logger) (repository.Repository, func(), error) {
		return repo, func() {}, nil
	}
}

func execute(t *testing.T, factory repoFactory, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTreeCmd(t *testing.T) {
	out, err := execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "tree")
	require.NoError(t, err)

	assert.Contains(t, out, "revision 1\n")
	assert.Contains(t, out, "Electronics  #1  categories/electronics\n")
	assert.Contains(t, out, "    Smartphones  #3  categories/electronics/phones/smartphones\n")
}

func TestTreeCmd_JSON(t *testing.T) {
	out, err := execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "tree", "--json")
	require.NoError(t, err)

	var got struct {
		Revision   int64                   `json:"revision"`
		Categories []category.NestedRecord `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(1), got.Revision)
	assert.Len(t, got.Categories, 2)
}

func TestPathCmd(t *testing.T) {
	out, err := execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "path", "3")
	require.NoError(t, err)
	assert.Equal(t, "Electronics / Phones / Smartphones\ncategories/electronics/phones/smartphones\n", out)

	_, err = execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "path", "99")
	assert.ErrorIs(t, err, category.ErrNodeNotFound)

	_, err = execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "path", "x")
	assert.Error(t, err)
}

func TestSearchAndSlugCmds(t *testing.T) {
	factory := memoryFactory(repository.NewMemory(sampleRecords()))

	out, err := execute(t, factory, "search", "phone")
	require.NoError(t, err)
	assert.Contains(t, out, "#2  Phones")
	assert.Contains(t, out, "#3  Smartphones")
	assert.NotContains(t, out, "Books")

	out, err = execute(t, factory, "slug", "--parent", "2", "Smart", "Phones")
	require.NoError(t, err)
	assert.Equal(t, "categories/electronics/phones/smart-phones\n", out)
}

func TestMoveCmd(t *testing.T) {
	repo := repository.NewMemory(sampleRecords())
	factory := memoryFactory(repo)

	out, err := execute(t, factory, "move", "2", "--to", "4")
	require.NoError(t, err)
	assert.Equal(t, "moved 2 categories, revision 2\n", out)

	out, err = execute(t, factory, "path", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Books / Phones / Smartphones")

	_, err = execute(t, factory, "move", "4", "--to", "3")
	assert.ErrorIs(t, err, category.ErrCycleDetected)
	assert.Equal(t, repository.Revision(2), repo.Revision())

	out, err = execute(t, factory, "move", "2", "--to", "4")
	require.NoError(t, err)
	assert.Equal(t, "category 2 is already there\n", out)
}

func TestCreateAndDeleteCmds(t *testing.T) {
	repo := repository.NewMemory(sampleRecords())
	factory := memoryFactory(repo)

	out, err := execute(t, factory, "create", "--parent", "4", "Science", "Fiction")
	require.NoError(t, err)
	assert.Equal(t, "created #5 categories/books/science-fiction\n", out)

	_, err = execute(t, factory, "delete", "4")
	assert.ErrorIs(t, err, repository.ErrHasChildren)

	out, err = execute(t, factory, "delete", "5")
	require.NoError(t, err)
	assert.Equal(t, "deleted #5\n", out)
}

func TestAuditCmd(t *testing.T) {
	out, err := execute(t, memoryFactory(repository.NewMemory(sampleRecords())), "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "4 categories, no violations")

	broken := append(sampleRecords(), category.Record{ID: 9, Name: "Lost", ParentID: category.ParentRef(42), Slug: "categories/lost"})
	_, err = execute(t, memoryFactory(repository.NewMemory(broken)), "audit")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, func(*config.ClientConfig, *slog.Logger) (repository.Repository, func(), error) {
		t.Fatal("version must not open a repository")
		return nil, nil, nil
	}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "catctl dev")
}

// TestRemoteRoundTrip drives the real HTTP client and cache against the API.
func TestRemoteRoundTrip(t *testing.T) {
	repo, _ := testutil.SeededRepository(t)
	r := chi.NewRouter()
	api.NewHandler(repo, session.New(nil, "memory", true), testutil.TestLoggerSilent()).Mount(r, api.RouteOptions{})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	out, err := execute(t, remoteRepository, "--backend", srv.URL, "move", "2", "--to", "9")
	require.NoError(t, err)
	assert.Equal(t, "moved 3 categories, revision 3\n", out)

	out, err = execute(t, remoteRepository, "--backend", srv.URL, "path", "3")
	require.NoError(t, err)
	assert.Equal(t, "Books / Phones / Smartphones\ncategories/books/phones/smartphones\n", out)

	_, err = execute(t, remoteRepository, "--backend", srv.URL, "delete", "1")
	assert.ErrorIs(t, err, repository.ErrHasChildren)
}

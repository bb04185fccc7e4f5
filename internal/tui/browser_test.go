package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/console"
	"github.com/olegiv/catadmin/internal/repository"
)

// fakeSurface records drawn cells.
type fakeSurface struct {
	width, height int
	cells         map[[2]int]rune
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{width: w, height: h, cells: map[[2]int]rune{}}
}

func (f *fakeSurface) Clear()           { f.cells = map[[2]int]rune{} }
func (f *fakeSurface) Size() (int, int) { return f.width, f.height }
func (f *fakeSurface) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	f.cells[[2]int{x, y}] = r
}

func (f *fakeSurface) line(y int) string {
	var sb strings.Builder
	for x := 0; x < f.width; x++ {
		if r, ok := f.cells[[2]int{x, y}]; ok {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

func sampleRecords() []category.Record {
	return []category.Record{
		{ID: 1, Name: "Electronics", Slug: "categories/electronics"},
		{ID: 2, Name: "Phones", ParentID: category.ParentRef(1), Slug: "categories/electronics/phones"},
		{ID: 3, Name: "Smartphones", ParentID: category.ParentRef(2), Slug: "categories/electronics/phones/smartphones"},
		{ID: 4, Name: "Books", Slug: "categories/books"},
	}
}

func newBrowser(t *testing.T) (*Browser, *console.Screen, *repository.Memory) {
	t.Helper()
	repo := repository.NewMemory(sampleRecords())
	screen := console.NewScreen(repo, nil)
	b := New(screen, nil)
	b.reload(context.Background())
	return b, screen, repo
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func press(t *testing.T, b *Browser, events ...*tcell.EventKey) {
	t.Helper()
	for _, ev := range events {
		require.False(t, b.HandleKey(context.Background(), ev))
	}
}

func TestBrowser_Navigate(t *testing.T) {
	b, screen, _ := newBrowser(t)

	press(t, b, key(tcell.KeyDown))
	assert.Equal(t, []int64{1}, screen.Selector().Selection())
	assert.Equal(t, 2, screen.Selector().Len())

	press(t, b, key(tcell.KeyRight), key(tcell.KeyDown))
	assert.Equal(t, 1, b.Focus())
	assert.Equal(t, []int64{1, 2}, screen.Selector().Selection())

	press(t, b, char('l'))
	assert.Equal(t, 2, b.Focus())
	assert.Equal(t, []int64{1, 2}, screen.Selector().Selection())

	press(t, b, char('j'))
	assert.Equal(t, []int64{1, 2, 3}, screen.Selector().Selection())

	// Changing the root selection truncates deeper levels and focus follows.
	press(t, b, char('h'), char('h'), char('j'))
	assert.Equal(t, 0, b.Focus())
	assert.Equal(t, []int64{4}, screen.Selector().Selection())
	assert.Equal(t, 1, screen.Selector().Len())

	press(t, b, key(tcell.KeyBackspace2))
	assert.Empty(t, screen.Selector().Selection())
}

func TestBrowser_CursorStaysInRange(t *testing.T) {
	b, screen, _ := newBrowser(t)

	press(t, b, key(tcell.KeyUp))
	assert.Equal(t, []int64{1}, screen.Selector().Selection())
	press(t, b, key(tcell.KeyDown), key(tcell.KeyDown), key(tcell.KeyDown))
	assert.Equal(t, []int64{4}, screen.Selector().Selection())
}

func TestBrowser_MoveMarked(t *testing.T) {
	b, screen, repo := newBrowser(t)

	// Mark Phones, then choose Books as the new parent.
	press(t, b, key(tcell.KeyDown), key(tcell.KeyRight), key(tcell.KeyDown), char('m'))
	require.Equal(t, int64(2), b.Marked())
	assert.Contains(t, b.Status(), "Phones")

	press(t, b, key(tcell.KeyLeft), key(tcell.KeyDown), char('p'))
	assert.Equal(t, category.NoParent, b.Marked())
	assert.Equal(t, "moved 2 categories", b.Status())
	assert.Equal(t, repository.Revision(2), repo.Revision())

	tree, _ := screen.Tree()
	phones, ok := tree.Node(2)
	require.True(t, ok)
	assert.Equal(t, int64(4), phones.ParentID)
	assert.Equal(t, []int64{4, 2}, screen.Selector().Selection())
	assert.Equal(t, 1, b.Focus())
}

func TestBrowser_MoveRejected(t *testing.T) {
	b, screen, repo := newBrowser(t)

	// Electronics cannot move below its own grandchild.
	press(t, b, key(tcell.KeyDown), char('m'))
	press(t, b, key(tcell.KeyRight), key(tcell.KeyDown), key(tcell.KeyRight), key(tcell.KeyDown), char('p'))
	assert.Contains(t, b.Status(), "move rejected")
	assert.Contains(t, b.Status(), category.ErrCycleDetected.Error())
	assert.Equal(t, int64(1), b.Marked())
	assert.Equal(t, repository.Revision(1), repo.Revision())

	tree, _ := screen.Tree()
	electronics, _ := tree.Node(1)
	assert.True(t, electronics.IsRoot())
}

func TestBrowser_MoveToRoot(t *testing.T) {
	b, screen, _ := newBrowser(t)

	press(t, b, char('j'), char('l'), char('j'), char('l'), char('j'), char('m'), char('P'))
	tree, _ := screen.Tree()
	smart, ok := tree.Node(3)
	require.True(t, ok)
	assert.True(t, smart.IsRoot())
	assert.Equal(t, 1, smart.Depth)
}

func TestBrowser_MoveWithoutMark(t *testing.T) {
	b, _, _ := newBrowser(t)
	press(t, b, char('p'))
	assert.Contains(t, b.Status(), "nothing marked")
}

func TestBrowser_Quit(t *testing.T) {
	b, _, _ := newBrowser(t)
	assert.True(t, b.HandleKey(context.Background(), char('q')))
	assert.True(t, b.HandleKey(context.Background(), key(tcell.KeyEscape)))
}

func TestBrowser_Draw(t *testing.T) {
	b, _, _ := newBrowser(t)
	press(t, b, key(tcell.KeyDown), key(tcell.KeyRight), key(tcell.KeyDown))

	s := newFakeSurface(100, 12)
	b.Draw(s)

	assert.Contains(t, s.line(0), "revision 1")
	assert.Contains(t, s.line(1), "Electronics / Phones")
	assert.Contains(t, s.line(1), "categories/electronics/phones")
	assert.Contains(t, s.line(3), "> Electronics ›")
	assert.Contains(t, s.line(3), "> Phones ›")
	assert.Contains(t, s.line(3), "  Smartphones")
	assert.Contains(t, s.line(4), "  Books")
	assert.Equal(t, helpLine, s.line(11))
}

func TestBrowser_DrawLoading(t *testing.T) {
	screen := console.NewScreen(repository.NewMemory(sampleRecords()), nil)
	b := New(screen, nil)

	s := newFakeSurface(60, 10)
	b.Draw(s)
	assert.Contains(t, s.line(3), "loading...")
}

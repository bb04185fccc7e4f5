// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tui renders the cascading category selector in a terminal and
// drives it from the keyboard. All state lives in a console.Screen; the
// browser only tracks which column has focus and which node is marked for a
// move.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/console"
)

const helpLine = "↑↓ select  → open  ← back  ⌫ clear  m mark  p move here  P move to root  r reload  q quit"

// Browser is an interactive cascading selector.
type Browser struct {
	screen *console.Screen
	logger *slog.Logger

	focus  int
	marked int64
	status string
}

// New creates a browser over screen.
func New(screen *console.Screen, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{screen: screen, logger: logger}
}

// Focus returns the index of the focused selector level.
func (b *Browser) Focus() int {
	return b.focus
}

// Marked returns the category marked for a move, or category.NoParent.
func (b *Browser) Marked() int64 {
	return b.marked
}

// Status returns the message shown on the status line.
func (b *Browser) Status() string {
	return b.status
}

// Run loads the tree and processes terminal events until the user quits or
// ctx is cancelled. The caller owns ts and must Init it before and Fini it
// after Run.
func (b *Browser) Run(ctx context.Context, ts tcell.Screen) error {
	b.reload(ctx)

	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := ts.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		b.Draw(ts)
		ts.Show()

		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				ts.Sync()
			case *tcell.EventKey:
				if b.HandleKey(ctx, ev) {
					return nil
				}
			}
		}
	}
}

// HandleKey applies one key press. It reports whether the browser should exit.
func (b *Browser) HandleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		b.moveCursor(-1)
	case tcell.KeyDown:
		b.moveCursor(1)
	case tcell.KeyRight, tcell.KeyEnter:
		b.open()
	case tcell.KeyLeft:
		b.back()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		b.clear()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			b.moveCursor(-1)
		case 'j':
			b.moveCursor(1)
		case 'l':
			b.open()
		case 'h':
			b.back()
		case 'm':
			b.mark()
		case 'p':
			b.moveMarked(ctx, false)
		case 'P':
			b.moveMarked(ctx, true)
		case 'r':
			b.reload(ctx)
		}
	}
	return false
}

func (b *Browser) reload(ctx context.Context) {
	if err := b.screen.Load(ctx); err != nil && !errors.Is(err, console.ErrSuperseded) {
		b.status = "load failed: " + err.Error()
		b.logger.Warn("category browser load failed", "error", err)
		return
	}
	_, rev := b.screen.Tree()
	b.status = fmt.Sprintf("loaded revision %d", int64(rev))
	b.clampFocus()
}

// moveCursor selects the option delta rows away from the current selection
// in the focused column.
func (b *Browser) moveCursor(delta int) {
	lvl, ok := b.screen.Selector().Level(b.focus)
	if !ok || lvl.Loading || len(lvl.Options) == 0 {
		return
	}
	i := selectedIndex(lvl) + delta
	if selectedIndex(lvl) < 0 && delta > 0 {
		i = 0
	}
	i = min(max(i, 0), len(lvl.Options)-1)
	b.selectAt(b.focus, lvl.Options[i].ID)
}

// open moves focus into the children of the focused selection, selecting
// the first option when nothing is chosen yet.
func (b *Browser) open() {
	lvl, ok := b.screen.Selector().Level(b.focus)
	if !ok || lvl.Loading || len(lvl.Options) == 0 {
		return
	}
	if !lvl.HasSelection() {
		b.selectAt(b.focus, lvl.Options[0].ID)
	}
	if b.screen.Selector().Len() > b.focus+1 {
		b.focus++
	}
}

func (b *Browser) back() {
	if b.focus > 0 {
		b.focus--
	}
}

func (b *Browser) clear() {
	if _, err := b.screen.ClearAt(b.focus); err != nil {
		b.status = err.Error()
		return
	}
	b.clampFocus()
}

func (b *Browser) selectAt(level int, id int64) {
	if _, err := b.screen.SelectAt(level, id); err != nil {
		b.status = err.Error()
		return
	}
	b.status = ""
	b.clampFocus()
}

// mark remembers the focused selection as the subtree to move.
func (b *Browser) mark() {
	lvl, ok := b.screen.Selector().Level(b.focus)
	if !ok || !lvl.HasSelection() {
		b.status = "select a category to mark"
		return
	}
	b.marked = lvl.Selected
	if tree, _ := b.screen.Tree(); tree != nil {
		if n, ok := tree.Node(b.marked); ok {
			b.status = fmt.Sprintf("marked %q; select the new parent and press p", n.Name)
		}
	}
}

// moveMarked moves the marked subtree under the focused selection, or to the
// root level.
func (b *Browser) moveMarked(ctx context.Context, toRoot bool) {
	if b.marked == category.NoParent {
		b.status = "nothing marked; press m first"
		return
	}
	target := category.NoParent
	if !toRoot {
		lvl, ok := b.screen.Selector().Level(b.focus)
		if !ok || !lvl.HasSelection() {
			b.status = "select the new parent first"
			return
		}
		target = lvl.Selected
	}

	plan, err := b.screen.Move(ctx, b.marked, target)
	switch {
	case err != nil:
		b.status = "move rejected: " + err.Error()
	case plan.NoOp():
		b.status = "already there"
		b.marked = category.NoParent
	default:
		b.status = fmt.Sprintf("moved %d categories", len(plan.Affected))
		moved := b.marked
		b.marked = category.NoParent
		if sel, err := b.screen.Focus(moved); err == nil {
			b.focus = max(len(sel.Selection())-1, 0)
		}
	}
	b.clampFocus()
}

func (b *Browser) clampFocus() {
	n := b.screen.Selector().Len()
	b.focus = min(max(b.focus, 0), max(n-1, 0))
}

func selectedIndex(lvl category.Level) int {
	for i, opt := range lvl.Options {
		if opt.ID == lvl.Selected {
			return i
		}
	}
	return -1
}

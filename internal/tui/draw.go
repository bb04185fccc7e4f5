// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/olegiv/catadmin/internal/console"
)

// columnWidth is the width of one selector level, including its gap.
const columnWidth = 24

var (
	styleDefault  = tcell.StyleDefault
	styleHeader   = tcell.StyleDefault.Bold(true)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleFocused  = tcell.StyleDefault.Reverse(true)
	styleMarked   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMuted    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleError    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// Surface is the part of tcell.Screen the browser draws on.
type Surface interface {
	Clear()
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// Draw renders the header, one column per selector level and the status line.
func (b *Browser) Draw(s Surface) {
	s.Clear()
	width, height := s.Size()
	if width <= 0 || height < 4 {
		return
	}

	state, _ := b.screen.State()
	_, rev := b.screen.Tree()
	putString(s, 0, 0, width, fmt.Sprintf("catadmin  revision %d  [%s]", int64(rev), state), styleHeader)

	sel := b.screen.Selector()
	var names []string
	slug := ""
	for _, n := range sel.Path() {
		names = append(names, n.Name)
		slug = n.Slug
	}
	crumbs := strings.Join(names, " / ")
	if slug != "" {
		crumbs += "  (" + slug + ")"
	}
	putString(s, 0, 1, width, crumbs, styleDefault)

	top, rows := 3, height-5
	firstCol := max(0, b.focus-(width/columnWidth)+1)
	for i, lvl := range sel.Levels() {
		if i < firstCol {
			continue
		}
		x := (i - firstCol) * columnWidth
		if x >= width {
			break
		}
		colWidth := min(columnWidth-1, width-x)
		if lvl.Loading {
			putString(s, x, top, colWidth, "loading...", styleMuted)
			continue
		}
		for row, opt := range lvl.Options {
			if row >= rows {
				putString(s, x, top+row, colWidth, fmt.Sprintf("  +%d more", len(lvl.Options)-row), styleMuted)
				break
			}
			prefix, suffix := "  ", ""
			style := styleDefault
			if opt.ID == lvl.Selected {
				prefix = "> "
				style = styleSelected
				if i == b.focus {
					style = styleFocused
				}
			}
			if opt.ID == b.marked {
				prefix = "* "
				style = styleMarked
			}
			if opt.HasChildren() {
				suffix = " ›"
			}
			putString(s, x, top+row, colWidth, prefix+opt.Name+suffix, style)
		}
	}

	statusStyle := styleMuted
	status := b.status
	if state == console.StateFailed || strings.Contains(status, "rejected") || strings.Contains(status, "failed") {
		statusStyle = styleError
	}
	if status == "" {
		status = helpLine
	}
	putString(s, 0, height-1, width, status, statusStyle)
}

// putString writes text at (x, y), cut to at most width cells.
func putString(s Surface, x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= width {
			return
		}
		s.SetContent(x+col, y, r, nil, style)
		col++
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olegiv/catadmin/internal/util"
)

// SlugNamespace prefixes every hierarchical category slug.
const SlugNamespace = "categories"

// GenerateSlug derives the slug nodeID would have if it were named
// proposedName: the normalized ancestor names and the normalized proposed
// name joined by '/', under SlugNamespace. The tree is not modified.
func GenerateSlug(t *Tree, nodeID int64, proposedName string) (string, error) {
	if !t.Has(nodeID) {
		return "", fmt.Errorf("generating slug: %w", ErrNodeNotFound)
	}
	ancestors, err := t.Ancestors(nodeID)
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}
	return joinSlug(ancestors, proposedName)
}

// GenerateChildSlug previews the slug of a not yet created category named
// name under parentID. NoParent previews a root category.
func GenerateChildSlug(t *Tree, parentID int64, name string) (string, error) {
	if parentID == NoParent {
		return joinSlug(nil, name)
	}
	if !t.Has(parentID) {
		return "", fmt.Errorf("generating slug: %w", ErrParentNotFound)
	}
	path, err := t.ResolvePath(parentID)
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}
	return joinSlug(path, name)
}

func joinSlug(ancestors []*Node, name string) (string, error) {
	own := util.Slugify(name)
	if own == "" {
		return "", ErrInvalidName
	}
	segments := make([]string, 0, len(ancestors)+2)
	segments = append(segments, SlugNamespace)
	for _, a := range ancestors {
		seg := util.Slugify(a.Name)
		if seg == "" {
			// Names without any sluggable characters fall back to the ID.
			seg = strconv.FormatInt(a.ID, 10)
		}
		segments = append(segments, seg)
	}
	segments = append(segments, own)
	return strings.Join(segments, "/"), nil
}

// SlugFor returns the node's slug, recomputing it from the current ancestor
// names when it is stale.
func (t *Tree) SlugFor(id int64) (string, error) {
	n, ok := t.Node(id)
	if !ok {
		return "", ErrNodeNotFound
	}
	if !n.SlugStale {
		return n.Slug, nil
	}
	return GenerateSlug(t, id, n.Name)
}

// RefreshSlugs returns a copy of the tree with every stale slug recomputed
// and the stale flags cleared.
func (t *Tree) RefreshSlugs() (*Tree, error) {
	c := t.Clone()
	var firstErr error
	c.Walk(func(n *Node) bool {
		if !n.SlugStale {
			return true
		}
		slug, err := GenerateSlug(c, n.ID, n.Name)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("refreshing slug of category %d: %w", n.ID, err)
			}
			return true
		}
		n.Slug = slug
		n.SlugStale = false
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return c, nil
}

// StaleSlugs returns the IDs of nodes whose slug needs recomputation.
func (t *Tree) StaleSlugs() []int64 {
	var ids []int64
	t.Walk(func(n *Node) bool {
		if n.SlugStale {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

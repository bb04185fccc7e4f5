package category

import (
	"errors"
	"testing"
)

func TestGenerateSlug(t *testing.T) {
	tree := chainTree(t)

	tests := []struct {
		name     string
		nodeID   int64
		proposed string
		expected string
	}{
		{"leaf rename", 3, "Smart Phones", "categories/electronics/phones/smart-phones"},
		{"root", 1, "Consumer Electronics", "categories/consumer-electronics"},
		{"whitespace and punctuation", 2, "  Mobile   Phones!! ", "categories/electronics/mobile-phones"},
		{"transliterated", 2, "Téléphones", "categories/electronics/telephones"},
		{"hyphen runs collapse", 3, "Smart -- Phones", "categories/electronics/phones/smart-phones"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlug(tree, tt.nodeID, tt.proposed)
			if err != nil {
				t.Fatalf("GenerateSlug error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("GenerateSlug(%d, %q) = %q, want %q", tt.nodeID, tt.proposed, got, tt.expected)
			}
		})
	}
}

func TestGenerateSlug_Errors(t *testing.T) {
	tree := chainTree(t)

	if _, err := GenerateSlug(tree, 99, "Anything"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
	if _, err := GenerateSlug(tree, 3, "!!!"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestGenerateSlug_AncestorWithoutSluggableName(t *testing.T) {
	tree, _ := BuildTree([]Record{
		rec(7, "***", 0),
		rec(8, "Child", 7),
	})
	got, err := GenerateSlug(tree, 8, "Child")
	if err != nil {
		t.Fatalf("GenerateSlug error: %v", err)
	}
	if got != "categories/7/child" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateChildSlug(t *testing.T) {
	tree := chainTree(t)

	got, err := GenerateChildSlug(tree, 2, "Tablets")
	if err != nil {
		t.Fatalf("GenerateChildSlug error: %v", err)
	}
	if got != "categories/electronics/phones/tablets" {
		t.Errorf("got %q", got)
	}

	got, err = GenerateChildSlug(tree, NoParent, "Garden")
	if err != nil {
		t.Fatalf("GenerateChildSlug root error: %v", err)
	}
	if got != "categories/garden" {
		t.Errorf("got %q", got)
	}

	if _, err := GenerateChildSlug(tree, 42, "X"); !errors.Is(err, ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}
}

func TestSlugFor_FreshSlugReturnedAsIs(t *testing.T) {
	tree := chainTree(t)
	got, err := tree.SlugFor(3)
	if err != nil {
		t.Fatalf("SlugFor error: %v", err)
	}
	if got != "categories/electronics/phones/smartphones" {
		t.Errorf("got %q", got)
	}
	if _, err := tree.SlugFor(99); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestRefreshSlugs_DoesNotMutateInput(t *testing.T) {
	tree, _ := BuildTree([]Record{rec(1, "Garden Tools", 0)})
	refreshed, err := tree.RefreshSlugs()
	if err != nil {
		t.Fatalf("RefreshSlugs error: %v", err)
	}
	n, _ := refreshed.Node(1)
	if n.Slug != "categories/garden-tools" || n.SlugStale {
		t.Errorf("unexpected refreshed node: %+v", n)
	}
	orig, _ := tree.Node(1)
	if !orig.SlugStale || orig.Slug != "" {
		t.Errorf("input tree was modified: %+v", orig)
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegiv/catadmin/internal/category"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the category hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			nested, rev, err := a.repo.FetchTree(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, map[string]any{"revision": rev, "categories": nested})
			}
			_, _ = fmt.Fprintf(out, "revision %d\n", int64(rev))
			printNested(out, nested, 0)
			return nil
		},
	}
}

func printNested(w io.Writer, nodes []category.NestedRecord, indent int) {
	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s%s  #%d  %s\n", strings.Repeat("  ", indent), n.Name, n.ID, n.Slug)
		printNested(w, n.Children, indent+1)
	}
}

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <id>",
		Short: "Print the path from the root to a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			screen, err := a.loadScreen(cmd.Context())
			if err != nil {
				return err
			}
			crumbs, err := screen.Breadcrumbs(id)
			if err != nil {
				return fmt.Errorf("category %d: %w", id, err)
			}
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, crumbs)
			}
			names := make([]string, len(crumbs))
			for i, c := range crumbs {
				names[i] = c.Name
			}
			_, _ = fmt.Fprintln(out, strings.Join(names, " / "))
			_, _ = fmt.Fprintln(out, crumbs[len(crumbs)-1].Slug)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List categories whose name or slug contains query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.loadScreen(cmd.Context())
			if err != nil {
				return err
			}
			tree, _ := screen.Tree()
			matches := tree.Filter(args[0])
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, matches)
			}
			for _, rec := range matches {
				_, _ = fmt.Fprintf(out, "#%d  %s  %s\n", rec.ID, rec.Name, rec.Slug)
			}
			return nil
		},
	}
}

func newSlugCmd(a *app) *cobra.Command {
	var parentID int64
	cmd := &cobra.Command{
		Use:   "slug <name>",
		Short: "Preview the slug of a new category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.loadScreen(cmd.Context())
			if err != nil {
				return err
			}
			slug, err := screen.SlugPreview(parentID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), slug)
			return nil
		},
	}
	cmd.Flags().Int64Var(&parentID, "parent", category.NoParent, "Parent category id (0 for root)")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check the stored hierarchy for broken parent links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			records, rev, err := a.repo.FetchFlatList(cmd.Context())
			if err != nil {
				return err
			}
			violations := category.CheckRecords(records)
			out := cmd.OutOrStdout()
			for _, v := range violations {
				_, _ = fmt.Fprintln(out, v.String())
			}
			if len(violations) > 0 {
				return fmt.Errorf("revision %d has %d integrity violations", int64(rev), len(violations))
			}
			_, _ = fmt.Fprintf(out, "revision %d: %d categories, no violations\n", int64(rev), len(records))
			return nil
		},
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegiv/catadmin/internal/category"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		parentID int64
		slug     string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.loadScreen(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")

			var rec category.Record
			if slug != "" {
				rec, err = a.repo.CreateCategory(cmd.Context(), name, slug, parentID)
			} else {
				rec, err = screen.Create(cmd.Context(), name, parentID)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, rec)
			}
			_, _ = fmt.Fprintf(out, "created #%d %s\n", rec.ID, rec.Slug)
			return nil
		},
	}
	cmd.Flags().Int64Var(&parentID, "parent", category.NoParent, "Parent category id (0 for root)")
	cmd.Flags().StringVar(&slug, "slug", "", "Explicit slug (generated from the parent path when empty)")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var parentID int64
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a category and its subtree under a new parent",
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
			plan, err := screen.Move(cmd.Context(), id, parentID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plan.NoOp() {
				_, _ = fmt.Fprintf(out, "category %d is already there\n", id)
				return nil
			}
			_, rev := screen.Tree()
			_, _ = fmt.Fprintf(out, "moved %d categories, revision %d\n", len(plan.Affected), int64(rev))
			return nil
		},
	}
	cmd.Flags().Int64Var(&parentID, "to", category.NoParent, "New parent id (0 for root)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category without children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			if err := a.screen.Delete(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
			return nil
		},
	}
}

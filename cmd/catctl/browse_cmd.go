// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/olegiv/catadmin/internal/tui"
	"github.com/olegiv/catadmin/internal/version"
)

func newBrowseCmd(a *app) *cobra.Command {
	var focus int64
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive cascading selector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ts, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			if err := ts.Init(); err != nil {
				return fmt.Errorf("initializing terminal: %w", err)
			}
			defer ts.Fini()

			b := tui.New(a.screen, a.logger)
			if focus != 0 {
				if err := a.screen.Load(cmd.Context()); err == nil {
					_, _ = a.screen.Focus(focus)
				}
			}
			return b.Run(cmd.Context(), ts)
		},
	}
	cmd.Flags().Int64Var(&focus, "focus", 0, "Open the selector at this category")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catctl %s\n", version.Get())
		},
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spectranet/internal/apiclient"
	"spectranet/internal/store"
	"spectranet/internal/taxonomy"
)

var journalLimit int

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the category tree served by the catalog API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		api := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.APITimeout))
		tree, err := api.CategoryTree(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch category tree: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, n := range taxonomy.FromTree(tree).Flatten() {
			fmt.Fprintf(out, "%s%s (#%d)\n", strings.Repeat("  ", n.Depth), n.Name, n.ID)
		}
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List the most recent uploads recorded by the wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.JournalEnabled() {
			return errors.New("POSTGRES_HOST is not set, the upload journal is disabled")
		}
		db, err := openJournal(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := store.NewUploadJournal(db).Recent(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tDATASET\tUSER\tKIND\tFILE\tLABEL\tRESULT")
		for _, e := range entries {
			result := fmt.Sprintf("ok (%d samples)", e.SamplesAdded)
			if !e.Succeeded {
				result = "failed: " + e.Error
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.DatasetID, e.UserID, e.Kind, e.Filename, e.Label, result)
		}
		return tw.Flush()
	},
}

var categoryLogCmd = &cobra.Command{
	Use:   "category-log",
	Short: "List the most recent category changes made by administrators",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.JournalEnabled() {
			return errors.New("POSTGRES_HOST is not set, the category log is disabled")
		}
		db, err := openJournal(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		changes, err := store.NewCategoryLog(db).Recent(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tCATEGORY\tACTION\tNAME\tPARENT\tUSER")
		for _, c := range changes {
			parent := "-"
			if c.ParentID != nil {
				parent = fmt.Sprintf("#%d", *c.ParentID)
			}
			fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%s\t%d\n",
				c.ChangedAt.Format("2006-01-02 15:04:05"), c.CategoryID, c.Action, c.Name, parent, c.UserID)
		}
		return tw.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{journalCmd, categoryLogCmd} {
		c.Flags().IntVar(&journalLimit, "limit", 20, "number of entries to show")
	}
	rootCmd.AddCommand(categoriesCmd, journalCmd, categoryLogCmd)
}

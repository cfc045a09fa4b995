package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
)

func codesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Browse the loaded tariff schedule",
	}

	cmd.AddCommand(codesShowCmd())
	cmd.AddCommand(codesChaptersCmd())

	return cmd
}

func codesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <hts-code>",
		Short: "Show a code with its lineage and children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(db)

			store, err := loadStore(ctx, db)
			if err != nil {
				return err
			}

			node, err := store.Lookup(args[0])
			if err != nil {
				return err
			}

			ancestors, err := store.Ancestors(node.Code)
			if err != nil {
				return err
			}
			for i, a := range ancestors {
				indent := strings.Repeat("  ", i)
				line := fmt.Sprintf("%s%s  %s", indent, cli.FormatCode(a.Code), a.Description)
				if a.Code == node.Code {
					line = cli.BoldStyle.Render(line)
				}
				fmt.Println(line)
			}

			if node.GeneralRate != "" {
				fmt.Println()
				fmt.Println(cli.FormatInfo("general rate: " + node.GeneralRate))
			}
			programs := make([]string, 0, len(node.SpecialRates))
			for program := range node.SpecialRates {
				programs = append(programs, program)
			}
			sort.Strings(programs)
			for _, program := range programs {
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  %s: %s", program, node.SpecialRates[program])))
			}

			children, err := store.Children(node.Code)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				fmt.Println()
				fmt.Println(cli.SubtleStyle.Render("Children:"))
				for _, c := range children {
					fmt.Printf("  %s  %s\n", cli.FormatCode(c.Code), c.Description)
				}
			}
			return nil
		},
	}
}

func codesChaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters",
		Short: "List the loaded chapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(db)

			store, err := loadStore(ctx, db)
			if err != nil {
				return err
			}

			printChapters(store)
			return nil
		},
	}
}

func printChapters(store *hierarchy.Store) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Schedule revision %s, %d nodes", store.Revision(), store.Len())))
	for _, chapter := range store.Chapters() {
		node, err := store.Lookup(chapter)
		if err != nil {
			continue
		}
		fmt.Printf("  %s  %s\n", node.Code, node.Description)
	}
}

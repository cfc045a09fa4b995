package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past classifications",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum records to show")
	cmd.Flags().Int("offset", 0, "records to skip")
	cmd.Flags().String("since", "", "only records on or after this date (YYYY-MM-DD)")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter := service.RecordFilter{
		Limit:  mustInt(cmd, "limit"),
		Offset: mustInt(cmd, "offset"),
	}
	if raw := mustString(cmd, "since"); raw != "" {
		since, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid --since date %q, want YYYY-MM-DD", raw)
		}
		filter.Since = &since
	}

	db, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStorage(db)

	records, err := db.GetClassificationRecords(ctx, filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(cli.FormatInfo("no classifications recorded yet"))
		return nil
	}

	fmt.Println(cli.FormatTitle("Classification history"))
	for _, r := range records {
		line := fmt.Sprintf("%s  %-16s %3.0f%%  %s",
			r.CreatedAt.Format("2006-01-02 15:04"),
			cli.FormatCode(r.PrimaryCode),
			r.Confidence*100,
			r.Description)
		if r.NeedsClarification {
			line += cli.WarningStyle.Render("  (needs clarification)")
		}
		fmt.Println(line)
	}
	return nil
}

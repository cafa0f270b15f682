package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mergestat/timediff"
	"github.com/minecom/minedash/internal/database"
	"github.com/spf13/cobra"
)

var historyCmdFlags struct {
	Limit int
	Type  string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent audit events",
	Long:  `Display statistics and the most recent events of the local audit database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Audit Statistics:")
		fmt.Printf("Total Events: %d\n", stats.HistoryEvents)
		for _, t := range slices.Sorted(maps.Keys(stats.ByType)) {
			fmt.Printf("  %s: %d\n", t, stats.ByType[t])
		}

		var events []database.HistoryEvent
		if historyCmdFlags.Type != "" {
			events, _, err = db.GetHistoryEventsByEventType(cmd.Context(), database.HistoryEventType(historyCmdFlags.Type), 1, historyCmdFlags.Limit)
		} else {
			events, _, err = db.GetHistoryEvents(cmd.Context(), 1, historyCmdFlags.Limit, "event_time", database.SortOrderDesc)
		}
		if err != nil {
			return fmt.Errorf("failed to get history events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		fmt.Println("\nRecent Events:")
		for _, e := range events {
			subject := "-"
			if e.SubjectID != nil {
				subject = fmt.Sprint(*e.SubjectID)
			}
			fmt.Printf("  %s (%s)  %-20s actor: %d, subject: %s %s\n",
				e.EventTime.Format("2006-01-02 15:04:05"), timediff.TimeDiff(e.EventTime),
				e.EventType, e.ActorID, subject, e.Details)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyCmdFlags.Limit, "limit", "n", 10, "Number of events to show")
	historyCmd.Flags().StringVar(&historyCmdFlags.Type, "type", "", "Only show events of this type (e.g. sign_in, user_deleted)")
	rootCmd.AddCommand(historyCmd)
}

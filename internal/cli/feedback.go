package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/feedback"
	"github.com/ppiankov/factsift/internal/model"
)

var (
	feedbackRating  int
	feedbackComment string
	feedbackLimit   int
	feedbackQuery   string
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and inspect user feedback",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Record a rating for a query",
	Long: `Record one feedback entry in the configured store.

Example:
  factsift feedback add "백신이 부작용을 일으킨다" --rating 2 --comment "outdated"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := store.Record(context.Background(), model.FeedbackRecord{
			Query:   strings.Join(args, " "),
			Rating:  feedbackRating,
			Comment: feedbackComment,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded feedback #%d\n", rec.ID)
		return nil
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent feedback, newest first",
	Long: `List stored feedback, newest first.

Example:
  factsift feedback list
  factsift feedback list --query "백신이 부작용을 일으킨다" --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		var records []model.FeedbackRecord
		if feedbackQuery != "" {
			records, err = store.FeedbackFor(context.Background(), feedbackQuery, feedbackLimit)
		} else {
			records, err = store.Recent(context.Background(), feedbackLimit)
		}
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No feedback recorded")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTIME\tRATING\tQUERY\tCOMMENT")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
				r.ID, r.CreatedAt.Format(time.DateTime), r.Rating, r.Query, r.Comment)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)

	feedbackAddCmd.Flags().IntVar(&feedbackRating, "rating", 0, "rating from 1 to 5")
	feedbackAddCmd.Flags().StringVar(&feedbackComment, "comment", "", "free-text comment")
	_ = feedbackAddCmd.MarkFlagRequired("rating")

	feedbackListCmd.Flags().IntVar(&feedbackLimit, "limit", feedback.MaxRelated, "maximum entries to show")
	feedbackListCmd.Flags().StringVar(&feedbackQuery, "query", "", "only entries for this exact query")
}

func openStore() (feedback.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := feedback.Open(context.Background(), cfg.Feedback, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close feedback store", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

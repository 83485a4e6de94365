package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factsift/internal/feedback"
)

// factWriter is implemented by stores that keep a reference_facts table
type factWriter interface {
	PutFact(ctx context.Context, query, fact string) error
}

var _ factWriter = (*feedback.SQLStore)(nil)

// knowledgeCmd represents the knowledge command
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage database facts used as primary evidence",
}

var knowledgeAddCmd = &cobra.Command{
	Use:   "add <query> <fact>",
	Short: "Store or replace the fact for an exact query",
	Long: `Store the fact used as primary evidence when a check matches the query
exactly. Requires a sqlite or postgres feedback backend and
knowledge.source=store to take effect. A running server keeps using a
fact it has already read for up to knowledge.cache_ttl (0 disables
that cache).

Example:
  factsift knowledge add "백신이 부작용을 일으킨다" "Approved vaccines have documented, mostly mild side effects."`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		writer, ok := store.(factWriter)
		if !ok {
			return errors.New("feedback backend does not store facts; use sqlite or postgres")
		}

		query := strings.TrimSpace(args[0])
		if err := writer.PutFact(context.Background(), query, strings.TrimSpace(args[1])); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored fact for %q\n", query)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.AddCommand(knowledgeAddCmd)
}

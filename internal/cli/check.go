package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factsift/internal/app"
	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
)

var (
	checkMode    string
	checkLang    string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <query>",
	Short: "Check a single claim and print the JSON response",
	Long: `Run one claim through the full pipeline and print the same JSON the
/check endpoint returns.

Example:
  factsift check "백신이 부작용을 일으킨다"
  factsift check "The moon landing was staged" --lang en --mode general`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkMode, "mode", "", "verification mode (news, general)")
	checkCmd.Flags().StringVar(&checkLang, "lang", "", "display language (default: pipeline.display_language)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "total timeout for the check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, Version)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = a.Close() }()

	resp, err := a.Pipeline.Check(ctx, pipeline.CheckRequest{
		Query:    strings.Join(args, " "),
		Mode:     checkMode,
		Language: checkLang,
	})

	var out any = resp
	if err != nil {
		lang := checkLang
		if lang == "" {
			lang = cfg.Pipeline.DisplayLanguage
		}
		out = model.ErrorResponse(pipeline.UserMessage(err, i18n.For(lang)))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(out); encErr != nil {
		return fmt.Errorf("write response: %w", encErr)
	}

	return err
}

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/pipeline"
)

var (
	llmProvider string
	llmModel    string
	noCache     bool
	dryRun      bool
	skipDone    bool
	limit       int
	concurrency int
)

// llmRouteCmd represents the llm-route command
var llmRouteCmd = &cobra.Command{
	Use:   "llm-route <id>",
	Short: "Classify a single route and store its cotations",
	Long: `Classify one route's description with the LLM and write the recovered
grades to the route table's ai_cotations column.

The activity filter does not apply: naming an id is an explicit request.

Example:
  cotations llm-route 48613
  cotations llm-route 48613 --dry-run -v
  cotations llm-route 48613 --llm-provider ollama --llm-model mistral`,
	Args: cobra.ExactArgs(1),
	RunE: runLLMRoute,
}

// llmBulkCmd represents the llm-bulk command
var llmBulkCmd = &cobra.Command{
	Use:   "llm-bulk",
	Short: "Classify every eligible live route",
	Long: `Walk the live routes and classify every eligible one: wanted activity,
non-empty description, and (unless --skip=false) no grade data yet.
Routes are classified concurrently under the configured rate limit.

Example:
  cotations llm-bulk --limit 100
  cotations llm-bulk --skip=false --dry-run
  cotations llm-bulk --concurrency 8 --llm-provider ollama`,
	Args: cobra.NoArgs,
	RunE: runLLMBulk,
}

func init() {
	rootCmd.AddCommand(llmRouteCmd)
	rootCmd.AddCommand(llmBulkCmd)

	for _, cmd := range []*cobra.Command{llmRouteCmd, llmBulkCmd} {
		cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); overrides config")
		cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name; overrides config")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reply cache (force fresh classification)")
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print planned updates without writing")
	}

	llmBulkCmd.Flags().BoolVar(&skipDone, "skip", true, "skip routes that already have grade data")
	llmBulkCmd.Flags().IntVar(&limit, "limit", 0, "stop after examining this many routes (0 = no limit)")
	llmBulkCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = config value)")
}

// applyLLMOverrides folds the LLM flags into the configuration and pulls
// the provider credentials from the environment.
func applyLLMOverrides(cfg *model.Config) error {
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	// Get API key from environment
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

func extractOptions(cfg *model.Config) pipeline.Options {
	return pipeline.Options{
		Skip:        skipDone,
		Limit:       limit,
		DryRun:      dryRun,
		Verbose:     cfg.Output.Verbose,
		Concurrency: concurrency,
	}
}

func runLLMRoute(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid route id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyLLMOverrides(cfg); err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	return p.ProcessRoute(cmd.Context(), id, extractOptions(cfg))
}

func runLLMBulk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyLLMOverrides(cfg); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider:    %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Skip done:   %v\n", skipDone)
		fmt.Fprintf(os.Stderr, "Limit:       %d\n", limit)
		fmt.Fprintf(os.Stderr, "Dry run:     %v\n", dryRun)
		fmt.Fprintln(os.Stderr)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	summary, err := p.ProcessBulk(cmd.Context(), extractOptions(cfg))
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Examined:          %d\n", summary.Processed)
		fmt.Fprintf(os.Stderr, "  Classified:        %d\n", summary.Selected)
		fmt.Fprintf(os.Stderr, "  Updated:           %d\n", summary.Updated)
		fmt.Fprintf(os.Stderr, "  Failed:            %d\n", summary.Failed)
		fmt.Fprintf(os.Stderr, "  Skipped: activity  %d\n", summary.SkippedActivity)
		fmt.Fprintf(os.Stderr, "  Skipped: has data  %d\n", summary.SkippedExisting)
		fmt.Fprintf(os.Stderr, "  Skipped: no text   %d\n", summary.SkippedEmpty)
	}
	return nil
}

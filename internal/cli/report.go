package cli

import (
	"github.com/spf13/cobra"

	"github.com/routebeta/cotations/internal/pipeline"
)

// pendingCmd represents the pending command
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Count the routes a bulk run would classify",
	Long: `List the live routes that still need extraction: no grade data yet,
wanted activity, and a description that mentions at least one grade.

Example:
  cotations pending
  cotations pending -v`,
	Args: cobra.NoArgs,
	RunE: runPending,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report extraction progress and cost estimates",
	Long: `Walk the live routes and report how far extraction has come: how many
eligible routes exist, how many carry results, how many grade pairs
were recovered, and token, cost and time estimates for a full run.

Example:
  cotations stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the declared type of route.ai_cotations",
	Long: `Print the declared column type of route.ai_cotations, a quick check
that the table is ready to receive extraction output.

Example:
  cotations schema`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	_, err = p.Pending(cmd.Context(), cfg.Output.Verbose)
	return err
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	_, err = p.Stats(cmd.Context())
	return err
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	return p.Schema(cmd.Context())
}

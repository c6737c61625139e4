package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routebeta/cotations/internal/pipeline"
)

// csvRouteCmd represents the csv-route command
var csvRouteCmd = &cobra.Command{
	Use:   "csv-route <id> [csv]",
	Short: "Import one route's cotations from a result CSV",
	Long: `Look up one route id in a result CSV and write its cotations to the
database. The CSV defaults to the result file of the reduce step.

Example:
  cotations csv-route 48613
  cotations csv-route 48613 /tmp/result.csv --dry-run`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCSVRoute,
}

// csvBulkCmd represents the csv-bulk command
var csvBulkCmd = &cobra.Command{
	Use:   "csv-bulk [csv]",
	Short: "Import a whole result CSV into the database",
	Long: `Import every row of a result CSV into the route table. Rows with a
non-numeric id or a mangled cotations cell are skipped; rows naming an
unknown route count as processed but update nothing.

Example:
  cotations csv-bulk
  cotations csv-bulk /tmp/result.csv --limit 500 --dry-run
  cotations csv-bulk --skip=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCSVBulk,
}

func init() {
	rootCmd.AddCommand(csvRouteCmd)
	rootCmd.AddCommand(csvBulkCmd)

	csvRouteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the planned update without writing")

	csvBulkCmd.Flags().BoolVar(&skipDone, "skip", true, "skip routes that already have grade data")
	csvBulkCmd.Flags().IntVar(&limit, "limit", 0, "stop after examining this many rows (0 = no limit)")
	csvBulkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print planned updates without writing")
}

func runCSVRoute(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid route id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	csvPath := dataPath(cfg, "", "result.csv")
	if len(args) == 2 {
		csvPath = args[1]
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	return p.ImportRoute(cmd.Context(), id, csvPath, extractOptions(cfg))
}

func runCSVBulk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	csvPath := dataPath(cfg, "", "result.csv")
	if len(args) == 1 {
		csvPath = args[0]
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	_, err = p.ImportBulk(cmd.Context(), csvPath, extractOptions(cfg))
	return err
}

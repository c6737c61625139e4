package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/pipeline"
)

var (
	csvIn  string
	csvOut string

	routeCSV  string
	mappedCSV string
	resultCSV string

	mapStep    bool
	reduceStep bool
	insertStep bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the route table to CSV",
	Long: `Dump the whole route table to a ;-separated CSV file, the input of the
map step.

Example:
  cotations export
  cotations export --out /tmp/route.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Filter an exported CSV down to classifiable rows",
	Long: `Filter a route CSV down to the rows worth classifying: wanted activity,
live status, and a description that mentions at least one grade. The
output CSV (id;description) feeds the reduce step.

Example:
  cotations map
  cotations map --in /tmp/route.csv --out /tmp/mapped.csv`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

// reduceCmd represents the reduce command
var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Classify a mapped CSV into a result CSV",
	Long: `Run every row of a mapped CSV through the LLM classifier and write the
result CSV (id;cotations;ambiguous). Rows whose reply yields nothing
usable come out as ambiguous with an empty grade list.

Example:
  cotations reduce
  cotations reduce --in /tmp/mapped.csv --out /tmp/result.csv
  cotations reduce --llm-provider ollama --concurrency 2`,
	Args: cobra.NoArgs,
	RunE: runReduce,
}

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run export, map, reduce and import as one flow",
	Long: `Run the CSV steps end to end: export the route table, map it down to
classifiable rows, reduce those rows through the classifier, and
optionally import the results back into the database.

Each step can be toggled; the import step is off by default so results
can be reviewed before anything is written.

Example:
  cotations pipeline
  cotations pipeline --insert-step --skip --dry-run
  cotations pipeline --map-step=false --mapped-csv /tmp/mapped.csv`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(pipelineCmd)

	exportCmd.Flags().StringVar(&csvOut, "out", "", "output CSV path (default: <data_dir>/route.csv)")

	mapCmd.Flags().StringVar(&csvIn, "in", "", "input CSV path (default: <data_dir>/route.csv)")
	mapCmd.Flags().StringVar(&csvOut, "out", "", "output CSV path (default: <data_dir>/mapped.csv)")

	reduceCmd.Flags().StringVar(&csvIn, "in", "", "input CSV path (default: <data_dir>/mapped.csv)")
	reduceCmd.Flags().StringVar(&csvOut, "out", "", "output CSV path (default: <data_dir>/result.csv)")
	reduceCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = config value)")
	reduceCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); overrides config")
	reduceCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name; overrides config")
	reduceCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reply cache (force fresh classification)")

	pipelineCmd.Flags().StringVar(&routeCSV, "route-csv", "", "export CSV path (default: <data_dir>/route.csv)")
	pipelineCmd.Flags().StringVar(&mappedCSV, "mapped-csv", "", "mapped CSV path (default: <data_dir>/mapped.csv)")
	pipelineCmd.Flags().StringVar(&resultCSV, "result-csv", "", "result CSV path (default: <data_dir>/result.csv)")
	pipelineCmd.Flags().BoolVar(&mapStep, "map-step", true, "run the export and map steps")
	pipelineCmd.Flags().BoolVar(&reduceStep, "reduce-step", true, "run the reduce step")
	pipelineCmd.Flags().BoolVar(&insertStep, "insert-step", false, "import the result CSV into the database")
	pipelineCmd.Flags().BoolVar(&skipDone, "skip", true, "skip routes that already have grade data on import")
	pipelineCmd.Flags().IntVar(&limit, "limit", 0, "cap the number of imported rows (0 = no limit)")
	pipelineCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print planned imports without writing")
	pipelineCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = config value)")
	pipelineCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); overrides config")
	pipelineCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name; overrides config")
	pipelineCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reply cache (force fresh classification)")
}

// dataPath resolves a CSV path flag against the configured data directory
func dataPath(cfg *model.Config, flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(cfg.Paths.DataDir, name)
}

// ensureDir creates the parent directory of a file about to be written
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	out := dataPath(cfg, csvOut, "route.csv")
	if err := ensureDir(out); err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, st)
	return p.ExportRoutes(cmd.Context(), out)
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := dataPath(cfg, csvIn, "route.csv")
	out := dataPath(cfg, csvOut, "mapped.csv")
	if err := ensureDir(out); err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	return p.MapRoutes(in, out)
}

func runReduce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyLLMOverrides(cfg); err != nil {
		return err
	}

	in := dataPath(cfg, csvIn, "mapped.csv")
	out := dataPath(cfg, csvOut, "result.csv")
	if err := ensureDir(out); err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	return p.ReduceRoutes(cmd.Context(), in, out, extractOptions(cfg))
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reduceStep {
		if err := applyLLMOverrides(cfg); err != nil {
			return err
		}
	}

	route := dataPath(cfg, routeCSV, "route.csv")
	mapped := dataPath(cfg, mappedCSV, "mapped.csv")
	result := dataPath(cfg, resultCSV, "result.csv")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	ctx := cmd.Context()
	opts := extractOptions(cfg)

	if mapStep {
		if err := ensureDir(route); err != nil {
			return err
		}
		if err := p.ExportRoutes(ctx, route); err != nil {
			return fmt.Errorf("export step: %w", err)
		}
		if err := ensureDir(mapped); err != nil {
			return err
		}
		if err := p.MapRoutes(route, mapped); err != nil {
			return fmt.Errorf("map step: %w", err)
		}
	}

	if reduceStep {
		if err := ensureDir(result); err != nil {
			return err
		}
		if err := p.ReduceRoutes(ctx, mapped, result, opts); err != nil {
			return fmt.Errorf("reduce step: %w", err)
		}
	}

	if insertStep {
		if _, err := p.ImportBulk(ctx, result, opts); err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}

	return nil
}

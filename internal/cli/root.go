package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/routebeta/cotations/internal/model"
	"github.com/routebeta/cotations/internal/store"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cotations",
	Short: "Cotations - climbing grade extraction for route descriptions",
	Long: `Cotations extracts climbing grades (cotations) from free-text route
descriptions in the topo database.

Route descriptions are multilingual prose written by topo editors. Many
mention the difficulty of the pitches in French or UIAA notation. This
tool sends eligible descriptions to an LLM classifier, recovers a
structured grade histogram from the reply, and writes it back to the
route table's ai_cotations column.

Routes can be processed directly against the database, or through a
CSV pipeline (export, map, reduce, import) when the classification
step needs to run away from production.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Cotations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cotations v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.cotations/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.cotations")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match COTATIONS_*
	viper.SetEnvPrefix("COTATIONS")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file over the built-in defaults. Secrets
// come from the environment so they never have to live in the file.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if cfg.Database.Password == "" {
		cfg.Database.Password = os.Getenv("COTATIONS_DB_PASSWORD")
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return &cfg, nil
}

// openStore connects to the configured route database
func openStore(cfg *model.Config) (store.Interface, error) {
	st, err := store.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := st.Open(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

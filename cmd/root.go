package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/scantrack/internal/clierr"
	"github.com/pders01/scantrack/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

var (
	cfgFile string
	quiet   bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "scantrack",
	Short: "Record gitleaks pre-commit scans in every commit",
	Long: `scantrack runs after the gitleaks pre-commit hook and records whether the
secret scan actually ran:
  - writes a tracking record (commit, branch, author, scan status, tool versions)
  - annotates the commit message when the scan report was found
  - removes the transient scan report so it is never committed

Commits made with SKIP=gitleaks or --no-verify are flagged as possibly skipped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the error's exit code
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+" then $HOME/.config/scantrack/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print config and backend details")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the scantrack version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scantrack %s\n", Version)
		},
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, filepath.Ext(config.FileName)))
	}

	viper.SetEnvPrefix("SCANTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil && cfgFile == "" {
		// fall back to the user config
		if home, herr := os.UserHomeDir(); herr == nil {
			viper.SetConfigFile(filepath.Join(home, ".config", "scantrack", "config.toml"))
			err = viper.ReadInConfig()
		}
	}

	switch {
	case err == nil:
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		fmt.Fprintf(os.Stderr, "Warning: failed to read config %s: %v\n", cfgFile, err)
	}
}

// commandContext returns the command's context, tolerating the nil command
// passed by tests
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// stdout returns the command's output stream
func stdout(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.OutOrStdout()
	}
	return os.Stdout
}

// stderr returns the command's error stream
func stderr(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}

// Package cmd provides the command-line interface for central-admin.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/parisxmas/central-admin/internal/config"
	"github.com/parisxmas/central-admin/internal/console"
	"github.com/parisxmas/central-admin/internal/session"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	cfg      *config.Config
	envFile  string
	baseURL  string
	jsonMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "central-admin",
	Short: "Administer a data collection server from the terminal or the browser.",
	Long: `central-admin signs in to a data collection server and manages its ` +
		`projects, forms, submissions, app users and backups. ` +
		"`central-admin serve` runs the web console backend.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg = config.Load(files...)
		if baseURL != "" {
			cfg.CentralURL = baseURL
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Server URL (overrides CENTRAL_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "Print JSON instead of tables")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit handlers run before the process ends.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// cliConsole returns a console whose session lives in the encrypted session
// file.
func cliConsole() (*console.Console, error) {
	tokens, err := session.NewFileStore(cfg.SessionFile, []byte(cfg.SessionSecret))
	if err != nil {
		return nil, err
	}
	return console.New("cli", console.Config{
		BaseURL:       cfg.CentralURL,
		Timeout:       cfg.Timeout,
		MaxUploadSize: cfg.MaxUploadSize,
		UserAgent:     "central-admin-cli",
		Tokens:        tokens,
	})
}

// signedIn restores the persisted session.
func signedIn(ctx context.Context) (*console.Console, error) {
	c, err := cliConsole()
	if err != nil {
		return nil, err
	}
	if err := c.Restore(ctx); err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
			return nil, fmt.Errorf("not logged in, run `central-admin login` first")
		}
		return nil, err
	}
	return c, nil
}

// alertError replaces err with the console's banner message, which is what a
// user should read.
func alertError(c *console.Console, err error) error {
	if a, ok := c.Banner.Current(); ok && err != nil {
		return errors.New(a.Message)
	}
	return err
}

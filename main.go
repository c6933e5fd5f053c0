package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var (
	settingsPath string
	logLevel     string
	logFile      string
	metricsFile  string
	assumeYes    bool
	dryRun       bool
	strict       bool
)

var rootCmd = &cobra.Command{
	Use:           "mural-publisher",
	Short:         "Publish mural submissions to Contentful",
	Long:          `Walks a directory of mural submissions (template.txt plus photos), uploads the photos and publishes one mural entry per submission.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Report every content type with its fields and entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		reports, err := a.admin.FetchAllContent(cmd.Context())
		if err != nil {
			return err
		}
		printContentReports(cmd.OutOrStdout(), reports)
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:     "pt [root-directory]",
	Aliases: []string{"process"},
	Short:   "Process the submission tree and publish new murals",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		root := a.config.Settings.RootDirectory
		if len(args) > 0 {
			root = args[0]
		}

		ctx := cmd.Context()
		if !dryRun {
			cache := a.publisher.TitleCache()
			if err := cache.Load(ctx); err != nil {
				return err
			}
			a.log.Infof("Loaded %d existing titles", cache.Len())
		}

		summary, err := a.processor.ProcessDirectory(ctx, root)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), summary)
		fmt.Fprintf(cmd.OutOrStdout(), "Processed %d submissions\n", summary.Published)
		a.writeMetrics()
		return nil
	},
}

var checkAPICmd = &cobra.Command{
	Use:   "checkApi",
	Short: "Check connectivity and list the content type schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		check, err := a.admin.CheckAPI(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connected to space %q (%s)\n", check.Space.Name, check.Space.Sys.ID)
		fmt.Fprintf(out, "API base URL: %s\n", a.client.APIURL())
		fmt.Fprintf(out, "Locale: %s\n", a.client.Locale())
		printContentTypes(out, check.ContentTypes)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <content-type>",
	Short: "Unpublish and delete every entry of a content type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		confirmer, err := newConfirmer()
		if err != nil {
			return err
		}
		report, err := a.admin.DeleteAllEntries(cmd.Context(), args[0], confirmer)
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted, nothing deleted.")
			return nil
		}
		if err != nil {
			return err
		}
		printBulkReport(cmd.OutOrStdout(), report)
		a.writeMetrics()
		return nil
	},
}

var deleteAssetsCmd = &cobra.Command{
	Use:   "deleteAssets",
	Short: "Unpublish and delete every asset of the space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		confirmer, err := newConfirmer()
		if err != nil {
			return err
		}
		report, err := a.admin.DeleteAllAssets(cmd.Context(), confirmer)
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted, nothing deleted.")
			return nil
		}
		if err != nil {
			return err
		}
		printBulkReport(cmd.OutOrStdout(), report)
		a.writeMetrics()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to a settings YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and scan submissions without publishing")
	processCmd.Flags().BoolVar(&strict, "strict", false, "Fail submissions with unmatched template lines or missing fields")

	rootCmd.AddCommand(triggerCmd, processCmd, checkAPICmd, deleteCmd, deleteAssetsCmd)
}

func configOverrides() *ConfigOverrides {
	overrides := &ConfigOverrides{}
	if settingsPath != "" {
		overrides.SettingsPath = &settingsPath
	}
	if logLevel != "" {
		overrides.LogLevel = &logLevel
	}
	if logFile != "" {
		overrides.LogFile = &logFile
	}
	if metricsFile != "" {
		overrides.MetricsFile = &metricsFile
	}
	return overrides
}

func newConfirmer() (Confirmer, error) {
	if assumeYes {
		return autoConfirmer{}, nil
	}
	return NewTerminalConfirmer()
}

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", rec)
			code = 1
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Interrupted.")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if strings.HasPrefix(err.Error(), "unknown command") {
			fmt.Fprintln(os.Stderr, "Available commands:")
			for _, c := range rootCmd.Commands() {
				if c.IsAvailableCommand() {
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.Name(), c.Short)
				}
			}
		}
		return 1
	}
	return 0
}

// txpull — pulls translations from Transifex and merges them with the
// previously committed ones so incomplete translations fall back to the
// last good value instead of reverting to English.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/dusted-go/logging/prettylog"
	"github.com/mattn/go-isatty"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/spf13/cobra"

	"github.com/l10ntools/txpull/config"
	"github.com/l10ntools/txpull/i18n"
	"github.com/l10ntools/txpull/langmeta"
	"github.com/l10ntools/txpull/pull"
	"github.com/l10ntools/txpull/pullstate"
	"github.com/l10ntools/txpull/settings"
	"github.com/l10ntools/txpull/transifex"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func initLogging(verbose bool) {
	logLvl := slog.LevelInfo
	if verbose {
		logLvl = slog.LevelDebug
	}
	w := os.Stderr

	logger := slog.New(
		slogformatter.NewFormatterHandler(
			slogformatter.ErrorFormatter("error"),
		)(
			prettylog.New(&slog.HandlerOptions{Level: logLvl},
				prettylog.WithDestinationWriter(w),
				func() prettylog.Option {
					if isatty.IsTerminal(w.Fd()) {
						return prettylog.WithColor()
					}
					return func(_ *prettylog.Handler) {}
				}(),
			),
		),
	)
	slog.SetDefault(logger)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir   string
	tokenFile string
	verbose   bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txpull",
		Short: "Pull and merge translations from Transifex",
		Long: `txpull — pull translations from Transifex and merge them with the
previously committed translations.

Resources are declared in a .txpull.yaml manifest at the project root.
For .strings and YAML resources, incomplete entries in a fresh download
fall back to the committed translation instead of reverting to English.

The API token is read from --token-file, TXPULL_TOKEN, or a
transifex_api_token file (working directory, then executable directory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initLogging(verbose)
			i18n.Init("")
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory (location of .txpull.yaml)")
	root.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Transifex API token file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newPullCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("txpull version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// pull
// ---------------------------------------------------------------------------

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Download and merge all manifest resources",
		Long: `Download every resource declared in .txpull.yaml, apply the
format-specific merge, and write one file per language.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context())
		},
	}
}

func runPull(ctx context.Context) error {
	manifest, client, err := loadManifestAndClient()
	if err != nil {
		return err
	}

	if manifest.Project != "" {
		slog.Info("pulling project", "project", manifest.Project)
	}

	state, err := pullstate.Load(rootDir)
	if err != nil {
		return err
	}
	slog.Debug("pull state", "summary", state.Summary())

	pulled := 0
	for i := range manifest.Resources {
		r := &manifest.Resources[i]

		opts := pull.Options{
			BOM:        r.BOM != nil && *r.BOM,
			Encoding:   r.Encoding,
			SourceLang: manifest.SourceLang,
			State:      state,
		}
		err := pull.ProcessResource(ctx, client, r.URL, r.Languages.LangMap(),
			r.Master, r.OutputPath, r.Mutator(manifest.SourceLang), opts)
		if err != nil {
			return fmt.Errorf("resource %s: %w", r.Name, err)
		}
		pulled += len(r.Languages)
	}

	if err := state.Save(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, i18n.N("Pulled %d language", "Pulled %d languages", pulled)+"\n", pulled)
	return nil
}

// ---------------------------------------------------------------------------
// status (read-only: per-resource completion stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-language completion for all manifest resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	manifest, client, err := loadManifestAndClient()
	if err != nil {
		return err
	}

	for i := range manifest.Resources {
		r := &manifest.Resources[i]

		_, projID, resID, err := transifex.ParseResourceURL(r.URL)
		if err != nil {
			return fmt.Errorf("resource %s: %w", r.Name, err)
		}
		stats, err := client.ResourceStats(ctx, projID, resID)
		if err != nil {
			return fmt.Errorf("resource %s: %w", r.Name, err)
		}

		fmt.Fprintf(os.Stderr, "\n%s: %s\n", i18n.T("Resource"), r.Name)
		fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
		for _, p := range r.Languages {
			s, ok := stats[p.Remote]
			if !ok {
				fmt.Fprintf(os.Stderr, "  %-10s %-24s -\n", p.Remote, langmeta.Name(p.Remote))
				continue
			}
			fmt.Fprintf(os.Stderr, "  %-10s %-24s %3.0f%% (%d/%d)\n",
				p.Remote, langmeta.Name(p.Remote), s.Completion()*100, s.Translated, s.Total)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Shared setup
// ---------------------------------------------------------------------------

func loadManifestAndClient() (*config.File, *transifex.Client, error) {
	manifest, err := config.Load(rootDir)
	if err != nil {
		return nil, nil, err
	}
	if manifest == nil {
		return nil, nil, fmt.Errorf("%s (--root %s)", i18n.T("No .txpull.yaml manifest found"), rootDir)
	}

	token, err := settings.LoadToken(tokenFile)
	if err != nil {
		return nil, nil, err
	}

	return manifest, transifex.NewClient(transifex.Config{Token: token}), nil
}

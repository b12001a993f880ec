package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/config"
	"github.com/ziadkadry99/kqlcatalog/internal/counts"
	"github.com/ziadkadry99/kqlcatalog/internal/progress"
	"github.com/ziadkadry99/kqlcatalog/internal/site"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Generate the static documentation site",
	Long:  `Generates a self-contained static HTML site from the rule catalog and the static content directory, with search, navigation, themes and pre-rendered modals.`,
	RunE:  runSite,
}

func init() {
	siteCmd.Flags().String("output", "", "override output directory (defaults to output_dir)")
	siteCmd.Flags().Bool("watch", false, "regenerate when the catalog or content changes")
	rootCmd.AddCommand(siteCmd)
}

// newGenerator builds a site generator from cfg writing to outputDir.
func newGenerator(cfg *config.Config, outputDir string, logger *zap.Logger) (*site.Generator, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	g := site.NewGenerator(cat, cfg.ContentDir, outputDir)
	g.Title = cfg.SiteTitle
	g.Sanitize = cfg.Modal.Sanitize
	g.Counter = counts.NewCounter(cfg.ContentDir, cfg.Counts, logger)
	g.Logger = logger
	if strings.Contains(cfg.BaseURL, "://") {
		g.Fetcher = newFetcher(cfg, logger)
	}
	return g, nil
}

func runSite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	g, err := newGenerator(cfg, outputDir, logger)
	if err != nil {
		return err
	}
	g.Reporter = progress.NewReporter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pageCount, err := g.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating site: %w", err)
	}
	fmt.Printf("Static site generated: %s (%d pages)\n", outputDir, pageCount)

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	// Rebuilds are logged rather than drawn as progress bars.
	g.Reporter = progress.NewLogged(logger)
	fmt.Fprintf(os.Stderr, "Watching %s and %s for changes. Press Ctrl+C to stop.\n", cfg.CatalogFile, cfg.ContentDir)
	return g.Watch(ctx, cfg.CatalogFile, site.DefaultDebounce, func(err error) {
		if err != nil {
			logger.Warn("rebuild failed", zap.Error(err))
			return
		}
		logger.Info("site rebuilt", zap.String("output", outputDir))
	})
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/db"
	"github.com/ziadkadry99/kqlcatalog/internal/progress"
	"github.com/ziadkadry99/kqlcatalog/internal/server"
	"github.com/ziadkadry99/kqlcatalog/internal/site"
)

// purgeInterval is how often expired sessions are removed.
const purgeInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the documentation site with the modal and theme API",
	Long: `Generates the site, then serves it together with a JSON API that loads
modal content on demand, keeps one active modal per browser session and
remembers each session's theme.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (defaults to server.port)")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	serveCmd.Flags().Bool("watch", false, "regenerate and reload the catalog when files change")
	serveCmd.Flags().Bool("no-build", false, "serve the existing output directory without generating")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := newGenerator(cfg, cfg.OutputDir, logger)
	if err != nil {
		return err
	}
	g.Reporter = progress.NewLogged(logger)
	if noBuild, _ := cmd.Flags().GetBool("no-build"); !noBuild {
		if _, err := g.Generate(ctx); err != nil {
			return fmt.Errorf("generating site: %w", err)
		}
	}

	// Open database.
	dbPath := filepath.Join(cfg.Server.DataDir, "sessions.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	srv := server.New(server.Config{
		Port:       port,
		SiteDir:    cfg.OutputDir,
		AllowAll:   cfg.Server.AllowAllOrigins,
		SessionTTL: cfg.Server.SessionTTL.Std(),
		Sanitize:   cfg.Modal.Sanitize,
	}, database, g.Catalog, newFetcher(cfg, logger), logger)

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		go func() {
			err := g.Watch(ctx, cfg.CatalogFile, site.DefaultDebounce, func(err error) {
				if err == nil {
					srv.SetCatalog(g.Catalog)
					logger.Info("catalog reloaded", zap.Int("platforms", len(g.Catalog.Platforms)))
				}
			})
			if err != nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := fmt.Sprintf("http://localhost:%d", port)
	if open, _ := cmd.Flags().GetBool("open"); open {
		go openBrowser(url)
	}

	fmt.Fprintf(os.Stderr, "kqlcatalog %s serving at %s\n", Version, url)
	fmt.Fprintf(os.Stderr, "  Site: %s\n", cfg.OutputDir)
	fmt.Fprintf(os.Stderr, "  Content: %s\n", cfg.ContentBase())
	fmt.Fprintf(os.Stderr, "  Sessions: %s\n", dbPath)

	return srv.Start(purgeInterval)
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}

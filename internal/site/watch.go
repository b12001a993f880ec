package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// DefaultDebounce is how long Watch waits after the last change before
// regenerating.
const DefaultDebounce = 300 * time.Millisecond

// Watch regenerates the site whenever the catalog file or the content
// directory changes, until ctx is cancelled. The catalog is reloaded before
// each rebuild; a catalog that fails to load keeps the previous site.
// onBuild, if set, is called after every rebuild attempt.
func (g *Generator) Watch(ctx context.Context, catalogPath string, debounce time.Duration, onBuild func(error)) error {
	logger := logging.OrNop(g.Logger)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	catalogAbs, err := filepath.Abs(catalogPath)
	if err != nil {
		return err
	}
	outputAbs, err := filepath.Abs(g.OutputDir)
	if err != nil {
		return err
	}
	contentAbs := ""
	if g.ContentDir != "" {
		contentAbs = mustAbs(g.ContentDir)
	}
	// Watch the catalog's directory; editors often replace files on save.
	if err := fsw.Add(filepath.Dir(catalogAbs)); err != nil {
		return err
	}
	if g.ContentDir != "" {
		if err := addTree(fsw, g.ContentDir, outputAbs); err != nil {
			return err
		}
	}

	changed := make(chan struct{}, 1)
	var timer *time.Timer
	trigger := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	logger.Info("watching for changes", zap.String("catalog", catalogPath), zap.String("content", g.ContentDir))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if within(abs, outputAbs) {
				continue
			}
			if abs != catalogAbs && (contentAbs == "" || !within(abs, contentAbs)) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addTree(fsw, ev.Name, outputAbs)
				}
			}
			logger.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			trigger()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-changed:
			err := g.rebuild(ctx, catalogPath)
			if err != nil {
				logger.Error("rebuild failed", zap.Error(err))
			}
			if onBuild != nil {
				onBuild(err)
			}
		}
	}
}

func (g *Generator) rebuild(ctx context.Context, catalogPath string) error {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	g.Catalog = cat
	_, err = g.Generate(ctx)
	return err
}

// addTree adds dir and every directory below it, skipping skip.
func addTree(fsw *fsnotify.Watcher, dir, skip string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if within(mustAbs(path), skip) {
			return filepath.SkipDir
		}
		if strings.HasPrefix(info.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

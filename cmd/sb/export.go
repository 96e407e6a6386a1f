package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitebuilder/internal/config"
	"sitebuilder/internal/engine"
	"sitebuilder/internal/export"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/section"
)

func exportCmd() *cobra.Command {
	var file, out, themeID string
	var watch bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project or a layout file as a static site",
		Long: `Export renders index.html, styles.css and manifest.json.
--out ending in .zip writes an archive; any other value is a directory.
Without --out the archive is named after the document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				if watch {
					return watchFile(cmd.Context(), file, out, themeID)
				}
				return exportFile(cmd.Context(), file, out, themeID)
			}
			if watch {
				return fmt.Errorf("--watch requires --file")
			}
			target, err := currentProject()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				art, err := e.ExportProject(ctx, target, viper.GetString("actor-id"), themeID)
				if err != nil {
					return err
				}
				return writeArtifact(art, out)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "layout document JSON to export instead of a stored project")
	cmd.Flags().StringVar(&out, "out", "", "output .zip path or directory")
	cmd.Flags().StringVar(&themeID, "theme", "", "theme override")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-export whenever --file changes")
	return cmd
}

func fileExporter() (*export.Exporter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	palette, err := cfg.Palette()
	if err != nil {
		return nil, err
	}
	x := export.New(section.Builtin(), palette)
	x.Logger = newLogger()
	if cfg.Export.Backend == config.BackendRemote {
		x.Backend = remoteBackend(cfg)
	}
	return x, nil
}

func exportFile(ctx context.Context, file, out, themeID string) error {
	x, err := fileExporter()
	if err != nil {
		return err
	}
	return exportFileWith(ctx, x, file, out, themeID)
}

func exportFileWith(ctx context.Context, x *export.Exporter, file, out, themeID string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	doc, err := layout.Decode(raw)
	if err != nil {
		return err
	}
	art, err := x.Export(ctx, doc, themeID)
	if err != nil {
		return err
	}
	return writeArtifact(art, out)
}

// writeArtifact stores art as a zip archive or as loose files and reports
// sections that fell back to a placeholder.
func writeArtifact(art export.Artifact, out string) error {
	if out == "" {
		out = export.ArchiveName(art.Name)
	}
	if strings.EqualFold(filepath.Ext(out), ".zip") {
		data, err := export.Archive(art)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		for _, f := range art.Files {
			if err := os.WriteFile(filepath.Join(out, f.Path), f.Body, 0o644); err != nil {
				return err
			}
		}
	}
	if viper.GetBool("json") {
		return printJSON(map[string]any{"out": out, "manifest": art.Manifest})
	}
	fmt.Printf("Exported %q (%d sections, theme %s) to %s\n", art.Name, len(art.Manifest.Sections), art.Manifest.Theme, out)
	if failures := art.Failures(); len(failures) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"#", "ID", "Type", "Error"})
		for _, f := range failures {
			tw.AppendRow(table.Row{f.Index, f.ID, f.Type, f.Error})
		}
		tw.Render()
	}
	return nil
}

// watchFile exports file once, then again after every change until
// interrupted. Bursts of writes are coalesced.
func watchFile(ctx context.Context, file, out, themeID string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	x, err := fileExporter()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	rebuild := func() {
		if err := exportFileWith(ctx, x, abs, out, themeID); err != nil {
			slog.Error("export failed", "file", abs, "error", err)
		}
	}
	rebuild()

	var mu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(300*time.Millisecond, rebuild)
	}
	fmt.Printf("Watching %s (Ctrl-C to stop)\n", abs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != abs {
				continue
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

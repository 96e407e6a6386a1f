package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitebuilder/internal/codegen"
	"sitebuilder/internal/config"
	"sitebuilder/internal/db"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/engine"
	"sitebuilder/internal/events"
	"sitebuilder/internal/export"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/migrate"
	"sitebuilder/internal/mongostore"
	"sitebuilder/internal/repo"
	"sitebuilder/internal/section"
)

var rootCmd = &cobra.Command{
	Use:   "sb",
	Short: "Sitebuilder CLI",
	Long: `Sitebuilder composes landing pages from typed sections and exports them as static sites.
- Project: a named, owned layout document; private unless published.
- Section: one typed block (navbar, hero, cards, pricing, faq, footer, richtext) with a data bag.
- Theme: a named palette applied to every section at export.
- Export: index.html, styles.css and manifest.json, byte-identical for the same input.
- Workspace: the directory holding sitebuilder.yml, .env and the SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	workspace := viper.GetString("workspace")
	if workspace == "" {
		workspace = "."
	}
	// values already in the environment win over the workspace .env
	if err := godotenv.Load(filepath.Join(workspace, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: load .env:", err)
	}
	viper.SetEnvPrefix("SITEBUILDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("project", "", "project id (overrides SITEBUILDER_DEFAULT_PROJECT)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(themesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectVisibilityCmd())
	prj.AddCommand(projectUseCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your projects, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListProjects(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Theme", "Public", "Updated"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Theme, p.IsPublic, p.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project with an empty layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, viper.GetString("actor-id"), name)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a project and its sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := currentProject()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, doc, err := e.LoadDocument(ctx, target, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"project": p, "document": doc})
				}
				fmt.Printf("%s  %s  theme=%s public=%t\n", p.ID, p.Name, doc.Theme, p.IsPublic)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"#", "ID", "Type"})
				for i, s := range doc.Sections {
					tw.AppendRow(table.Row{i, s.ID, s.Type})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := currentProject()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProject(ctx, target, viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func projectVisibilityCmd() *cobra.Command {
	var public bool
	cmd := &cobra.Command{
		Use:   "visibility",
		Short: "Publish or unpublish a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := currentProject()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SetVisibility(ctx, target, viper.GetString("actor-id"), public)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "make the project readable by anyone")
	return cmd
}

func projectUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set current project for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			if projectID == "" {
				return fmt.Errorf("project id is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "SITEBUILDER_DEFAULT_PROJECT", projectID); err != nil {
				return err
			}
			fmt.Printf("Set SITEBUILDER_DEFAULT_PROJECT=%s in %s/.env\n", projectID, workspace)
			return nil
		},
	}
	return cmd
}

func sectionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sections", Short: "Inspect section types"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List section types in palette order",
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := section.Builtin().Types()
			if viper.GetBool("json") {
				out := make([]map[string]any, 0, len(descs))
				for _, d := range descs {
					out = append(out, map[string]any{"type": d.Type, "label": d.Label, "fields": d.Fields})
				}
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Type", "Label", "Fields"})
			for _, d := range descs {
				keys := make([]string, 0, len(d.Fields))
				for _, f := range d.Fields {
					if f.Common {
						continue
					}
					keys = append(keys, f.Key)
				}
				tw.AppendRow(table.Row{d.Type, d.Label, strings.Join(keys, ", ")})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}

func themesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "themes", Short: "Inspect themes"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List themes by group",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			palette, err := cfg.Palette()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"default": palette.DefaultID(), "themes": palette.Themes(), "groups": palette.Groups()})
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Group", "Background", "Accent", "Default"})
			for _, t := range palette.Themes() {
				tw.AppendRow(table.Row{t.ID, t.Group, t.Bg, t.Accent, t.ID == palette.DefaultID()})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage sitebuilder.yml"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate sitebuilder.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"valid": true})
			}
			fmt.Println("config valid")
			return nil
		},
	})
	return cfg
}

func validateCmd() *cobra.Command {
	var file string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a layout document file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var doc layout.Document
			if strict {
				doc, err = layout.DecodeStrict(raw, section.Builtin())
			} else {
				doc, err = layout.Decode(raw)
			}
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"valid": true, "name": doc.Name, "sections": doc.IDs()})
			}
			fmt.Printf("%s: %d sections, theme %s\n", doc.Name, len(doc.Sections), doc.Theme)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "layout document JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "also check section types and schemas")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys (sqlite storage)"}
	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				key, err := repo.GenerateAPIKey()
				if err != nil {
					return err
				}
				rec := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: viper.GetString("actor-id"),
					Name:    name,
					KeyHash: repo.HashAPIKey(key),
				}
				if err := r.InsertAPIKey(ctx, rec); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": rec.ID, "actor_id": rec.ActorID, "key": key})
				}
				fmt.Printf("Created API key %s for %s\n%s\nStore it now; it is not shown again.\n", rec.ID, rec.ActorID, key)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "key label")
	cmd.AddCommand(create)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API keys of the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.RevokeAPIKey(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	})
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events of the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := currentProject()
			if err != nil {
				return err
			}
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				if _, err := b.engine.GetProject(ctx, target, viper.GetString("actor-id")); err != nil {
					return err
				}
				items, err := b.events.LatestEvents(ctx, n, target)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Actor", "Payload"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.TS, evt.Type, evt.ActorID, evt.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	log.AddCommand(tail)
	return log
}

// --- helpers ---

// eventLister reads the newest events of one project.
type eventLister interface {
	LatestEvents(ctx context.Context, limit int, projectID string) ([]domain.Event, error)
}

// backend is the engine plus the storage-specific extras.
type backend struct {
	cfg    *config.Config
	engine engine.Engine
	events eventLister
	// sqlite only
	repo *repo.Repo
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withBackend opens the configured store and runs fn with an engine over it.
func withBackend(ctx context.Context, fn func(context.Context, backend) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	b := backend{cfg: cfg}
	var store engine.ProjectStore
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		}()
		store = ms
		b.events = ms
	default:
		workspace := cfg.Storage.Workspace
		if workspace == "" || workspace == "." {
			workspace = viper.GetString("workspace")
		}
		conn, err := db.Open(db.Config{Workspace: workspace})
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := migrate.MigrateContext(ctx, conn); err != nil {
			return err
		}
		s := repo.NewStore(conn)
		store = s
		b.events = s.Repo
		b.repo = &s.Repo
	}
	pub, closePub := publisher(cfg, logger)
	defer closePub()
	e := engine.New(store, section.Builtin(), palette)
	e.Publisher = pub
	e.Strict = cfg.Editor.StrictTypes
	e.Logger = logger
	e.Exporter.Logger = logger
	if cfg.Export.Backend == config.BackendRemote {
		e.Exporter.Backend = remoteBackend(cfg)
	}
	b.engine = e
	return fn(ctx, b)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withBackend(ctx, func(ctx context.Context, b backend) error {
		return fn(ctx, b.engine)
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	return withBackend(ctx, func(ctx context.Context, b backend) error {
		if b.repo == nil {
			return fmt.Errorf("api keys require the %s storage driver", config.DriverSQLite)
		}
		return fn(ctx, *b.repo)
	})
}

func remoteBackend(cfg *config.Config) export.Backend {
	remote := cfg.Export.Remote
	c := codegen.New(remote.URL, os.Getenv(remote.APIKeyEnv))
	c.Model = remote.Model
	if remote.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(remote.TimeoutSeconds) * time.Second
	}
	c.HTTPClient = &http.Client{Timeout: c.Timeout}
	return c
}

func publisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	url := strings.TrimSpace(cfg.Events.NATS.URL)
	if url == "" {
		return events.NopPublisher{}, func() {}
	}
	p, err := events.ConnectNATS(url, cfg.Events.NATS.Subject)
	if err != nil {
		logger.Warn("nats unavailable, events are not published", "url", url, "error", err)
		return events.NopPublisher{}, func() {}
	}
	return p, p.Close
}

func currentProject() (string, error) {
	target := strings.TrimSpace(viper.GetString("project"))
	if target == "" {
		target = strings.TrimSpace(os.Getenv("SITEBUILDER_DEFAULT_PROJECT"))
	}
	if target == "" {
		return "", fmt.Errorf("no project selected: pass --project or run 'sb project use <id>'")
	}
	return target, nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

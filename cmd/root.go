/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seckatie/homedash/internal/config"
	"github.com/seckatie/homedash/internal/core/db"
	"github.com/seckatie/homedash/internal/core/web"
	"github.com/seckatie/homedash/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "homedash",
	Short: "Serve the homedash dashboard",
	Long: `homedash serves a server-side rendered home dashboard.

Every request that is not a data endpoint (/api/...) or a public file
(/public/...) is rendered into HTML by the project's entry module. In
development the template and entry module are reloaded on every request and
connected browsers refresh when files change. In production the built
template, manifest and entry module under dist/ are loaded once at startup.

The mode comes from --mode or NODE_ENV (production selects production,
anything else development).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd)
	addServeFlags(rootCmd)
}

// addConfigFlags registers the flags shared by every command.
func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", config.DefaultConfigFile, "Path to the config file (.json, .yaml or .toml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().String("host", config.DefaultHost, "Host to listen on")
	cmd.Flags().String("base", config.DefaultBase, "URL path the app is served under")
	cmd.Flags().String("mode", "", "Rendering mode: development or production (default from NODE_ENV)")
	cmd.Flags().String("root", config.DefaultRoot, "Project directory containing index.html, src/ and dist/")
	cmd.Flags().String("public", config.DefaultPublicDir, "Directory served under /public")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to read --verbose: %w", err)
	}
	logger, err := logging.New(cfg.Mode, verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	site, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.Options{
		Config:   cfg,
		Store:    database,
		Renderer: site.renderer,
		Assets:   site.assets,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx, cfg.Addr())
	})
	g.Go(func() error {
		// Open live-reload streams would otherwise hold up shutdown.
		<-ctx.Done()
		site.close()
		return nil
	})
	if site.watcher != nil {
		g.Go(func() error {
			return site.watcher.Run(ctx)
		})
	}
	return g.Wait()
}

// loadConfig resolves the configuration from defaults, the config file, the
// environment and flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, fmt.Errorf("failed to read --config: %w", err)
	}
	file, err := config.LoadFile(path, !cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Apply(file)

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override everything, but only when given explicitly.
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	for name, dst := range map[string]*string{
		"host":   &cfg.Host,
		"base":   &cfg.Base,
		"root":   &cfg.Root,
		"public": &cfg.PublicDir,
		"db":     &cfg.DBURL,
	} {
		if !changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return cfg, fmt.Errorf("failed to read --%s: %w", name, err)
		}
	}
	if changed("port") {
		if cfg.Port, err = flags.GetInt("port"); err != nil {
			return cfg, fmt.Errorf("failed to read --port: %w", err)
		}
	}
	if changed("mode") {
		mode, err := flags.GetString("mode")
		if err != nil {
			return cfg, fmt.Errorf("failed to read --mode: %w", err)
		}
		cfg.Mode = config.Mode(mode)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openDB opens and pings the configured database.
func openDB(ctx context.Context, cfg config.Config, logger *zap.Logger) (*db.DB, error) {
	if cfg.DBToken != "" && !db.IsRemote(cfg.DBURL) {
		logger.Warn("db_token is only used for remote databases; ignoring it")
	}

	database, err := db.Open(cfg.DBURL, db.Options{Driver: cfg.DBDriver, Token: cfg.DBToken, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

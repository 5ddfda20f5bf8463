package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyz-man/changelogai-app/internal/config"
	"github.com/keyz-man/changelogai-app/internal/db"
	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/github"
	"github.com/keyz-man/changelogai-app/internal/gitrepo"
	"github.com/keyz-man/changelogai-app/internal/llm"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/services"
	"github.com/keyz-man/changelogai-app/internal/store"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// app is the composition root shared by the subcommands.
type app struct {
	cfg        *config.Config
	metrics    *telemetry.Metrics
	store      store.Store
	llm        *llm.Client
	projects   *services.ProjectService
	changelogs *services.ChangelogService
}

// appOptions adjusts the wiring for a single command.
type appOptions struct {
	// localRepos lets project imports read working copies on this machine.
	// The HTTP server never sets it.
	localRepos bool
}

// loadApp reads the configuration, initialises logging on the command's
// stderr and wires the services.
func loadApp(cmd *cobra.Command, opts *rootOptions, appOpts appOptions) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, appOpts)
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrInternal {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration, err.Error(), err)
		}
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return cfg, nil
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.New()
	}

	backend, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	s := store.Instrument(backend, cfg.Store.Backend, metrics)

	client := llm.NewClient(llm.Config{
		Provider: llm.Provider(cfg.AI.Provider),
		Endpoint: cfg.AI.Endpoint,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Sampling: llm.Sampling{
			Temperature:     cfg.AI.Temperature,
			TopK:            cfg.AI.TopK,
			TopP:            cfg.AI.TopP,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
		},
		Timeout: cfg.AI.Timeout(),
	})

	// Without git.enabled or a local import, only GitHub URLs are routable.
	var git services.CommitSource
	if cfg.Git.Enabled || opts.localRepos {
		git = gitrepo.NewSource(gitrepo.Options{
			MaxCommits:  cfg.Git.MaxCommits,
			AllowLocal:  opts.localRepos,
			AllowRemote: cfg.Git.Enabled,
		})
	}
	source := services.NewSourceRouter(
		github.NewClient(github.Config{
			BaseURL: cfg.GitHub.BaseURL,
			Token:   cfg.GitHub.Token,
			PerPage: cfg.GitHub.PerPage,
		}, nil),
		git,
		metrics,
	)

	logging.Debug("application wired", map[string]interface{}{
		"store":    cfg.Store.Backend,
		"provider": string(client.Provider()),
		"model":    client.Model(),
		"git":      git != nil,
	})

	return &app{
		cfg:        cfg,
		metrics:    metrics,
		store:      s,
		llm:        client,
		projects:   services.NewProjectService(s, source),
		changelogs: services.NewChangelogService(s, client, metrics),
	}, nil
}

// openStore opens the configured backend.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case store.BackendMemory, "":
		return store.NewMemoryStore(), nil
	case store.BackendFile:
		return store.OpenFileStore(cfg.FilePath)
	case store.BackendSQLite:
		return db.OpenStore(cfg.DataDir)
	default:
		return nil, apperrors.Configuration(fmt.Sprintf("Unknown store backend %q", cfg.Backend))
	}
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/doeshing/vitals/internal/application/doctor"
	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/checks"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/infrastructure/cache"
	"github.com/doeshing/vitals/internal/infrastructure/config"
	contextcollector "github.com/doeshing/vitals/internal/infrastructure/context"
	"github.com/doeshing/vitals/internal/infrastructure/executor"
	"github.com/doeshing/vitals/internal/infrastructure/history"
	"github.com/doeshing/vitals/internal/infrastructure/probe"
	"github.com/doeshing/vitals/internal/pkg/logger"
	"github.com/doeshing/vitals/internal/ports"
)

// Options selects the project and configuration the container is built for.
type Options struct {
	ProjectRoot string
	ConfigPath  string
	Verbose     bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	ProjectRoot    string
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader

	// ConfigErr is set when the config file could not be loaded; the container
	// is then wired from defaults so config commands can still repair it.
	ConfigErr     error
	Logger        ports.Logger
	Registry      *registry.Registry
	Executor      ports.CommandRunner
	Prober        ports.Prober
	CacheStore    ports.ResultCache
	CacheAdmin    ports.CacheAdmin
	HistoryStore  ports.ReportStore
	DoctorService *doctor.Service
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	root, err := resolveRoot(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)
	cfgLoader := config.NewFileLoader(root, opts.ConfigPath)
	cfg, cfgErr := cfgLoader.Load(ctx)
	if cfgErr != nil {
		log.Warn("config unavailable, wiring from defaults", map[string]interface{}{"error": cfgErr.Error()})
		cfg = cfgLoader.DefaultConfig()
	}

	runner := executor.NewLocalExecutor(domain.DefaultCommandTimeout)
	prober := probe.NewHTTPProber(cfg.Services.ProbeRate, cfg.ProbeTimeout())

	reg := registry.New()
	if err := reg.RegisterAll(checks.Builtin(runner, prober, cfg)...); err != nil {
		return nil, fmt.Errorf("register checks: %w", err)
	}

	var resultCache ports.ResultCache
	if cfg.Cache.Persistent {
		resultCache = cache.NewFileCache(cfg.Cache.Dir, cfg.Cache.MaxEntries)
	} else {
		resultCache = cache.NewMemoryCache()
	}
	cacheAdmin, _ := resultCache.(ports.CacheAdmin)

	historyStore := history.NewLazyStore(func() ports.ReportStore {
		return history.Open(cfg.History.Backend, history.Dir(root), log)
	})

	doctorService := &doctor.Service{
		ConfigProvider:   cfgLoader,
		ContextCollector: contextcollector.NewBasicCollector(runner),
		Registry:         reg,
		Cache:            resultCache,
		Store:            historyStore,
		Logger:           log,
	}

	return &Container{
		ProjectRoot:    root,
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		ConfigErr:      cfgErr,
		Logger:         log,
		Registry:       reg,
		Executor:       runner,
		Prober:         prober,
		CacheStore:     resultCache,
		CacheAdmin:     cacheAdmin,
		HistoryStore:   historyStore,
		DoctorService:  doctorService,
	}, nil
}

// Close releases resources held by adapters.
func (c *Container) Close() error {
	if closer, ok := c.HistoryStore.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	return abs, nil
}

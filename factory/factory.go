package factory

import (
	"context"
	"fmt"

	"github.com/caremesh/formlink"
	"github.com/caremesh/formlink/internal"
)

// Engine bundles the wired services for one editing session. It is the
// top-level handle external projects hold.
type Engine struct {
	Session  *internal.Session
	Store    *internal.Store
	Registry *internal.Registry
	Exporter *internal.Exporter
	Archive  *internal.S3Archive
}

// Options selects the persistence backend and optional archive for an engine.
type Options struct {
	// Repository overrides backend selection with a caller-provided
	// implementation.
	Repository formlink.MappingRepository
	// Backend selects a built-in repository when Repository is nil:
	// "memory", "file", or "postgres".
	Backend string
	// Archive enables the S3 export archive.
	Archive bool
}

// NewEngine wires a mapping editor for one target form: repository, store,
// transform registry, validation, session, and exporter. The store's
// persisted state is loaded before the session is handed out.
func NewEngine(ctx context.Context, cfg *formlink.Config, graph *formlink.FormGraph, targetFormID string, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = formlink.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, fmt.Errorf("form graph is required")
	}
	if _, ok := graph.Node(targetFormID); !ok {
		return nil, formlink.NewFormNotFoundError(targetFormID)
	}

	repo, err := buildRepository(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	store := internal.NewStore(targetFormID, repo, cfg)
	store.Load(ctx)

	registry := internal.NewRegistry()
	validator := internal.NewValidationService()

	engine := &Engine{
		Session:  internal.NewSession(graph, store, registry, validator),
		Store:    store,
		Registry: registry,
		Exporter: internal.NewExporter(graph, registry, validator),
	}

	if opts.Archive {
		if err := internal.ValidateArchiveConfig(cfg.Archive); err != nil {
			return nil, err
		}
		archive, err := internal.ConnectS3Archive(ctx, cfg.Archive)
		if err != nil {
			return nil, err
		}
		engine.Archive = archive
	}
	return engine, nil
}

// NewEngineFromProvider fetches the graph from a provider and wires an engine
// over it.
func NewEngineFromProvider(ctx context.Context, cfg *formlink.Config, provider formlink.GraphProvider, targetFormID string, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("graph provider is required")
	}
	graph, err := provider.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return NewEngine(ctx, cfg, graph, targetFormID, opts)
}

func buildRepository(ctx context.Context, cfg *formlink.Config, opts Options) (formlink.MappingRepository, error) {
	if opts.Repository != nil {
		return opts.Repository, nil
	}
	switch opts.Backend {
	case "", "memory":
		return internal.NewMemoryMappingRepository(), nil
	case "file":
		return internal.NewFileMappingRepository(cfg.Persistence.Directory)
	case "postgres":
		if err := internal.ValidateDatabaseConfig(cfg.Database); err != nil {
			return nil, err
		}
		pool, err := internal.ConnectPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := internal.EnsureSchema(ctx, pool, cfg.Database.TableName); err != nil {
			return nil, err
		}
		return internal.NewPostgresMappingRepository(pool, cfg.Database.TableName)
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", opts.Backend)
	}
}

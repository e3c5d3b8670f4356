package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/caremesh/formlink"
	"github.com/caremesh/formlink/factory"
)

func main() {
	graphFile := flag.String("graph", "", "Path to the form graph JSON file (required)")
	formID := flag.String("form", "", "Target form id (required)")
	backend := flag.String("backend", "memory", "Persistence backend: memory, file, or postgres")
	dir := flag.String("dir", "./mappings", "Mapping directory for the file backend")
	listSources := flag.Bool("sources", false, "List available mapping sources for the target form")
	listMappings := flag.Bool("list", false, "List committed mappings for the target form")
	exportFile := flag.String("export", "", "Export the form's mappings to a JSON file")
	importFile := flag.String("import", "", "Import mappings from a JSON export file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")

	flag.Parse()

	logCfg := zap.NewProductionConfig()
	logCfg.Encoding = "console"
	if *verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		logCfg.Development = true
	}
	logger, err := logCfg.Build()
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if *graphFile == "" || *formID == "" {
		sugar.Error("Error: -graph and -form flags are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := formlink.DefaultConfig()
	cfg.Persistence.Directory = *dir

	ctx := context.Background()
	provider := fileGraphProvider{path: *graphFile}
	engine, err := factory.NewEngineFromProvider(ctx, cfg, provider, *formID, factory.Options{Backend: *backend})
	if err != nil {
		sugar.Fatalw("failed to build engine", "err", err)
	}
	defer engine.Store.Flush()

	switch {
	case *listSources:
		for _, src := range engine.Session.AvailableSources() {
			fmt.Printf("%-12s %s\n", src.Kind, src.Label)
		}
	case *listMappings:
		for _, m := range engine.Session.Mappings() {
			line := fmt.Sprintf("%s  %s <- %s", m.ID, m.TargetFieldID, m.Source)
			if m.HasTransformation() {
				line += fmt.Sprintf("  [%s]", m.Transformation.Type)
			}
			fmt.Println(line)
		}
	case *exportFile != "":
		data, err := engine.Exporter.ExportJSON(engine.Store)
		if err != nil {
			sugar.Fatalw("export failed", "err", err)
		}
		if err := os.WriteFile(*exportFile, data, 0o644); err != nil {
			sugar.Fatalw("failed to write export file", "err", err)
		}
		sugar.Infow("mappings exported", "file", *exportFile)
	case *importFile != "":
		data, err := os.ReadFile(*importFile)
		if err != nil {
			sugar.Fatalw("failed to read import file", "err", err)
		}
		count, err := engine.Exporter.Import(engine.Store, data)
		if err != nil {
			sugar.Fatalw("import rejected", "err", err)
		}
		if err := engine.Store.Save(ctx); err != nil {
			sugar.Fatalw("failed to persist imported mappings", "err", err)
		}
		sugar.Infow("mappings imported", "count", count)
	default:
		sugar.Error("Error: one of -sources, -list, -export, or -import is required")
		flag.Usage()
		os.Exit(1)
	}
}

// fileGraphProvider loads the form graph from a JSON file on disk.
type fileGraphProvider struct {
	path string
}

func (p fileGraphProvider) Graph(_ context.Context) (*formlink.FormGraph, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	var graph formlink.FormGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("parse graph file: %w", err)
	}
	return &graph, nil
}

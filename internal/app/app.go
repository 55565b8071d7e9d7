package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/viewbind/internal/config"
	"github.com/vk/viewbind/internal/ctxlog"
	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/engine"
	"github.com/vk/viewbind/internal/expr"
	"github.com/vk/viewbind/internal/expr/jsexpr"
	"github.com/vk/viewbind/internal/fsutil"
	"github.com/vk/viewbind/internal/hcl"
	"github.com/vk/viewbind/internal/risorexpr"
)

// markupExtensions are the files picked up from a markup directory.
var markupExtensions = []string{".html", ".htm"}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	compiler expr.Compiler
	loaders  map[string]config.Loader
}

// NewApp is the constructor for the main application. Rendered output goes
// to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	yamlLoader := config.NewYAMLLoader()
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		compiler: newCompiler(cfg.Compiler),
		loaders: map[string]config.Loader{
			".yaml": yamlLoader,
			".yml":  yamlLoader,
			".json": yamlLoader,
			".hcl":  hcl.NewLoader(),
		},
	}
}

func newCompiler(name string) expr.Compiler {
	switch name {
	case CompilerHCL:
		return hcl.New()
	case CompilerRisor:
		return risorexpr.New()
	}
	return jsexpr.New()
}

// Run loads the data file, renders every markup file once against it and
// writes the results.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	data, err := a.loadData(ctx)
	if err != nil {
		return err
	}

	files, err := fsutil.Resolve(ctx, a.config.MarkupPath, markupExtensions...)
	if err != nil {
		return fmt.Errorf("failed to resolve markup path '%s': %w", a.config.MarkupPath, err)
	}
	if len(files) == 0 {
		a.logger.Warn("No markup files found at the specified path.", "path", a.config.MarkupPath)
		return nil
	}
	a.logger.Info("Found markup files to render.", "count", len(files), "compiler", a.config.Compiler)

	for _, file := range files {
		if len(files) > 1 {
			a.writeHeader(file)
		}
		if err := a.render(ctx, file, data); err != nil {
			return fmt.Errorf("failed to render '%s': %w", file, err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) loadData(ctx context.Context) (map[string]any, error) {
	if a.config.DataPath == "" {
		a.logger.Debug("No data file given, rendering with empty data.")
		return map[string]any{}, nil
	}
	ext := strings.ToLower(filepath.Ext(a.config.DataPath))
	loader, ok := a.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported data file extension %q", ext)
	}
	data, err := loader.Load(ctx, a.config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	a.logger.Debug("Data loaded.", "path", a.config.DataPath, "keys", len(data))
	return data, nil
}

func (a *App) render(ctx context.Context, file string, data map[string]any) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return err
	}
	h, err := engine.Attach(ctx, doc,
		engine.WithCompiler(a.compiler),
		engine.WithLogger(a.logger),
		engine.WithData(data),
	)
	if err != nil {
		return err
	}
	a.logger.Debug("Markup rendered.", "path", file, "bindings", h.BindingCount())

	if a.config.Format == FormatOutline {
		_, err = fmt.Fprintln(a.outW, dom.Outline(dom.Find(doc, "body")))
		return err
	}
	out, err := dom.Render(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.outW, out)
	return err
}

func (a *App) writeHeader(file string) {
	if a.config.Format == FormatOutline {
		fmt.Fprintf(a.outW, "# %s\n", file)
		return
	}
	fmt.Fprintf(a.outW, "<!-- %s -->\n", file)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmbridge/internal/config"
	"llmbridge/internal/engine"
	"llmbridge/internal/httpapi"
	"llmbridge/internal/registry"
	"llmbridge/internal/runtime"
	"llmbridge/pkg/types"
)

type options struct {
	addr         string
	configPath   string
	modelsDir    string
	modelPath    string
	defaultModel string
	contextLen   int
	gpuLayers    int
	threads      int
	seed         int
	maxWaitSec   int
	logLevel     string
	corsOrigins  []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "llmbridged",
		Short:         "Local HTTP daemon for LLM text generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a yaml/json/toml config file")
	pf.StringVar(&opts.modelsDir, "models-dir", "~/models/llm", "Directory to scan for *.gguf model files")
	pf.StringVar(&opts.modelPath, "model", "", "Path of the model file to load (overrides --default-model)")
	pf.StringVar(&opts.defaultModel, "default-model", "", "Model id from the models dir to load at startup")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(opts), newModelsCmd(opts), newSanityCmd(opts))
	return root
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", envOr("LLMBRIDGE_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	f.IntVar(&opts.contextLen, "ctx-len", 0, "Context window size in tokens (0 = default 2048)")
	f.IntVar(&opts.gpuLayers, "gpu-layers", 0, "Layers to offload to an accelerator")
	f.IntVar(&opts.threads, "threads", 0, "Decode threads (0 = default 4)")
	f.IntVar(&opts.seed, "seed", 0, "Runtime random seed")
	f.IntVar(&opts.maxWaitSec, "max-wait-sec", 0, "Seconds a request waits for a busy bridge (0 = default)")
	f.StringSliceVar(&opts.corsOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable; empty disables CORS)")
	return cmd
}

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List *.gguf models discovered in the models dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigFile(opts)
			models, err := registry.LoadDir(opts.modelsDir)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(types.ModelsResponse{Models: models})
		},
	}
}

func newSanityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity",
		Short: "Check runtime availability and model readability",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigFile(opts)
			r := engine.SanityCheck(opts.modelPath)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(r); err != nil {
				return err
			}
			if !r.RuntimeAvailable {
				return fmt.Errorf("sanity check failed: %s", r.Error)
			}
			return nil
		},
	}
}

func runServe(opts *options) error {
	applyConfigFile(opts)
	logger := newLogger(opts.logLevel)
	httpapi.SetLogger(logger)

	models, err := registry.LoadDir(opts.modelsDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", opts.modelsDir).Msg("models dir scan failed")
	}

	modelPath, loadedID, err := resolveModel(opts, models)
	if err != nil {
		return err
	}

	rt, err := runtime.Open()
	if err != nil {
		return err
	}

	eng := engine.New(rt, engine.Config{
		MaxWait:   time.Duration(opts.maxWaitSec) * time.Second,
		Publisher: engine.NewZerologPublisher(logger),
	})
	if err := eng.Init(engine.InitOptions{
		ModelPath:  modelPath,
		ContextLen: opts.contextLen,
		GPULayers:  opts.gpuLayers,
		Threads:    opts.threads,
		Seed:       opts.seed,
	}); err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	defer eng.Dispose()

	if len(opts.corsOrigins) > 0 {
		httpapi.SetCORSOptions(true, opts.corsOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Log-Level"})
	}

	// Cancel in-flight generations on shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	svc := httpapi.NewBridgeService(eng, models, loadedID)
	srv := &http.Server{Addr: opts.addr, Handler: httpapi.NewMux(svc)}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", opts.addr).Str("model", modelPath).Msg("llmbridged listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// resolveModel picks the model file to load: --model wins, then
// --default-model against the registry, then a single discovered model.
func resolveModel(opts *options, models []types.Model) (path, id string, err error) {
	if opts.modelPath != "" {
		return opts.modelPath, "", nil
	}
	if opts.defaultModel != "" {
		m, ok := registry.Find(models, opts.defaultModel)
		if !ok {
			return "", "", fmt.Errorf("default model %q not found in %s", opts.defaultModel, opts.modelsDir)
		}
		return m.Path, m.ID, nil
	}
	if len(models) == 1 {
		return models[0].Path, models[0].ID, nil
	}
	return "", "", fmt.Errorf("no model selected: pass --model or --default-model (found %d in %s)", len(models), opts.modelsDir)
}

// applyConfigFile overlays file values onto unset flags.
func applyConfigFile(opts *options) {
	if opts.configPath == "" {
		return
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return
	}
	if opts.addr == "" || opts.addr == ":8080" {
		if cfg.Addr != "" {
			opts.addr = cfg.Addr
		}
	}
	if cfg.ModelsDir != "" && opts.modelsDir == "~/models/llm" {
		opts.modelsDir = cfg.ModelsDir
	}
	if opts.modelPath == "" {
		opts.modelPath = cfg.ModelPath
	}
	if opts.defaultModel == "" {
		opts.defaultModel = cfg.DefaultModel
	}
	if opts.contextLen == 0 {
		opts.contextLen = cfg.ContextLen
	}
	if opts.gpuLayers == 0 {
		opts.gpuLayers = cfg.GPULayers
	}
	if opts.threads == 0 {
		opts.threads = cfg.Threads
	}
	if opts.seed == 0 {
		opts.seed = cfg.Seed
	}
	if opts.maxWaitSec == 0 {
		opts.maxWaitSec = cfg.MaxWaitSec
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

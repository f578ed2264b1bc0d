package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/blueprints"
	"unrealforge.ai/internal/config"
	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/forge"
	"unrealforge.ai/internal/history"
	"unrealforge.ai/internal/mcp"
	"unrealforge.ai/internal/names"
	"unrealforge.ai/internal/observer"
	"unrealforge.ai/internal/transcript"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to forge.yaml (optional)")
		listen     = flag.String("listen", "", "http listen address (overrides config)")
		editorHost = flag.String("editor-host", "", "editor host (overrides config)")
		editorPort = flag.Int("editor-port", 0, "editor port (overrides config)")
		dataDir    = flag.String("data-dir", "", "data directory (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *listen != "" {
		cfg.Serve.Listen = *listen
	}
	if *editorHost != "" {
		cfg.Editor.Host = *editorHost
	}
	if *editorPort != 0 {
		cfg.Editor.Port = *editorPort
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	var taps []editor.Tap

	var rec *transcript.Recorder
	if cfg.Data.Transcript {
		rec = transcript.NewRecorder(filepath.Join(cfg.Data.Dir, "transcript"), nil)
		defer rec.Close()
		taps = append(taps, rec)
	}

	var hist *history.Store
	if cfg.Data.History {
		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			logger.Fatalf("data dir: %v", err)
		}
		hist, err = history.Open(filepath.Join(cfg.Data.Dir, "history.db"))
		if err != nil {
			logger.Fatalf("history: %v", err)
		}
		defer hist.Close()
		taps = append(taps, hist)
	}

	var tap editor.Tap
	if len(taps) > 0 {
		tap = multiTap(taps)
	}

	client := editor.NewClient(cfg.ClientConfig(), nil, tap)
	reg := names.NewRegistry(nil)
	level := actors.NewService(client, reg, nil)
	bps := blueprints.NewService(client, nil)
	lib := blueprints.NewLibrary(bps, nil)

	var hub *observer.Hub
	var progress []forge.Progress
	if cfg.Serve.Observer {
		hub = observer.NewHub(nil)
		progress = append(progress, hub)
	}
	if hist != nil {
		progress = append(progress, buildSink{hist})
	}
	fg := forge.New(level, multiProgress(progress), nil)

	srv, err := mcp.NewServer(mcp.Config{
		Level:      level,
		Blueprints: bps,
		Library:    lib,
		Forge:      fg,
		Registry:   reg,
	})
	if err != nil {
		logger.Fatalf("mcp: %v", err)
	}

	root := http.NewServeMux()
	if hub != nil {
		root.Handle("/observer/ws", hub.WSHandler())
	}
	root.Handle("/", srv.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Listen,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		if hist != nil {
			_ = hist.Flush(shutdownCtx)
		}
	}()

	logger.Printf("listening on http://%s (editor=%s session=%s)", cfg.Serve.Listen, client.Addr(), reg.Session())
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("listen: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// multiTap fans one exchange out to every configured sink.
type multiTap []editor.Tap

func (m multiTap) RecordExchange(x editor.Exchange) {
	for _, t := range m {
		t.RecordExchange(x)
	}
}

// multiProgress fans build notifications out to every configured listener.
type multiProgress []forge.Progress

func (m multiProgress) BuildStarted(build, prefix string) {
	for _, p := range m {
		p.BuildStarted(build, prefix)
	}
}

func (m multiProgress) BuildProgress(build, prefix string, spawned, requested int) {
	for _, p := range m {
		p.BuildProgress(build, prefix, spawned, requested)
	}
}

func (m multiProgress) BuildEnded(build, prefix string, res *forge.BuildResult) {
	for _, p := range m {
		p.BuildEnded(build, prefix, res)
	}
}

// buildSink records finished builds in the history store.
type buildSink struct {
	store *history.Store
}

func (buildSink) BuildStarted(string, string)            {}
func (buildSink) BuildProgress(string, string, int, int) {}

func (s buildSink) BuildEnded(build, prefix string, res *forge.BuildResult) {
	if res == nil {
		return
	}
	s.store.RecordBuild(history.BuildRecord{
		Build:     build,
		Prefix:    prefix,
		DryRun:    res.DryRun,
		Requested: res.Requested,
		Spawned:   res.Spawned,
		Failed:    res.Failed,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Parts:     res.Parts,
	})
}

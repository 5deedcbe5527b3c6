package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/outreach/internal/api"
	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
	"github.com/kalambet/outreach/internal/config"
	"github.com/kalambet/outreach/internal/history"
	"github.com/kalambet/outreach/internal/ollama"
	"github.com/kalambet/outreach/internal/session"
	"github.com/kalambet/outreach/internal/transform"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the outreach server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpStdio, _ := cmd.Flags().GetBool("mcp")
		return runServer(mcpStdio)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running outreach server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show outreach system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			interval, _ := cmd.Flags().GetDuration("interval")
			return watchStatus(cmd.Context(), interval)
		}
		return showStatus(cmd.Context())
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
	statusCmd.Flags().Bool("watch", false, "keep polling Ollama status until interrupted")
	statusCmd.Flags().Duration("interval", 10*time.Second, "poll interval for --watch")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "outreach.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(mcpStdio bool) error {
	fmt.Fprintf(os.Stderr, "outreach version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("outreach is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("outreach is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the chunk collection. A missing or corrupt file is not fatal:
	// the server starts with an empty collection and logs the cause.
	store := chunk.NewFileStore(cfg.Storage.ChunkFile)
	repo := chunk.NewRepository(store)
	if err := repo.Refresh(); err != nil {
		slog.Warn("loading chunks failed, starting with empty collection", "path", store.Path(), "error", err)
	}

	// Open the transform history archive.
	hist, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			slog.Warn("closing history store", "error", err)
		}
	}()

	ollamaClient := ollama.New(cfg.Ollama.BaseURL, nil)
	gateway := transform.NewGateway(ollamaClient, cfg.Ollama.Model, cfg.Compose.Programme)
	composer := compose.New(closingFromConfig(cfg))

	deps := api.Deps{
		Repo:     repo,
		Composer: composer,
		Gateway:  gateway,
		Ollama:   ollamaClient,
		History:  hist,
		Model:    cfg.Ollama.Model,
		Port:     cfg.Server.Port,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	g, gctx := errgroup.WithContext(ctx)

	// Reload the chunk cache when the file changes on disk.
	watcher := chunk.NewWatcher(repo, store.Path(), nil)
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("chunk file watcher stopped", "error", err)
		}
		return nil
	})

	if mcpStdio {
		mcpSrv := api.NewMCPServer(deps, version)
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "outreach listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("outreach is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop outreach (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to outreach (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	serverUp := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			serverUp = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check Ollama and model availability directly.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL, client)
	if ollamaClient.IsRunning(ctx) {
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		if models, err := ollamaClient.ListModels(ctx); err == nil {
			if ollama.ModelAvailable(cfg.Ollama.Model, models) {
				printStatus("Model", "%s (available)", cfg.Ollama.Model)
			} else {
				printStatus("Model", "%s (not pulled)", cfg.Ollama.Model)
			}
		}
	} else {
		printStatus("Ollama", "not running")
		printStatus("Model", "%s", cfg.Ollama.Model)
	}

	// Show chunk count if the server is running.
	if serverUp {
		apiClient := newAPIClient(cfg.Server.Port)
		var chunks []chunk.Chunk
		if resp, err := apiClient.get(ctx, "/api/chunks"); err == nil {
			if decodeJSON(resp, &chunks) == nil {
				printStatus("Chunks", "%d", len(chunks))
			}
		}
	}

	printStatus("Chunk file", "%s", cfg.Storage.ChunkFile)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

// statusFetcher adapts the server's /status endpoint to the poller's fetch
// shape. The endpoint always answers 200; reachability lives in the payload.
func statusFetcher(client *apiClient) session.StatusFunc {
	return func(ctx context.Context) (session.Status, error) {
		resp, err := client.get(ctx, "/status")
		if err != nil {
			return session.Status{}, err
		}
		var body struct {
			Ollama session.Status `json:"ollama"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			return session.Status{}, err
		}
		return body.Ollama, nil
	}
}

// watchStatus polls the running server for Ollama status and prints a line
// per tick until interrupted.
func watchStatus(ctx context.Context, interval time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := session.NewStatusPoller(statusFetcher(newAPIClient(cfg.Server.Port)), interval)
	go poller.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printStatusLine(poller)
		}
	}
}

func printStatusLine(poller *session.StatusPoller) {
	st, known := poller.Latest()
	switch {
	case !known:
		printStatus("Ollama", "waiting for first poll...")
	case !st.Reachable:
		printStatus("Ollama", "not running")
	case st.ModelAvailable:
		printStatus("Ollama", "running, model %s available", st.Model)
	default:
		printStatus("Ollama", "running, model %s not pulled", st.Model)
	}
}

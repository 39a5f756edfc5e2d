// Command chessify runs the two-player chess room server.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing the WebSocket game endpoint, the read-only REST API and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server that inspects a running server through its REST API
//  3. "status" – prints live room and connection counts of a running server
//  4. "version" – prints the version
//
// Configuration comes from the environment (and an optional .env file);
// flags override it. An ngrok tunnel can be enabled for quick external access
// during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/Srijit23/Chessify/api"
	"github.com/Srijit23/Chessify/game/config"
	"github.com/Srijit23/Chessify/game/service"
	"github.com/Srijit23/Chessify/game/session"
	"github.com/Srijit23/Chessify/transport/mcp"
	"github.com/Srijit23/Chessify/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Chessify Room Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// newRootCommand builds the command tree. Running it without a subcommand
// behaves like "serve".
func newRootCommand() *cli.Command {
	serve := &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run the HTTP server with WebSocket, REST API and MCP endpoint",
		Action:  serveAction,
	}

	return &cli.Command{
		Name:    "chessify",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (env HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (env PORT)"},
			&cli.StringSliceFlag{Name: "allowed-origin", Usage: "Allowed WebSocket origin, repeatable (env ALLOWED_ORIGINS)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging (env DEBUG)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (env NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (env NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (env NGROK_DOMAIN)"},
			&cli.StringFlag{Name: "api-url", Usage: "Base URL of a running server, for mcp and status"},
		},
		Commands: []*cli.Command{
			serve,
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server against a running server's REST API",
				Action:  mcpAction,
			},
			{
				Name:   "status",
				Usage:  "Print room and connection counts of a running server",
				Action: statusAction,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
		Action: serveAction,
	}
}

// loadConfig reads the environment and applies any explicitly set flags.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("allowed-origin") {
		cfg.AllowedOrigins = config.NormalizeOrigins(cmd.StringSlice("allowed-origin"))
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// apiURL picks the REST base URL for client commands: --api-url, or the
// configured listen address.
func apiURL(cmd *cli.Command, cfg config.Config) string {
	if cmd.IsSet("api-url") {
		return cmd.String("api-url")
	}
	return "http://" + cfg.Addr()
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg.Debug)

	log.Printf("Starting %s v%s", AppName, Version)
	return runHTTPServer(ctx, cfg)
}

// app is the wired server: registry, router, hub and HTTP surface.
type app struct {
	sessions *session.Manager
	hub      *websocket.Hub
	handler  http.Handler
}

func newApp(cfg config.Config) *app {
	sessions := session.NewManager(session.WithInitialPosition(cfg.InitialPosition))
	coordinator := service.NewCoordinator(sessions, service.WithMaxRoomIDLength(cfg.MaxRoomIDLength))
	hub := websocket.NewHub(coordinator, cfg)

	apiServer := api.NewServer(service.NewRoomService(sessions), hub)
	mcpClient := mcp.NewClient("http://"+cfg.Addr(), Version)
	apiServer.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer()))

	return &app{
		sessions: sessions,
		hub:      hub,
		handler:  apiServer,
	}
}

// runHTTPServer serves until ctx is cancelled, then stops accepting HTTP
// requests and closes every WebSocket connection.
func runHTTPServer(ctx context.Context, cfg config.Config) error {
	a := newApp(cfg)
	addr := cfg.Addr()

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runTunnel(ctx, cfg.Ngrok, a.handler)
		}()
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		log.Printf("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := a.hub.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket hub shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("Server stopped (rooms left: %d)", a.sessions.Count())
	return nil
}

// runTunnel exposes handler through ngrok until ctx is cancelled.
func runTunnel(ctx context.Context, cfg config.NgrokConfig, handler http.Handler) {
	if cfg.AuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// maxMCPRequestSize caps the body of a single JSON-RPC request on /mcp.
const maxMCPRequestSize = 1 << 20

// mcpHandler serves single JSON-RPC messages over HTTP POST.
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMCPRequestSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg.Debug)

	baseURL := apiURL(cmd, cfg)
	mcpClient := mcp.NewClient(baseURL, Version)

	log.Printf("MCP stdio server ready (API: %s)", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client := api.NewClient(apiURL(cmd, cfg))
	return printStatus(ctx, client, cmd.Root().Writer)
}

// printStatus writes counts followed by a table of live rooms.
func printStatus(ctx context.Context, client *api.Client, out io.Writer) error {
	stats, err := client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", client.BaseURL(), err)
	}
	list, err := client.ListRooms(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	fmt.Fprintf(out, "Rooms: %d\nConnections: %d\n", stats.Rooms, stats.Connections)
	if len(list.Rooms) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tSTATE\tOBSERVERS\tMOVES\tCREATED")
	for _, room := range list.Rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			room.RoomID, room.Phase, len(room.Observers), room.MoveCount, room.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// Command metabase-mcp starts a Model Context Protocol server that exposes
// a remote Metabase instance to AI agents: dashboards, cards, databases,
// collections and query execution become MCP tools and resources.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"
	"github.com/rusq/tracer"

	"metabasemcp/auth"
	"metabasemcp/internal/metabase"
	internalmcp "metabasemcp/internal/mcp"
)

var build = "dev"

// secrets defines the names of the supported secret files that we load our
// secrets from.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

// params is the command line parameters.  The exported fields are the
// Metabase connection configuration and are validated before the server is
// constructed.
type params struct {
	BaseURL  string `validate:"required,url"`
	APIKey   string
	Username string
	Password string

	transport    string
	listenAddr   string
	traceFile    string
	verbose      bool
	printVersion bool
}

func main() {
	loadSecrets(secrets)

	p := parseCmdLine(os.Args[1:])
	if p.printVersion {
		fmt.Println(build)
		return
	}

	initLog(p.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, p); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func parseCmdLine(args []string) params {
	fs := flag.NewFlagSet("metabase-mcp", flag.ExitOnError)
	var p params
	fs.StringVar(&p.BaseURL, "base-url", osenv.Value("METABASE_URL", ""), "Metabase instance `URL` (environment: METABASE_URL)")
	fs.StringVar(&p.APIKey, "api-key", osenv.Secret("METABASE_API_KEY", ""), "Metabase API `key` (environment: METABASE_API_KEY)")
	fs.StringVar(&p.Username, "user", osenv.Value("METABASE_USER_EMAIL", ""), "Metabase user `email` (environment: METABASE_USER_EMAIL)")
	fs.StringVar(&p.Password, "password", osenv.Secret("METABASE_PASSWORD", ""), "Metabase `password` (environment: METABASE_PASSWORD)")
	fs.StringVar(&p.transport, "transport", "stdio", "MCP transport: \"stdio\" or \"http\"")
	fs.StringVar(&p.listenAddr, "listen", "127.0.0.1:8486", "address to listen on when -transport=http")
	fs.StringVar(&p.traceFile, "trace", osenv.Value("TRACE_FILE", ""), "trace `file` (optional)")
	fs.BoolVar(&p.verbose, "v", osenv.Value("DEBUG", false), "verbose messages")
	fs.BoolVar(&p.printVersion, "version", false, "print version and exit")
	fs.Parse(args)
	return p
}

// initLog sets up the default logger.  Messages go to stderr: stdout
// belongs to the stdio transport.
func initLog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, p params) error {
	if p.traceFile != "" {
		slog.Info("enabling trace", "file", p.traceFile)
		trc := tracer.New(p.traceFile)
		if err := trc.Start(); err != nil {
			return err
		}
		defer func() {
			if err := trc.End(); err != nil {
				slog.Error("failed to write the trace file", "error", err)
			}
		}()
	}

	// Configuration problems are fatal before any request handling
	// begins.
	if err := validator.New().Struct(&p); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	prov, err := auth.New(p.APIKey, p.Username, p.Password)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Info("starting", "version", build, "url", p.BaseURL, "auth", prov.Type().String())

	mb, err := metabase.New(p.BaseURL, prov, metabase.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	srv := internalmcp.New(mb, internalmcp.WithLogger(slog.Default()))

	switch internalmcp.Transport(p.transport) {
	case internalmcp.TransportStdio, "":
		return srv.ServeStdio(ctx)
	case internalmcp.TransportHTTP:
		return srv.ServeHTTP(ctx, p.listenAddr)
	default:
		return errors.New("invalid transport, expecting \"stdio\" or \"http\"")
	}
}

// loadSecrets load secrets from the files in secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-extractor/internal/invoice"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("invoice-extractor")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "invoice-extractor.db", "Batch database file path")
		outDir          = fs.StringLong("out", ".", "Export directory when files are given on the command line")
		exportFormat    = fs.StringLong("format", "csv", "Export format when files are given: 'csv' or 'xlsx'")
		provider        = fs.StringLong("provider", "gemini", "Model provider: 'gemini' or 'ollama'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY / GOOGLE_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		ollamaTimeout   = fs.DurationLong("ollama-timeout", scanning.DefaultOllamaTimeout, "Ollama request timeout")
		responseFormat  = fs.StringLong("response-format", "markdown", "Model answer format: 'markdown' or 'json'")
		pdfDPI          = fs.IntLong("pdf-dpi", scanning.DefaultPDFDPI, "Resolution used to render the first PDF page")
		maxDimension    = fs.IntLong("max-dimension", 0, "Downscale images larger than this many pixels (0 keeps native size)")
		noStatusColumns = fs.BoolLong("no-status-columns", "Leave the source file and status columns out of exports")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	parser, err := scanning.NewResponseParser(*responseFormat)
	if err != nil {
		slog.Error("Invalid response format", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize extractor based on provider
	var extractor scanning.Extractor
	switch *provider {
	case "gemini":
		apiKey := firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = scanning.NewGemini(ctx, apiKey, *geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = scanning.NewOllama(*ollamaURL, *ollamaModel, *ollamaTimeout)
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "gemini or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize extractor", "provider", *provider, "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	rasterizer := &scanning.Rasterizer{PDFDPI: *pdfDPI, MaxDimension: *maxDimension}
	exportOpts := invoice.ExportOptions{WithStatus: !*noStatusColumns}

	if files := fs.GetArgs(); len(files) > 0 {
		if err := runOnce(ctx, extractor, rasterizer, parser, files, *outDir, *exportFormat, exportOpts); err != nil {
			slog.Error("Batch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("Initializing database...")
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	service := invoice.NewService(db, extractor, rasterizer, parser)
	server := invoice.NewServer(service, invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}, exportOpts)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	<-ctx.Done()
	slog.Info("Shutting down...")
}

// runOnce extracts the given files and writes a single export
func runOnce(ctx context.Context, extractor scanning.Extractor, rasterizer invoice.Rasterizer, parser scanning.ResponseParser, files []string, outDir, formatName string, opts invoice.ExportOptions) error {
	format, err := invoice.ParseFormat(formatName)
	if err != nil {
		return err
	}

	store, err := invoice.NewLocalStorage(outDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	docs := make([]scanning.Document, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			// The row is kept; empty data reports a decode failure
			slog.Error("Failed to read file", "path", path, "error", err)
		}
		docs = append(docs, scanning.Document{Name: filepath.Base(path), Data: data})
	}

	// Nothing is stored in one-shot mode
	service := invoice.NewService(nil, extractor, rasterizer, parser)

	start := time.Now()
	table := service.Assemble(ctx, docs)

	path, err := invoice.SaveExport(store, table, format, opts)
	if err != nil {
		return err
	}

	slog.Info("Export written",
		"path", path,
		"documents", len(table.Rows),
		"columns", len(table.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagestash/internal/app"
	"github.com/hyperifyio/pagestash/internal/handler"
)

// Process exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
	exitNon2xx = 3
)

type options struct {
	url        string
	lambda     bool
	listen     string
	configPath string
	envFiles   string
}

func main() {
	var (
		cfg         app.Config
		opts        options
		showVersion bool
	)

	flag.StringVar(&opts.url, "url", "", "Fetch and store this URL once, print the response and exit")
	flag.BoolVar(&opts.lambda, "lambda", false, "Serve invocations through the AWS Lambda runtime")
	flag.StringVar(&opts.listen, "listen", "", "Serve GET /?url=... on this address, e.g. :8080")
	flag.StringVar(&opts.configPath, "config", os.Getenv("PAGESTASH_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&opts.envFiles, "env-file", ".env", "Comma-separated dotenv files loaded before reading the environment")
	flag.StringVar(&cfg.Bucket, "bucket", "", "Destination bucket (env CONTENT_BUCKET)")
	flag.StringVar(&cfg.StoreBackend, "store", "", "Store backend: s3, file or mongo (env STORE_BACKEND)")
	flag.StringVar(&cfg.StoreDir, "store.dir", "", "Root directory for the file backend (env STORE_DIR)")
	flag.StringVar(&cfg.MongoURI, "mongo.uri", "", "MongoDB connection URI (env MONGO_URI)")
	flag.StringVar(&cfg.MongoDatabase, "mongo.db", "", "MongoDB database name (env MONGO_DATABASE)")
	flag.StringVar(&cfg.AWSRegion, "s3.region", "", "AWS region (env AWS_REGION)")
	flag.StringVar(&cfg.S3Endpoint, "s3.endpoint", "", "Custom S3 endpoint, e.g. MinIO (env S3_ENDPOINT)")
	flag.BoolVar(&cfg.S3PathStyle, "s3.pathStyle", false, "Use path-style S3 addressing (env S3_PATH_STYLE)")
	flag.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Page fetch timeout (env FETCH_TIMEOUT, default 30s)")
	flag.StringVar(&cfg.UserAgent, "ua", "", "User-Agent for page fetches (env USER_AGENT)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.BuildString())
		return
	}

	// The runtime sets AWS_LAMBDA_RUNTIME_API inside a function container
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		opts.lambda = true
	}

	// Logging setup: structured JSON for CloudWatch, console otherwise
	zerolog.TimeFieldFormat = time.RFC3339
	if !opts.lambda {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	resolved, err := resolveConfig(cfg, opts)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		os.Exit(exitUsage)
	}
	if resolved.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code, err := run(ctx, resolved, opts, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	stop()
	os.Exit(code)
}

// resolveConfig layers configuration: flags already in cfg, then environment
// (after loading dotenv files), then the config file, then defaults.
func resolveConfig(cfg app.Config, opts options) (app.Config, error) {
	var files []string
	for _, p := range strings.Split(opts.envFiles, ",") {
		if p = strings.TrimSpace(p); p != "" {
			files = append(files, p)
		}
	}
	if err := app.LoadEnvFiles(files...); err != nil {
		return cfg, fmt.Errorf("load env files: %w", err)
	}
	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(opts.configPath) != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file %s: %w", opts.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyDefaults(&cfg)
	return cfg, app.ValidateConfig(cfg)
}

// run wires the app and serves in the selected mode. It returns the process
// exit code.
func run(ctx context.Context, cfg app.Config, opts options, stdout io.Writer) (int, error) {
	modes := 0
	for _, on := range []bool{opts.lambda, opts.listen != "", opts.url != ""} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return exitUsage, errors.New("choose exactly one of -url, -listen or -lambda")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return exitFailed, fmt.Errorf("init app: %w", err)
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			log.Warn().Err(cerr).Msg("close store")
		}
	}()

	switch {
	case opts.lambda:
		lambda.StartWithOptions(func(ctx context.Context, event map[string]any) (handler.Response, error) {
			return a.Handle(ctx, event), nil
		}, lambda.WithContext(ctx))
		return exitOK, nil
	case opts.listen != "":
		return serve(ctx, opts.listen, a.Handler())
	default:
		resp := a.Handle(ctx, map[string]any{"url": opts.url})
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(resp); err != nil {
			return exitFailed, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return exitNon2xx, nil
		}
		return exitOK, nil
	}
}

func serve(ctx context.Context, addr string, h *handler.Handler) (int, error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHTTPHandler(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return exitFailed, err
	}
	return exitOK, nil
}

// newHTTPHandler adapts query-string requests into handler events, the same
// shape an API gateway delivers.
func newHTTPHandler(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		event := map[string]any{
			"queryStringParameters": map[string]any{"url": r.URL.Query().Get("url")},
		}
		resp := h.Handle(r.Context(), event)
		if resp.StatusCode == http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	})
	return mux
}

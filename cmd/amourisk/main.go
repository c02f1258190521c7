package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amourisk/amourisk/internal/gate"
	"github.com/amourisk/amourisk/internal/handler"
	appI18n "github.com/amourisk/amourisk/internal/i18n"
	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/secure"
	"github.com/amourisk/amourisk/internal/session"
	"github.com/amourisk/amourisk/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "amourisk",
		Short: "Relationship risk self-assessment with a local encrypted report archive",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), resetCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `amourisk --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "127.0.0.1:8080", "HTTP listen address")
	f.String("db", "amourisk.db", "SQLite database path")
	f.StringP("lang", "l", "zh", "Notice language (zh, en)")
	f.String("gate", string(model.GateOpen), "Access-code gate mode (open, strict)")
	f.Duration("gate-delay", time.Second, "Simulated latency of the access-code check")
	f.Bool("rate-limit", false, "Limit tests to 3 per device per 24 hours")
	f.String("secret", "", "Archive passphrase (empty uses the built-in key)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /assess)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the archived reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "amourisk.db", "SQLite database path")
	f.String("secret", "", "Archive passphrase (empty uses the built-in key)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the report archive, usage counters, and gate state",
		RunE:  runReset,
	}
	f := cmd.Flags()
	f.String("db", "amourisk.db", "SQLite database path")
	f.String("secret", "", "Archive passphrase (empty uses the built-in key)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("AMOURISK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("amourisk")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/amourisk")
	v.AddConfigPath("/etc/amourisk")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (*store.Store, error) {
	codec := secure.NewCodec(v.GetString("secret"))
	db, err := store.New(v.GetString("db"), codec)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	manager, err := session.NewManager(db)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	gateMode := model.GateMode(strings.ToLower(v.GetString("gate")))
	if gateMode != model.GateOpen && gateMode != model.GateStrict {
		slog.Warn("invalid gate mode, using open", "mode", gateMode)
		gateMode = model.GateOpen
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.Config{
		Addr:      v.GetString("addr"),
		DBPath:    v.GetString("db"),
		Lang:      lang,
		Gate:      gateMode,
		GateDelay: v.GetDuration("gate-delay"),
		RateLimit: v.GetBool("rate-limit"),
		BasePath:  basePath,
	}

	validator := gate.New(cfg.Gate, cfg.GateDelay, db)
	var limiter *gate.Limiter
	if cfg.RateLimit {
		limiter = gate.NewLimiter(db)
	}

	h := handler.New(db, manager, validator, limiter, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		h.Routes(r)
	}

	slog.Info("starting server",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"lang", lang,
		"gate", cfg.Gate,
		"rate_limit", cfg.RateLimit,
		"base_path", basePath,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports()
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ClearAll(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	fmt.Println("local data cleared")
	return nil
}

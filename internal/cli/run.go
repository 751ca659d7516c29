package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harun/rulesession/internal/config"
	"github.com/harun/rulesession/internal/logger"
	"github.com/harun/rulesession/internal/observability"
	"github.com/harun/rulesession/internal/tracing"
	"github.com/harun/rulesession/pkg/auditlog"
	"github.com/harun/rulesession/pkg/command"
	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
	"github.com/harun/rulesession/pkg/session"
)

var (
	batchFormat string
	clockFlag   string
	auditPath   string
	watchConfig bool
)

var runCmd = &cobra.Command{
	Use:   "run <batch-file>",
	Short: "Execute a batch document against a new session",
	Long: `Run creates a session over the built-in knowledge base, executes the
batch document in one batch bracket and prints the execution results as JSON.
Use "-" to read the document from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&batchFormat, "format", "", "batch format (json, yaml); default from file extension")
	runCmd.Flags().StringVar(&clockFlag, "clock", "", "session clock override (realtime, pseudo)")
	runCmd.Flags().StringVar(&auditPath, "audit", "", "record session events to this SQLite file")
	runCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "re-apply the log level when the config file changes")
	rootCmd.AddCommand(runCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("clock") {
		cfg.Session.Clock = clockFlag
	}
	if auditPath != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.Path = auditPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readBatch(cmd *cobra.Command, path string) (*command.Batch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	format := command.FormatFromPath(path)
	if batchFormat != "" {
		if format, err = command.ParseFormat(batchFormat); err != nil {
			return nil, err
		}
	}
	return command.DecodeDocument(data, format)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	batch, err := readBatch(cmd, args[0])
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer log.Close()
	zl := log.Component("cli")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup(ctx, tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}
	if cfg.Audit.File != "" {
		if err := observability.InitAuditLogger(cfg.Audit.File); err != nil {
			return err
		}
		defer observability.GetAuditLogger().Close()
	}
	if cfg.Metrics.Enabled {
		stop := serveMetrics(cfg.Metrics.Addr, zl)
		defer stop()
	}

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer s.Dispose()

	if err := s.SetGlobal(TallyGlobal, map[string]int{}); err != nil {
		return err
	}

	out, err := s.ExecuteContext(ctx, batch, nil)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	zl.Info().Str("session_id", s.ID()).Int("commands", len(batch.Commands())).Msg("Batch executed")
	return nil
}

func newSession(cfg *config.Config, log *logger.Logger) (*session.Session, error) {
	kb, err := builtinKnowledgeBase(cfg.Session)
	if err != nil {
		return nil, err
	}
	clock, err := engine.ParseClockType(cfg.Session.Clock)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithLogger(log.Zerolog())}
	var watcher *config.Watcher
	if watchConfig && cfgFile != "" {
		watcher, err = config.NewWatcher(config.WatcherConfig{
			Path:     cfgFile,
			Logger:   log.Zerolog(),
			OnChange: applyLogLevel,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithCloser(watcher))
	}
	if cfg.Audit.Enabled {
		al, err := openAuditLog(cfg.Audit, log.Zerolog())
		if err != nil {
			if watcher != nil {
				_ = watcher.Close()
			}
			return nil, err
		}
		opts = append(opts, session.WithAuditLog(al))
	}

	return session.NewFromKnowledgeBase(kb, engine.Config{
		Clock:                 clock,
		DisableProcessRuntime: cfg.Session.DisableProcessRuntime,
	}, opts...), nil
}

func openAuditLog(cfg config.AuditConfig, zl zerolog.Logger) (*auditlog.Logger, error) {
	types := make([]event.Type, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		typ, err := event.ParseType(t)
		if err != nil {
			return nil, err
		}
		types = append(types, typ)
	}
	return auditlog.New(auditlog.Config{Path: cfg.Path, Logger: zl, Types: types})
}

func applyLogLevel(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
}

func serveMetrics(addr string, zl zerolog.Logger) func() {
	observability.EnsureRegistered()
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Warn().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	zl.Debug().Str("addr", addr).Msg("Metrics server started")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delwatch/config"
	"delwatch/internal/classify"
	"delwatch/internal/dispatch"
	"delwatch/internal/logger"
	"delwatch/internal/monitor"
	"delwatch/internal/store"
	"delwatch/internal/window"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("delwatch.yml"); err == nil {
		return "delwatch.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "delwatch.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "delwatch.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.Delwatch.Environment == "" {
		cfg.Delwatch.Environment = "development"
	}
	if cfg.Delwatch.Store.Redis.Addr == "" {
		cfg.Delwatch.Store.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Delwatch.Store.Redis.KeyPrefix == "" {
		cfg.Delwatch.Store.Redis.KeyPrefix = "delwatch:records"
	}

	if cfg.Delwatch.Thresholds.MaxDeletionsPerHour <= 0 {
		cfg.Delwatch.Thresholds.MaxDeletionsPerHour = 50
	}
	if cfg.Delwatch.Thresholds.MaxDeletionsPerDay <= 0 {
		cfg.Delwatch.Thresholds.MaxDeletionsPerDay = 200
	}
	if cfg.Delwatch.Thresholds.BulkSingleOperation <= 0 {
		cfg.Delwatch.Thresholds.BulkSingleOperation = classify.DefaultBulkThreshold
	}
	if len(cfg.Delwatch.Thresholds.SensitivePatterns) == 0 {
		cfg.Delwatch.Thresholds.SensitivePatterns = []string{
			"@gmail.com", "@yahoo.com", "@hotmail.com", "@outlook.com", "@icloud.com",
		}
	}

	if cfg.Delwatch.Sweep.Interval <= 0 {
		cfg.Delwatch.Sweep.Interval = time.Hour
	}
	if cfg.Delwatch.Sweep.Retention <= 0 {
		cfg.Delwatch.Sweep.Retention = window.DefaultRetention
	}

	if cfg.Delwatch.Channels.Audit.Mode == "" {
		cfg.Delwatch.Channels.Audit.Mode = "file"
	}
	if cfg.Delwatch.Channels.Audit.File.Path == "" {
		cfg.Delwatch.Channels.Audit.File.Path = "output/audit.jsonl"
	}

	if cfg.Delwatch.Server.Addr == "" {
		cfg.Delwatch.Server.Addr = ":8085"
	}

	if cfg.Delwatch.Logging.Level == "" {
		cfg.Delwatch.Logging.Level = "info"
	}
}

func buildChannels(cfg *config.Config) []dispatch.Channel {
	channels := []dispatch.Channel{dispatch.NewLogChannel()}

	switch cfg.Delwatch.Channels.Audit.Mode {
	case "file":
		ch, err := dispatch.NewAuditFileChannel(cfg.Delwatch.Channels.Audit.File.Path)
		if err != nil {
			logger.Errorf("Failed to create audit file channel: %v", err)
			log.Fatalf("Failed to create audit file channel: %v", err)
		}
		channels = append(channels, ch)
	case "redis":
		ch, err := dispatch.NewAuditRedisChannel(dispatch.AuditRedisConfig{
			Addr:     cfg.Delwatch.Channels.Audit.Redis.Addr,
			Password: cfg.Delwatch.Channels.Audit.Redis.Password,
			DB:       cfg.Delwatch.Channels.Audit.Redis.DB,
			Key:      cfg.Delwatch.Channels.Audit.Redis.Key,
		})
		if err != nil {
			logger.Errorf("Failed to create audit Redis channel: %v", err)
			log.Fatalf("Failed to create audit Redis channel: %v", err)
		}
		channels = append(channels, ch)
	default:
		log.Fatalf("Unknown audit mode: %s", cfg.Delwatch.Channels.Audit.Mode)
	}

	if cfg.Delwatch.Channels.Email.Recipient != "" && cfg.Delwatch.Channels.Email.SMTPAddr != "" {
		ch, err := dispatch.NewEmailChannel(dispatch.EmailConfig{
			Recipient: cfg.Delwatch.Channels.Email.Recipient,
			Sender:    cfg.Delwatch.Channels.Email.Sender,
			SMTPAddr:  cfg.Delwatch.Channels.Email.SMTPAddr,
			Username:  cfg.Delwatch.Channels.Email.Username,
			Password:  cfg.Delwatch.Channels.Email.Password,
		})
		if err != nil {
			logger.Warnf("Email channel disabled: %v", err)
		} else {
			channels = append(channels, ch)
			logger.Infof("Email channel enabled: %s", cfg.Delwatch.Channels.Email.Recipient)
		}
	} else {
		logger.Infof("Email channel disabled (no recipient or SMTP address)")
	}

	if cfg.Delwatch.Channels.Webhook.URL != "" {
		ch, err := dispatch.NewWebhookChannel(dispatch.WebhookConfig{
			URL:     cfg.Delwatch.Channels.Webhook.URL,
			Timeout: cfg.Delwatch.Channels.Webhook.Timeout,
			Headers: cfg.Delwatch.Channels.Webhook.Headers,
		})
		if err != nil {
			logger.Warnf("Webhook channel disabled: %v", err)
		} else {
			channels = append(channels, ch)
			logger.Infof("Webhook channel enabled: %s", cfg.Delwatch.Channels.Webhook.URL)
		}
	} else {
		logger.Infof("Webhook channel disabled (no URL)")
	}

	return channels
}

func buildRuleEngine(cfg *config.Config, sourceHost string) classify.Engine {
	if !cfg.Delwatch.Rules.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Delwatch.Rules.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; custom detection disabled")
		return nil
	}

	engine, stats, err := classify.NewSigmaEngine(cfg.Delwatch.Rules.Path, sourceHost)
	if err != nil {
		logger.Errorf("Failed to load Sigma rules from %s: %v", cfg.Delwatch.Rules.Path, err)
		log.Fatalf("Failed to load Sigma rules: %v", err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; custom detection is effectively disabled")
	}
	return engine
}

func main() {
	configArg := ""
	if len(os.Args) > 1 {
		configArg = os.Args[1]
	}
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.Delwatch.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("delwatch starting")
	logger.Infof("Config loaded from: %s", configPath)

	recordStore, err := store.NewRedisStore(store.RedisConfig{
		Addr:      cfg.Delwatch.Store.Redis.Addr,
		Password:  cfg.Delwatch.Store.Redis.Password,
		DB:        cfg.Delwatch.Store.Redis.DB,
		KeyPrefix: cfg.Delwatch.Store.Redis.KeyPrefix,
	})
	if err != nil {
		logger.Errorf("Failed to connect record store: %v", err)
		log.Fatalf("Failed to connect record store: %v", err)
	}
	defer recordStore.Close()

	sourceHost, _ := os.Hostname()

	counter := window.NewCounter(cfg.Delwatch.Sweep.Retention)
	classifier := classify.NewClassifier(classify.Thresholds{
		MaxDeletionsPerHour: cfg.Delwatch.Thresholds.MaxDeletionsPerHour,
		MaxDeletionsPerDay:  cfg.Delwatch.Thresholds.MaxDeletionsPerDay,
		BulkSingleOperation: cfg.Delwatch.Thresholds.BulkSingleOperation,
		SensitivePatterns:   cfg.Delwatch.Thresholds.SensitivePatterns,
	}, buildRuleEngine(cfg, sourceHost))
	dispatcher := dispatch.NewDispatcher(buildChannels(cfg)...)

	mon := monitor.New(monitor.Config{
		Environment:   cfg.Delwatch.Environment,
		SourceHost:    sourceHost,
		SweepInterval: cfg.Delwatch.Sweep.Interval,
	}, counter, classifier, dispatcher)

	instrumented := monitor.Instrument(recordStore, mon)
	logger.Infof("Record store instrumented (prefix %s)", cfg.Delwatch.Store.Redis.KeyPrefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := mon.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Sweep loop error: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mon.Stats()); err != nil {
			logger.Errorf("Failed to encode stats: %v", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	registerRecordHandlers(mux, recordStore, instrumented)

	server := &http.Server{Addr: cfg.Delwatch.Server.Addr, Handler: mux}
	go func() {
		logger.Infof("Stats server listening on %s", cfg.Delwatch.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Stats server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error stopping stats server: %v", err)
	}

	mon.Flush()
	if err := dispatcher.Close(); err != nil {
		logger.Errorf("Error closing alert channels: %v", err)
	}

	logger.Infof("delwatch stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/bridge"
	"midea-bridge/internal/store"
	"midea-bridge/internal/web"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// DeviceConfig is a statically configured appliance.
type DeviceConfig struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"` // hex appliance type, e.g. "A1" or "0xAC"
	FriendlyName string `yaml:"friendly_name"`
	Transport    string `yaml:"transport"` // "tcp" or "serial"
	Address      string `yaml:"address"`
	Port         int    `yaml:"port"`
	SerialPort   string `yaml:"serial_port"`
	Token        string `yaml:"token"`
	Key          string `yaml:"key"`
	Version      byte   `yaml:"version"`
	Customize    string `yaml:"customize"`
}

type Config struct {
	Web struct {
		Listen         string   `yaml:"listen"`
		APIKey         string   `yaml:"api_key"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"web"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		Broker      string `yaml:"broker"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Telegram struct {
		BotToken string   `yaml:"bot_token"`
		ChatIDs  []string `yaml:"chat_ids"`
	} `yaml:"telegram"`
	Exec struct {
		Allowlist []string `yaml:"allowlist"`
		Timeout   string   `yaml:"timeout"`
	} `yaml:"exec"`
	PollInterval string         `yaml:"poll_interval"`
	ScriptsDir   string         `yaml:"scripts_dir"`
	Devices      []DeviceConfig `yaml:"devices"`
}

func (c *Config) validate() error {
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("devices[%d]: id is required", i)
		}
		if _, err := parseDeviceType(d.Type); err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}
		switch d.Transport {
		case "tcp":
			if d.Address == "" {
				return fmt.Errorf("devices[%d]: address is required for tcp transport", i)
			}
		case "serial":
			if d.SerialPort == "" {
				return fmt.Errorf("devices[%d]: serial_port is required for serial transport", i)
			}
		default:
			return fmt.Errorf("devices[%d]: transport must be tcp or serial, got %q", i, d.Transport)
		}
	}
	return nil
}

func main() {
	// Temporary logger for config loading errors.
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := cfg.validate(); err != nil {
		bootLogger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	// Create configured logger.
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("midea-bridge starting", "version", version)

	// Open store
	db, err := store.NewBoltStore(cfg.Store.Path)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pollInterval := 30 * time.Second
	if cfg.PollInterval != "" {
		if d, err := time.ParseDuration(cfg.PollInterval); err == nil {
			pollInterval = d
		} else {
			logger.Warn("invalid poll_interval, using default", "value", cfg.PollInterval, "default", pollInterval)
		}
	}

	// Create the bridge core
	events := bridge.NewEventBus(logger)
	core := bridge.New(db, events, bridge.Config{PollInterval: pollInterval}, logger)

	// Start persisted devices, then seed new ones from the config.
	if err := core.Start(); err != nil {
		logger.Error("start bridge", "err", err)
		os.Exit(1)
	}
	seedDevices(core, cfg.Devices, logger)

	// Start automation engine (no-op when built with no_automation tag).
	auto, autoWebOpts := initAutomation(core, cfg, logger)

	// Start web server
	var webOpts []web.ServerOption
	if cfg.Web.APIKey != "" {
		webOpts = append(webOpts, web.WithAPIKey(cfg.Web.APIKey))
	}
	if len(cfg.Web.AllowedOrigins) > 0 {
		webOpts = append(webOpts, web.WithAllowedOrigins(cfg.Web.AllowedOrigins))
	}
	webOpts = append(webOpts, web.WithVersion(version))
	webOpts = append(webOpts, autoWebOpts...)

	webServer, err := web.NewServer(core, logger, webOpts...)
	if err != nil {
		logger.Error("create web server", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Web.Listen,
		Handler:      webServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("web server starting", "addr", cfg.Web.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", "err", err)
		}
	}()

	// Start MQTT bridge (no-op when built with no_mqtt tag).
	mqtt := initMQTT(core, cfg, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)
	logger.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	auto.Stop()
	mqtt.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}
	webServer.Stop()
	core.Stop()

	logger.Info("goodbye")
}

// seedDevices adds configured appliances that are not yet in the store.
func seedDevices(core *bridge.Bridge, devices []DeviceConfig, logger *slog.Logger) {
	for _, d := range devices {
		if _, err := core.Store().GetDevice(d.ID); err == nil {
			continue // already known, the persisted record wins
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.Error("lookup configured device", "id", d.ID, "err", err)
			continue
		}

		devType, _ := parseDeviceType(d.Type) // validated at startup
		dev := &store.Device{
			ID:           d.ID,
			Type:         devType,
			FriendlyName: d.FriendlyName,
			Transport:    d.Transport,
			Address:      d.Address,
			Port:         d.Port,
			SerialPort:   d.SerialPort,
			Token:        d.Token,
			Key:          d.Key,
			Version:      d.Version,
			Customize:    d.Customize,
		}
		if err := core.AddDevice(dev); err != nil {
			logger.Error("add configured device", "id", d.ID, "err", err)
			continue
		}
		logger.Info("configured device added", "id", d.ID, "type", appliance.TypeName(devType))
	}
}

// parseDeviceType parses a hex appliance type like "A1" or "0xAC".
func parseDeviceType(t string) (byte, error) {
	t = strings.TrimPrefix(strings.TrimSpace(t), "0x")
	n, err := strconv.ParseUint(t, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid appliance type %q", t)
	}
	return byte(n), nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = "127.0.0.1:8080"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "midea-bridge.db"
	}
	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = "scripts"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "midea"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return &cfg, nil
}

func newLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

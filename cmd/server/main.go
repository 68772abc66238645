//go:build !js && !wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/phonetichybrid/phonetichybrid/pkg/logger"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

var (
	port           int
	configPath     string
	dbPath         string
	tempDir        string
	sampleRate     int
	language       string
	lexiconPath    string
	backend        string
	allowedOrigins string
	logRequests    bool
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&configPath, "config", getEnvOrDefault("PHONETIC_CONFIG", "phonetichybrid.yaml"), "Optional YAML config file")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("PHONETIC_DB_PATH", ""), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("PHONETIC_TEMP_DIR", ""), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", 0, "Analysis sample rate in Hz (default 16000)")
	flag.StringVar(&language, "lang", getEnvOrDefault("PHONETIC_LANGUAGE", ""), "Default language (tr, en)")
	flag.StringVar(&lexiconPath, "lexicon", getEnvOrDefault("PHONETIC_LEXICON", ""), "Optional TSV pronunciation lexicon")
	flag.StringVar(&backend, "recognizer", "", "Recognizer backend: azure, whisper, none (default from env)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.BoolVar(&logRequests, "log-requests", true, "Log every HTTP request")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	if phonetichybrid.LoadEnv() {
		log.Infof("Loaded environment variables from .env file")
	}
	flag.Parse()

	fc, err := phonetichybrid.LoadFileConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if fc.LogLevel != "" {
		log.SetLevel(logger.ParseLevel(fc.LogLevel))
	}
	if fc.Server.Port != "" && !isFlagSet("port") {
		if p, ok := parsePort(fc.Server.Port); ok {
			port = p
		}
	}

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	rc := fc.RecognizerConfig()
	if backend != "" {
		rc.Backend = backend
	}
	rec, err := recognizer.New(rc)
	if err != nil {
		log.Fatalf("Failed to configure recognizer: %v", err)
	}

	metrics := phonetichybrid.NewMetrics("phonetichybrid")

	// File settings first, flags override.
	opts := fc.Options()
	if dbPath != "" {
		opts = append(opts, phonetichybrid.WithDBPath(dbPath))
	}
	if tempDir != "" {
		opts = append(opts, phonetichybrid.WithTempDir(tempDir))
	}
	if sampleRate > 0 {
		opts = append(opts, phonetichybrid.WithSampleRate(sampleRate))
	}
	if language != "" {
		opts = append(opts, phonetichybrid.WithLanguage(language))
	}
	if lexiconPath != "" {
		opts = append(opts, phonetichybrid.WithLexicon(lexiconPath))
	}
	opts = append(opts,
		phonetichybrid.WithRecognizer(rec),
		phonetichybrid.WithMetrics(metrics),
		phonetichybrid.WithLogger(log.WithPrefix("service")),
	)

	service, err := phonetichybrid.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	resolved := phonetichybrid.ResolveConfig(opts...)
	config := &ServerConfig{
		Port:           port,
		DBPath:         resolved.DBPath,
		TempDir:        resolved.TempDir,
		SampleRate:     resolved.SampleRate,
		Language:       resolved.Language,
		AllowedOrigins: origins,
		LogRequests:    logRequests,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, metrics, config)
	if err := server.Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		service.Close()
		os.Exit(1)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func parsePort(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), ":"))
	if err != nil {
		return 0, false
	}
	return n, n > 0 && n < 65536
}

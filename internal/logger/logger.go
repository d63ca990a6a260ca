// Package logger is the process-wide structured logger. It writes JSON to
// stdout, or forwards records to an OTLP collector when OTEL_ENABLED=true.
// Warnings and errors are sampled; their counters are not.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Level = slog.Level

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelFatal = slog.Level(12)
)

const defaultServiceName = "orderres"

var (
	Logger       *slog.Logger
	sampleRate   atomic.Int32
	programLevel = new(slog.LevelVar)
	shutdownFunc func(context.Context) error
)

// Counters exposed on the health endpoint. They count every event, sampled or not.
var (
	totalErrors      atomic.Int64
	totalWarnings    atomic.Int64
	total4xx         atomic.Int64
	total5xx         atomic.Int64
	totalRateLimited atomic.Int64
	totalUnresolved  atomic.Int64
	slowRequests     atomic.Int64
)

// Stats is a point-in-time copy of the counters
type Stats struct {
	Errors      int64 `json:"errors"`
	Warnings    int64 `json:"warnings"`
	Client4xx   int64 `json:"client4xx"`
	Server5xx   int64 `json:"server5xx"`
	RateLimited int64 `json:"rateLimited"`
	Unresolved  int64 `json:"unresolvedPhrases"`
	Slow        int64 `json:"slowRequests"`
}

func init() {
	sampleRate.Store(100)

	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = LevelInfo
	}
	programLevel.Set(level)

	// ERROR_SAMPLE_RATE=N logs one in N warnings and errors; 1 logs all of them
	if v := os.Getenv("ERROR_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			sampleRate.Store(int32(rate))
		}
	}

	if !strings.EqualFold(os.Getenv("OTEL_ENABLED"), "true") {
		useJSON()
		return
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	shutdown, err := useOTEL(context.Background(), serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel logging unavailable, using JSON: %v\n", err)
		useJSON()
		return
	}
	shutdownFunc = shutdown
}

func useJSON() {
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: programLevel}))
	slog.SetDefault(Logger)
}

func useOTEL(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	Logger = slog.New(&levelHandler{
		level:   programLevel,
		handler: otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(provider)),
	})
	slog.SetDefault(Logger)

	return provider.Shutdown, nil
}

// levelHandler applies the program level to a handler that has none of its own
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Shutdown flushes the OTLP exporter, if one is in use
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

// SetLevel sets the minimum level that is logged
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// GetLevel returns the minimum level that is logged
func GetLevel() slog.Level {
	return programLevel.Level()
}

// SetSampleRate logs one in rate warnings and errors
func SetSampleRate(rate int) {
	if rate < 1 {
		rate = 1
	}
	sampleRate.Store(int32(rate))
}

// ParseLevel converts a level name to a slog.Level. An empty name is INFO.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}

func sampled() bool {
	rate := sampleRate.Load()
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn counts every call and logs a sample of them
func Warn(msg string, args ...any) {
	totalWarnings.Add(1)
	if sampled() {
		Logger.Warn(msg, args...)
	}
}

// Error counts every call and logs a sample of them
func Error(msg string, args ...any) {
	totalErrors.Add(1)
	if sampled() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs msg, flushes the exporter and exits
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	_ = Shutdown(context.Background())
	os.Exit(1)
}

// Unresolved records a product phrase no catalog entry scored above the threshold
func Unresolved(phrase string, threshold float64) {
	totalUnresolved.Add(1)
	Logger.Debug("no catalog match above threshold", "phrase", phrase, "threshold", threshold)
}

// HTTPStatus counts a response by status class
func HTTPStatus(status int) {
	switch {
	case status == 429:
		totalRateLimited.Add(1)
		total4xx.Add(1)
	case status >= 500:
		total5xx.Add(1)
	case status >= 400:
		total4xx.Add(1)
	}
}

// SlowRequest counts a request over the slow threshold
func SlowRequest() {
	slowRequests.Add(1)
}

// Snapshot returns the current counters
func Snapshot() Stats {
	return Stats{
		Errors:      totalErrors.Load(),
		Warnings:    totalWarnings.Load(),
		Client4xx:   total4xx.Load(),
		Server5xx:   total5xx.Load(),
		RateLimited: totalRateLimited.Load(),
		Unresolved:  totalUnresolved.Load(),
		Slow:        slowRequests.Load(),
	}
}

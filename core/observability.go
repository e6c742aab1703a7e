package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelOff   = "off"
)

var logLevelRank = map[string]int{
	LogLevelTrace: 0,
	LogLevelDebug: 1,
	LogLevelInfo:  2,
	LogLevelWarn:  3,
	LogLevelError: 4,
	"fatal":       5,
	LogLevelOff:   6,
}

func parseLogLevel(level string) (int, bool) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return logLevelRank[LogLevelInfo], true
	}
	if level == "warning" {
		level = LogLevelWarn
	}
	rank, ok := logLevelRank[level]
	return rank, ok
}

// levelLogger drops records below the configured minimum level.
type levelLogger struct {
	next Logger
	min  int
}

func newLevelLogger(next Logger, level string) Logger {
	if next == nil {
		return nil
	}
	rank, ok := parseLogLevel(level)
	if !ok {
		rank = logLevelRank[LogLevelInfo]
	}
	if inner, ok := next.(*levelLogger); ok {
		next = inner.next
	}
	return &levelLogger{next: next, min: rank}
}

func (l *levelLogger) enabled(level string) bool {
	return logLevelRank[level] >= l.min
}

func (l *levelLogger) Trace(msg string, args ...any) {
	if l.enabled(LogLevelTrace) {
		l.next.Trace(msg, args...)
	}
}

func (l *levelLogger) Debug(msg string, args ...any) {
	if l.enabled(LogLevelDebug) {
		l.next.Debug(msg, args...)
	}
}

func (l *levelLogger) Info(msg string, args ...any) {
	if l.enabled(LogLevelInfo) {
		l.next.Info(msg, args...)
	}
}

func (l *levelLogger) Warn(msg string, args ...any) {
	if l.enabled(LogLevelWarn) {
		l.next.Warn(msg, args...)
	}
}

func (l *levelLogger) Error(msg string, args ...any) {
	if l.enabled(LogLevelError) {
		l.next.Error(msg, args...)
	}
}

func (l *levelLogger) Fatal(msg string, args ...any) {
	if l.enabled("fatal") {
		l.next.Fatal(msg, args...)
	}
}

func (l *levelLogger) WithContext(ctx context.Context) Logger {
	return &levelLogger{next: l.next.WithContext(ctx), min: l.min}
}

func (l *levelLogger) WithFields(fields map[string]any) Logger {
	fieldsLogger, ok := l.next.(FieldsLogger)
	if !ok {
		return l
	}
	return &levelLogger{next: fieldsLogger.WithFields(fields), min: l.min}
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (m *Manager) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if m == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt).Milliseconds()

	contextFields := RedactSensitiveMap(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed
	if err != nil {
		contextFields["error"] = err.Error()
		if code := TextCode(err); code != "" {
			contextFields["error_code"] = code
		}
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if transport, ok := contextFields["transport"].(string); ok && transport != "" {
		tags["transport"] = transport
	}

	m.recordCounter(ctx, "apiclient."+operation+".total", 1, tags)
	m.recordHistogram(ctx, "apiclient."+operation+".duration_ms", float64(elapsed), tags)

	if err != nil {
		m.logWithLevel(ctx, LogLevelError, operation+" failed", contextFields)
		return
	}
	m.logWithLevel(ctx, LogLevelInfo, operation+" succeeded", contextFields)
}

func (m *Manager) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	logger := m.currentLogger()
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch level {
	case LogLevelError:
		logger.Error(message, args...)
	case LogLevelWarn:
		logger.Warn(message, args...)
	case LogLevelDebug:
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (m *Manager) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if m.metricsRecorder == nil {
		return
	}
	m.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (m *Manager) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if m.metricsRecorder == nil {
		return
	}
	m.metricsRecorder.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}

var (
	_ MetricsRecorder = NopMetricsRecorder{}
	_ FieldsLogger    = (*levelLogger)(nil)
)

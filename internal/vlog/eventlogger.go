package vlog

import "sync"

// OperationContext names the operation and source location an event
// relates to, e.g. when reporting a read error from a particular
// reader method. Ported from original_source/vrs/EventLogger.h.
type OperationContext struct {
	Operation    string
	SourceLocation string
}

// TrafficEvent describes one network or disk transfer attempt, for
// implementations of EventLogger that export transfer telemetry.
// Ported from original_source/vrs/EventLogger.h's TrafficEvent.
type TrafficEvent struct {
	IsSuccess         bool
	IsUpload          bool
	TransferStartTime int64
	TotalDurationMs   int64
	TransferDurationMs int64
	TransferOffset    uint64
	TransferRequestSize uint64
	TransferSize      uint64
	RetryCount        uint64
	ErrorCount        uint64
	Error429Count     uint64
	HTTPStatus        int
	ServerName        string
}

// EventLogger receives the structured error/warning/traffic events
// passed to LogError, LogWarning and LogTraffic, so a host application
// can route them anywhere (metrics, a remote log collector, stderr)
// without depending on any particular sink. The reader and writer
// packages do not currently raise such events. The default
// implementation logs through a *Logger.
type EventLogger interface {
	LogEvent(eventType, message, serverMessage string, ctx OperationContext)
	LogTraffic(ctx OperationContext, event TrafficEvent)
}

const (
	ErrorEventType   = "error"
	WarningEventType = "warning"
)

// loggingEventLogger is the default EventLogger, forwarding to a *Logger.
type loggingEventLogger struct {
	log *Logger
}

// NewLoggingEventLogger returns an EventLogger that forwards events to log.
func NewLoggingEventLogger(log *Logger) EventLogger {
	if log == nil {
		log = Default
	}
	return &loggingEventLogger{log: log}
}

func (l *loggingEventLogger) LogEvent(eventType, message, serverMessage string, ctx OperationContext) {
	fields := map[string]any{
		"operation":      ctx.Operation,
		"sourceLocation": ctx.SourceLocation,
	}
	if serverMessage != "" {
		fields["serverMessage"] = serverMessage
	}
	switch eventType {
	case ErrorEventType:
		l.log.Error(message, fields)
	default:
		l.log.Warn(message, fields)
	}
}

func (l *loggingEventLogger) LogTraffic(ctx OperationContext, event TrafficEvent) {
	l.log.Info("traffic", map[string]any{
		"operation":     ctx.Operation,
		"isSuccess":     event.IsSuccess,
		"isUpload":      event.IsUpload,
		"totalDurationMs": event.TotalDurationMs,
		"transferSize":  event.TransferSize,
		"retryCount":    event.RetryCount,
		"errorCount":    event.ErrorCount,
		"httpStatus":    event.HTTPStatus,
		"serverName":    event.ServerName,
	})
}

var (
	instanceMu sync.RWMutex
	instance   EventLogger = NewLoggingEventLogger(Default)
)

// SetEventLogger installs logger as the process-wide EventLogger,
// returning the previous one, mirroring EventLogger::setLogger.
func SetEventLogger(logger EventLogger) EventLogger {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	prev := instance
	instance = logger
	return prev
}

func currentEventLogger() EventLogger {
	instanceMu.RLock()
	defer instanceMu.RUnlock()
	return instance
}

// LogError reports an error-level event through the process-wide EventLogger.
func LogError(ctx OperationContext, message string, serverMessage ...string) {
	sm := ""
	if len(serverMessage) > 0 {
		sm = serverMessage[0]
	}
	currentEventLogger().LogEvent(ErrorEventType, message, sm, ctx)
}

// LogWarning reports a warning-level event through the process-wide EventLogger.
func LogWarning(ctx OperationContext, message string, serverMessage ...string) {
	sm := ""
	if len(serverMessage) > 0 {
		sm = serverMessage[0]
	}
	currentEventLogger().LogEvent(WarningEventType, message, sm, ctx)
}

// LogTraffic reports a transfer event through the process-wide EventLogger.
func LogTraffic(ctx OperationContext, event TrafficEvent) {
	currentEventLogger().LogTraffic(ctx, event)
}

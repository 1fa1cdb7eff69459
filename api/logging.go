package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LogrusFormatter plugs logrus into chi's RequestLogger.
type LogrusFormatter struct {
	Logger logrus.FieldLogger
}

func (f *LogrusFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		fields["request_id"] = reqID
	}
	return &logrusEntry{logger: f.Logger.WithFields(fields)}
}

type logrusEntry struct {
	logger logrus.FieldLogger
}

func (e *logrusEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {
	entry := e.logger.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
	})
	if status >= http.StatusInternalServerError {
		entry.Warn("request completed")
		return
	}
	entry.Info("request completed")
}

func (e *logrusEntry) Panic(v any, stack []byte) {
	e.logger.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("request panicked")
}

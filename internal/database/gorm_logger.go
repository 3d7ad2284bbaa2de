package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxSQLLength bounds the SQL text written to a log record.
const maxSQLLength = 200

// gormLogger sends GORM output to slog. Statements are logged at debug
// level and only formatted when that level is enabled.
type gormLogger struct {
	log *slog.Logger
}

func newGormLogger(log *slog.Logger) gormLogger {
	return gormLogger{log: log.With(slog.String("component", "database"))}
}

// LogMode is a no-op; slog decides what is emitted.
func (l gormLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
}

func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
}

func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
}

// Trace is called after every statement. A missing row from First is the
// normal empty result and is not reported as an error.
func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		l.log.ErrorContext(ctx, "query failed",
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return
	}

	if !l.log.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	l.log.DebugContext(ctx, "query",
		slog.String("sql", truncateSQL(sql)),
		slog.Int64("rows", rows),
		slog.Duration("duration", elapsed),
	)
}

func truncateSQL(sql string) string {
	if len(sql) <= maxSQLLength {
		return sql
	}
	half := (maxSQLLength - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

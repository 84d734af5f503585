package logging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const gormSlowThreshold = 200 * time.Millisecond

type gormLogger struct {
	level logger.LogLevel
}

// GormLogger routes gorm's statement and error logging into zerolog
func GormLogger() logger.Interface {
	return &gormLogger{
		level: logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	v := *l
	v.level = level
	return &v
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level < logger.Info {
		return
	}

	log.Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level < logger.Warn {
		return
	}

	log.Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level < logger.Error {
		return
	}

	log.Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	var e *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		e = log.Err(err)
	case elapsed > gormSlowThreshold && l.level >= logger.Warn:
		e = log.Warn().Dur("slow_threshold", gormSlowThreshold)
	case l.level >= logger.Info:
		e = log.Debug()
	default:
		return
	}

	sql, rows := fc()

	e.Str("component", "gorm").
		Dur("elapsed", elapsed).
		Int64("rows", rows).
		Str("sql", sql).
		Msg("sql trace")
}

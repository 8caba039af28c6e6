package commands

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/logger"
	"github.com/autonolas-community/mechctl/internal/telemetry"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	startTimeKey contextKey = "start_time"
)

// LoggerBeforeFunc initializes the logger from the verbose flag and stores
// it in the command context.
func LoggerBeforeFunc(c *cli.Context) error {
	verbose := c.Bool("verbose")
	logger.InitGlobal(verbose)
	c.Context = context.WithValue(c.Context, loggerKey, logger.Get())
	return nil
}

// GetLogger retrieves the logger from the command context.
func GetLogger(c *cli.Context) logger.Logger {
	if log, ok := c.Context.Value(loggerKey).(logger.Logger); ok {
		return log
	}
	return logger.NewWithWriter(c.Bool("verbose"), c.App.ErrWriter)
}

// TelemetryBeforeFunc records the command start time.
func TelemetryBeforeFunc(c *cli.Context) error {
	c.Context = context.WithValue(c.Context, startTimeKey, time.Now())
	return nil
}

// TelemetryAfterFunc emits the command duration metric.
func TelemetryAfterFunc(c *cli.Context) error {
	start, ok := c.Context.Value(startTimeKey).(time.Time)
	if !ok {
		return nil
	}

	client := telemetry.New()
	defer client.Close()
	return client.AddMetric(c.Context, telemetry.Metric{
		Name:  "command_duration_seconds",
		Value: time.Since(start).Seconds(),
		Dimensions: map[string]string{
			"command": c.Command.Name,
		},
	})
}

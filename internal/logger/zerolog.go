package logger

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ZerologAdapter tags every event with the emitting component. Field keys
// are written in sorted order so runs diff cleanly.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog writes JSON lines to writer.
func NewZerolog(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// New builds the logger named by the log_format and log_level settings. It
// writes to stderr so stdout stays free for command output.
func New(format, level string) (*ZerologAdapter, error) {
	return newWithWriter(format, level, os.Stderr)
}

func newWithWriter(format, level string, writer io.Writer) (*ZerologAdapter, error) {
	switch format {
	case FormatConsole, "":
		return NewZerolog(zerolog.ConsoleWriter{Out: writer, NoColor: true}, ParseLevel(level)), nil
	case FormatJSON:
		return NewZerolog(writer, ParseLevel(level)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	emit(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	emit(z.logger.Error().Err(err), component, fields).Msgf("%s failed", component)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	emit(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	emit(z.logger.Debug(), component, fields).Msg(message)
}

func emit(event *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	event = event.Str("component", component)
	keys := lo.Keys(fields)
	slices.Sort(keys)
	for _, k := range keys {
		event = event.Interface(k, fields[k])
	}
	return event
}

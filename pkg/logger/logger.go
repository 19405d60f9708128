package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger пишет строки вида "[ts] [LEVEL] msg | k=v" и, если задан Sink,
// дублирует записи во внешнюю систему (CloudWatch Logs).
type Logger struct {
	logger *log.Logger
	level  Level
	fields []interface{}
	sink   Sink
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Sink получает каждую запись, прошедшую фильтр уровня.
type Sink interface {
	Write(at time.Time, level Level, msg string, fields map[string]interface{})
}

func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter используется в тестах для захвата вывода.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{
		logger: log.New(w, "", 0),
		level:  parseLevel(level),
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (lv Level) String() string {
	switch lv {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// With возвращает дочерний logger с постоянными полями.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)

	return &Logger{
		logger: l.logger,
		level:  l.level,
		fields: fields,
		sink:   l.sink,
	}
}

// WithSink подключает внешний приемник записей.
func (l *Logger) WithSink(sink Sink) *Logger {
	return &Logger{
		logger: l.logger,
		level:  l.level,
		fields: l.fields,
		sink:   sink,
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log(DEBUG, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log(INFO, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log(WARN, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log(ERROR, msg, args...)
	}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	now := time.Now()
	all := append(append([]interface{}{}, l.fields...), args...)

	message := fmt.Sprintf("[%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level, msg)
	if len(all) > 0 {
		message += " |"
		for i := 0; i+1 < len(all); i += 2 {
			message += fmt.Sprintf(" %v=%v", all[i], all[i+1])
		}
	}

	l.logger.Println(message)

	if l.sink != nil {
		l.sink.Write(now, level, msg, toFieldMap(all))
	}
}

func toFieldMap(args []interface{}) map[string]interface{} {
	if len(args) < 2 {
		return nil
	}
	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}

// Package logger is a thin leveled logging facade over logrus. Every message
// carries a source tag identifying the component that emitted it, so the
// interleaved logs of the pipeline stages stay readable.
package logger

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

// Init configures the process-wide log level and formatter.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
}

func tag(obj any) string {
	switch v := obj.(type) {
	case nil:
		return "NIL"
	case stringer:
		return v.String()
	case string:
		return v
	default:
		return reflect.TypeOf(obj).Name()
	}
}

func entry(obj any) *logrus.Entry {
	return logrus.WithField("src", tag(obj))
}

func Trace(object any, message string) {
	if logrus.GetLevel() < logrus.TraceLevel {
		return
	}
	entry(object).Trace(message)
}

func Tracef(object any, message string, args ...any) {
	if logrus.GetLevel() < logrus.TraceLevel {
		return
	}
	entry(object).Trace(fmt.Sprintf(message, args...))
}

func Debug(object any, message string) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	entry(object).Debug(message)
}

func Debugf(object any, message string, args ...any) {
	if logrus.GetLevel() < logrus.DebugLevel {
		return
	}
	entry(object).Debug(fmt.Sprintf(message, args...))
}

func Info(object any, message string) {
	if logrus.GetLevel() < logrus.InfoLevel {
		return
	}
	entry(object).Info(message)
}

func Infof(object any, message string, args ...any) {
	if logrus.GetLevel() < logrus.InfoLevel {
		return
	}
	entry(object).Info(fmt.Sprintf(message, args...))
}

func Warning(object any, message string) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	entry(object).Warning(message)
}

func Warningf(object any, message string, args ...any) {
	if logrus.GetLevel() < logrus.WarnLevel {
		return
	}
	entry(object).Warning(fmt.Sprintf(message, args...))
}

func Error(object any, message string) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	entry(object).Error(message)
}

func Errorf(object any, message string, args ...any) {
	if logrus.GetLevel() < logrus.ErrorLevel {
		return
	}
	entry(object).Error(fmt.Sprintf(message, args...))
}

func Fatal(object any, message string) {
	entry(object).Fatal(message)
}

func Fatalf(object any, message string, args ...any) {
	entry(object).Fatal(fmt.Sprintf(message, args...))
}

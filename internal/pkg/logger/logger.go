package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// EnvDebug enables verbose logging when set to 1 or true.
const EnvDebug = "VITALS_DEBUG"

// StdLogger is a lightweight implementation backed by Go's log package.
type StdLogger struct {
	verbose bool
	out     *log.Logger
}

// NewStd creates a StdLogger writing to stderr.
func NewStd(verbose bool) *StdLogger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a StdLogger writing to w.
func NewWithWriter(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{verbose: verbose, out: log.New(w, "vitals ", log.LstdFlags)}
}

// VerboseFromEnv reports whether VITALS_DEBUG requests verbose logging.
func VerboseFromEnv() bool {
	v := os.Getenv(EnvDebug)
	return v == "1" || strings.EqualFold(v, "true")
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.print("DEBUG", msg, nil, fields)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.print("INFO", msg, nil, fields)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.print("WARN", msg, nil, fields)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.print("ERROR", msg, err, fields)
}

func (l *StdLogger) print(level, msg string, err error, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	var b strings.Builder
	b.WriteString("[" + level + "] " + msg)
	if err != nil {
		b.WriteString(" error=" + err.Error())
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	l.out.Println(b.String())
}

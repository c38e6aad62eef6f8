package record

import "strconv"

// Numeric record levels, compatible with the bunyan record schema.
const (
	LevelTrace int64 = 10
	LevelDebug int64 = 20
	LevelInfo  int64 = 30
	LevelWarn  int64 = 40
	LevelError int64 = 50
	LevelFatal int64 = 60
)

// Well-known record keys.
const (
	KeyName     = "name"
	KeyHostname = "hostname"
	KeyPID      = "pid"
	KeyLevel    = "level"
	KeyMsg      = "msg"
	KeyTime     = "time"
	KeyVersion  = "v"
)

// LevelOf returns the numeric level stored in rec.
// The level may be an Int, an integral Float, or one of the level names.
func LevelOf(rec *Mapping) (int64, bool) {
	if rec == nil {
		return 0, false
	}
	v, ok := rec.Get(KeyLevel)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Float:
		return int64(x), float64(int64(x)) == float64(x)
	case Text:
		return ParseLevel(string(x))
	default:
		return 0, false
	}
}

// ParseLevel resolves a level name ("error") or a decimal level ("50").
func ParseLevel(s string) (int64, bool) {
	switch s {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal", "panic", "dpanic":
		return LevelFatal, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LevelName returns the lowercase name of a level, or its number for levels
// between the named ones.
func LevelName(level int64) string {
	switch level {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return strconv.FormatInt(level, 10)
}

// Message returns the msg field of rec when it is text.
func Message(rec *Mapping) string {
	if rec == nil {
		return ""
	}
	if v, ok := rec.Get(KeyMsg); ok {
		if t, ok := v.(Text); ok {
			return string(t)
		}
	}
	return ""
}

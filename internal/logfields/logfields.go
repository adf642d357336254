package logfields

import "log/slog"

// Canonical log field names shared by the build packages.
const (
	KeySource     = "source"
	KeyPath       = "path"
	KeyLocale     = "locale"
	KeyPass       = "pass"
	KeyAttribute  = "key"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Source(rel string) slog.Attr     { return slog.String(KeySource, rel) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Locale(l string) slog.Attr       { return slog.String(KeyLocale, l) }
func Pass(n int) slog.Attr            { return slog.Int(KeyPass, n) }
func Attribute(k string) slog.Attr    { return slog.String(KeyAttribute, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

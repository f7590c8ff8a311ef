package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyTag        = "tag"
	KeyCount      = "count"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyOutcome    = "outcome"
	KeyURL        = "url"
	KeyName       = "name"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

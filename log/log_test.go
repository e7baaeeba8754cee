package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.caller || !l.pretty {
		t.Errorf("caller=%v pretty=%v, want false true", l.caller, l.pretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		floor  Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at debug", Logger.Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.floor)), "message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestLogger_LevelNames(t *testing.T) {
	tests := []struct {
		name string
		log  func(Logger, string, ...slog.Attr)
		want string
	}{
		{"trace", Logger.Trace, `"level":"TRACE"`},
		{"debug", Logger.Debug, `"level":"DEBUG"`},
		{"info", Logger.Info, `"level":"INFO"`},
		{"warn", Logger.Warn, `"level":"WARN"`},
		{"error", Logger.Error, `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false))
			tt.log(l, "message")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q lacks %s", buf.String(), tt.want)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelInfo), WithFormat(FormatJSON), WithPretty(false))
	l.With(slog.String("component", "parser")).
		WithGroup("expr").
		Info("parsed", slog.String("text", "a + b"), slog.Int("params", 2))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json.Unmarshal: %v (%s)", err, buf.String())
	}

	if entry["msg"] != "parsed" || entry["component"] != "parser" {
		t.Errorf("entry = %v", entry)
	}

	group, ok := entry["expr"].(map[string]any)
	if !ok || group["text"] != "a + b" || group["params"] != 2.0 {
		t.Errorf("expr group = %v", entry["expr"])
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		hasKey bool
	}{
		{"RFC3339", true},
		{"stamp-milli", true},
		{"15:04", true},
		{"none", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(LevelInfo), WithTimeLayout(tt.layout),
				WithFormat(FormatJSON), WithPretty(false))
			l.Info("message")

			if got := strings.Contains(buf.String(), `"time"`); got != tt.hasKey {
				t.Errorf("time present = %v, want %v: %s", got, tt.hasKey, buf.String())
			}
		})
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelInfo), WithCaller(true),
		WithFormat(FormatText), WithPretty(false))
	l.Info("message")

	if !strings.Contains(buf.String(), "log_test.go:") {
		t.Errorf("source does not point at the caller: %s", buf.String())
	}
}

type secret struct{ name string }

func (s secret) LogValue() slog.Value {
	return slog.GroupValue(slog.String("name", s.name), slog.String("value", "***"))
}

func TestPretty(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(LevelTrace), WithFormat(format), WithTimeLayout("none"))
			l = l.With(slog.String("session", "s1")).WithGroup("req")
			l.Trace("handled",
				slog.Int("n", 3),
				slog.Any("cred", secret{"token"}),
				slog.Any("err", errors.New("boom")))

			out := buf.String()
			for _, want := range []string{
				"TRACE", "handled", "session", "s1",
				"req.n", "req.cred.name", "token", "***", "req.err", "boom",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("output lacks %q:\n%s", want, out)
				}
			}

			if strings.Contains(out, "time") {
				t.Errorf("timestamp written with layout none:\n%s", out)
			}
		})
	}
}

func TestLogger_Wrap(t *testing.T) {
	var a, b bytes.Buffer

	l := Make(&a, WithLevel(LevelError), WithPretty(false))
	w := l.Wrap(WithOutput(&b), WithLevel(LevelDebug))

	l.Debug("to a")
	w.Debug("to b")

	if a.Len() != 0 {
		t.Errorf("original logger changed by Wrap: %q", a.String())
	}

	if !strings.Contains(b.String(), "to b") {
		t.Errorf("wrapped logger output = %q", b.String())
	}

	if w.format != l.format || w.pretty != l.pretty {
		t.Error("Wrap did not inherit unchanged settings")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Error("dropped")
	l.With(slog.String("k", "v")).Info("dropped")

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero Logger reports enabled")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero Logger does not report defaults")
	}

	l.Slog().Info("dropped")
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithLevel(LevelInfo))

	for i := range 100 {
		wg.Go(func() { l.Info("concurrent", slog.Int("id", i)) })
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 100 {
		t.Errorf("wrote %d lines, want 100", n)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"trace", LevelTrace, true},
		{"DEBUG", LevelDebug, true},
		{" info ", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"error", LevelError, true},
		{"info+2", LevelInfo + 2, true},
		{"loud", DefaultLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)",
					tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelTrace + 1, "trace+1"},
		{LevelTrace - 2, "trace-2"},
		{LevelInfo, "info"},
		{LevelInfo + 2, "info+2"},
		{LevelError + 1, "error+1"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat("JSON"); !ok || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = (%v, %v)", f, ok)
	}

	if f, ok := ParseFormat("yaml"); ok || f != DefaultFormat {
		t.Errorf("ParseFormat(yaml) = (%v, %v)", f, ok)
	}

	var names []string
	for n := range Formats() {
		names = append(names, n)
	}

	if strings.Join(names, ",") != "text,json" {
		t.Errorf("Formats() = %v", names)
	}
}

func TestPackage_Default(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithFormat(FormatJSON), WithPretty(false)))
	Config(WithLevel(LevelDebug))

	tests := []struct {
		name string
		log  func(string, ...slog.Attr)
		want string
	}{
		{"Trace", Trace, ""},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("message", slog.String("key", "value"))

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("below-level message written: %s", buf.String())
				}

				return
			}

			if out := buf.String(); !strings.Contains(out, tt.want) ||
				!strings.Contains(out, `"key":"value"`) {
				t.Errorf("output = %s", out)
			}
		})
	}

	buf.Reset()
	With(slog.String("scope", "pkg")).Info("scoped")

	if !strings.Contains(buf.String(), `"scope":"pkg"`) {
		t.Errorf("With output = %s", buf.String())
	}

	buf.Reset()
	WarnContext(t.Context(), "ctx")

	if !strings.Contains(buf.String(), `"msg":"ctx"`) {
		t.Errorf("WarnContext output = %s", buf.String())
	}
}

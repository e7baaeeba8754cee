// Package log provides a leveled structured logger built on [log/slog].
//
// A [Logger] is an immutable value configured with functional options when
// it is made. Derived loggers from [Logger.With], [Logger.WithGroup] and
// [Logger.Wrap] never affect their parent, so a Logger can be shared freely
// between goroutines. The zero Logger discards everything.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("StampMilli"),
//		log.WithCaller(true))
//
//	logger.With(slog.String("component", "binder")).
//		Debug("resolved overload", slog.String("name", "Max"))
//
// # Levels
//
// Five levels are defined, from [LevelTrace] to [LevelError]. [LevelTrace]
// sits below [slog.LevelDebug] and is written as "TRACE".
//
// # Formats
//
// [FormatText] and [FormatJSON] use the [log/slog] handlers unless
// [WithPretty] is enabled, in which case records are colorized for a
// terminal. Pretty output flattens groups into dotted keys.
//
// # Package Logger
//
// The package-level functions ([Info], [Debug], ...) write to a default
// logger on standard error that can be replaced with [SetDefault] or
// reconfigured with [Config]. Methods without a context parameter use
// [DefaultContextProvider].
package log

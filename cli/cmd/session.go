package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
	"github.com/ardnew/dexpr/stdlib"
)

// Session holds the language flags shared by every command that builds an
// interpreter.
type Session struct {
	Stdlib          string `default:"all"     help:"Library groups to register (${stdlibEnum}, all, none)." placeholder:"GROUPS"`
	CaseInsensitive bool   `default:"false"   help:"Resolve names ignoring case."                                                  negatable:""`
	LateBinding     bool   `default:"false"   help:"Resolve members of interface values when invoked."                             negatable:""`
	Lambdas         bool   `default:"true"    help:"Allow lambda literals."                                                        negatable:""`
	Number          string `default:"default" enum:"${numberEnum}"                                                                 help:"Type of unsuffixed numeric literals."`
	Assignment      string `default:"all"     help:"Assignment operators allowed (none, equal, arithmetic, bitwise, all)."         placeholder:"OPS"`
	MaxDepth        int    `default:"0"       help:"Maximum expression nesting depth (0 selects the default)."`
	Reflection      bool   `default:"false"   help:"Allow expressions to use reflection."                                          negatable:""`
	Cache           int    `default:"0"       help:"Cache up to this many compiled expressions (0 disables)."`
	Metrics         bool   `default:"false"   help:"Write interpreter metrics to stderr on exit."                                  negatable:""`

	registry *prometheus.Registry
}

// Vars returns the interpolation variables used by the language flags.
func (*Session) Vars() kong.Vars {
	var groups []string

	for g := stdlib.Aliases; g <= stdlib.System; g <<= 1 {
		groups = append(groups, g.String())
	}

	var numbers []string
	for n := range lang.NumberTypes() {
		numbers = append(numbers, n)
	}

	return kong.Vars{
		"stdlibEnum": strings.Join(groups, ", "),
		"numberEnum": strings.Join(numbers, ","),
	}
}

// Group returns the help group of the language flags.
func (*Session) Group() kong.Group {
	var group kong.Group

	group.Key = "lang"
	group.Title = "Language options"

	return group
}

// settings converts the flags to environment settings.
func (s *Session) settings() ([]lang.Setting, error) {
	number, ok := lang.ParseNumberType(s.Number)
	if !ok {
		return nil, ErrSettings.With(slog.String("number", s.Number))
	}

	assign, ok := lang.ParseAssignmentOperators(s.Assignment)
	if !ok {
		return nil, ErrSettings.With(slog.String("assignment", s.Assignment))
	}

	return []lang.Setting{
		lang.WithCaseInsensitive(s.CaseInsensitive),
		lang.WithLateBinding(s.LateBinding),
		lang.WithLambdas(s.Lambdas),
		lang.WithDefaultNumber(number),
		lang.WithAssignment(assign),
		lang.WithMaxDepth(s.MaxDepth),
	}, nil
}

// Interpreter builds an interpreter from the flags, the selected library
// groups and the environment files stored in ctx.
func (s *Session) Interpreter(ctx context.Context) (*lang.Interpreter, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}

	groups, ok := stdlib.ParseGroup(s.Stdlib)
	if !ok {
		return nil, ErrSettings.With(slog.String("stdlib", s.Stdlib))
	}

	env := lang.NewEnvironment(settings...)

	if err := stdlib.Register(env, groups); err != nil {
		return nil, ErrEnvironment.Wrap(err)
	}

	if src := sourceFilesFrom(ctx); src != nil {
		if err := LoadEnvironment(ctx, env, src); err != nil {
			return nil, err
		}
	}

	logger := log.Default().With(slog.String("component", "lang"))

	opts := []lang.Option{
		lang.WithEnvironment(env),
		lang.WithLogger(logger),
		lang.WithReflection(s.Reflection),
	}

	if s.Cache > 0 {
		opts = append(opts, lang.WithCache(lang.NewCache(s.Cache)))
	}

	if s.Metrics {
		s.registry = prometheus.NewRegistry()

		m, err := lang.NewMetrics(s.registry)
		if err != nil {
			return nil, ErrSettings.Wrap(err)
		}

		opts = append(opts, lang.WithMetrics(m))
	}

	log.DebugContext(ctx, "interpreter ready",
		slog.String("stdlib", groups.String()),
		slog.Int("identifiers", len(env.Identifiers())),
		slog.Int("types", len(env.Types())),
		slog.Uint64("version", env.Version()))

	return lang.New(opts...), nil
}

// WriteMetrics writes the collected metrics to w in the Prometheus text
// format. It does nothing unless metrics were enabled.
func (s *Session) WriteMetrics(w io.Writer) error {
	if s.registry == nil {
		return nil
	}

	families, err := s.registry.Gather()
	if err != nil {
		return ErrWriteMetrics.Wrap(err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return ErrWriteMetrics.Wrap(err)
		}
	}

	return nil
}

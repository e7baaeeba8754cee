package lang

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ardnew/dexpr/log"
)

// Interpreter parses expression text against an [Environment] into
// compiled [Expression] values.
//
// Parsing reads the environment and pipeline without locking; do not modify
// either while parsing concurrently. Compiled expressions are independent of
// later changes to the environment.
type Interpreter struct {
	env             *Environment
	pipeline        *Pipeline
	logger          log.Logger
	allowReflection bool
	members         []string
	passes          []Pass
	guard           *guard
	cache           *Cache
	metrics         *Metrics
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithEnvironment uses env instead of a new empty environment.
func WithEnvironment(env *Environment) Option {
	return func(i *Interpreter) {
		if env != nil {
			i.env = env
		}
	}
}

// WithLogger logs parse and invoke activity to logger. The zero
// [log.Logger] discards everything.
func WithLogger(logger log.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithReflection allows expressions to use reflection by leaving the
// reflection guard out of the pipeline.
func WithReflection(allow bool) Option {
	return func(i *Interpreter) { i.allowReflection = allow }
}

// WithReflectiveMembers replaces [DefaultReflectiveMembers] as the member
// names the reflection guard rejects.
func WithReflectiveMembers(names ...string) Option {
	return func(i *Interpreter) { i.members = names }
}

// WithPasses appends passes to the pipeline after the reflection guard.
func WithPasses(passes ...Pass) Option {
	return func(i *Interpreter) { i.passes = append(i.passes, passes...) }
}

// WithCache reuses compiled expressions from c.
func WithCache(c *Cache) Option {
	return func(i *Interpreter) { i.cache = c }
}

// WithMetrics records parse and invoke outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// New returns an interpreter configured by opts.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{members: DefaultReflectiveMembers}

	for _, opt := range opts {
		opt(i)
	}

	if i.env == nil {
		i.env = NewEnvironment()
	}

	i.guard = newGuard(i.members)
	i.pipeline = NewPipeline()

	if !i.allowReflection {
		i.pipeline.Append(Pass{Name: ReflectionGuardName, Fn: i.guard.pass})
	}

	i.pipeline.Append(i.passes...)

	return i
}

// Environment returns the symbol environment.
func (i *Interpreter) Environment() *Environment { return i.env }

// Pipeline returns the transform pipeline.
func (i *Interpreter) Pipeline() *Pipeline { return i.pipeline }

// Cache returns the compile cache, or nil.
func (i *Interpreter) Cache() *Cache { return i.cache }

// Parse compiles text with the declared params. A nil returnType leaves the
// result type unconstrained; otherwise the result must convert implicitly to
// returnType.
func (i *Interpreter) Parse(
	ctx context.Context,
	text string,
	returnType reflect.Type,
	params ...Parameter,
) (*Expression, error) {
	start := time.Now()

	if i.cache == nil {
		e, err := i.parse(ctx, text, returnType, params)
		i.parsed(ctx, text, returnType, params, start, false, err)

		return e, err
	}

	key := cacheKey(i, text, returnType, params)

	e, hit, err := i.cache.load(key, func() (*Expression, error) {
		return i.parse(ctx, text, returnType, params)
	})
	i.parsed(ctx, text, returnType, params, start, hit, err)

	return e, err
}

func (i *Interpreter) parse(
	ctx context.Context,
	text string,
	returnType reflect.Type,
	params []Parameter,
) (*Expression, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInvocation.Wrap(err)
	}

	syntax, err := ParseSyntax(text, i.env.settings.Grammar())
	if err != nil {
		return nil, withSource(err, text)
	}

	i.logger.TraceContext(ctx, "parsed syntax", slog.String("tree", syntax.String()))

	bound, err := Bind(i.env, syntax, returnType, params...)
	if err != nil {
		return nil, withSource(err, text)
	}

	root, err := i.pipeline.Run(bound.Root)
	if err != nil {
		return nil, withSource(err, text)
	}

	i.logger.TraceContext(ctx, "transformed",
		slog.String("tree", root.String()),
		slog.Any("passes", i.pipeline.Names()))

	bound.Root = root

	prog, err := compile(bound, i.env.settings, i.guard)
	if err != nil {
		return nil, withSource(err, text)
	}

	return &Expression{
		id:          uuid.New(),
		text:        text,
		root:        root,
		params:      slices.Clone(params),
		returnType:  returnType,
		identifiers: bound.Identifiers,
		types:       bound.Types,
		usedParams:  bound.UsedParams,
		prog:        prog,
		interp:      i,
	}, nil
}

func (i *Interpreter) parsed(
	ctx context.Context,
	text string,
	returnType reflect.Type,
	params []Parameter,
	start time.Time,
	hit bool,
	err error,
) {
	attrs := append(parseAttrs(text, returnType, params), elapsed(start))

	switch {
	case err != nil:
		i.metrics.parsed(ResultError, time.Since(start))
		i.logger.DebugContext(ctx, "parse failed", append(attrs, errorAttrs(err)...)...)
	case hit:
		i.metrics.parsed(ResultCached, time.Since(start))
		i.logger.TraceContext(ctx, "parse cached", attrs...)
	default:
		i.metrics.parsed(ResultSuccess, time.Since(start))
		i.logger.TraceContext(ctx, "parse complete", attrs...)
	}
}

func (i *Interpreter) invoked(
	ctx context.Context,
	e *Expression,
	d time.Duration,
	err error,
) {
	i.metrics.invoked(err)

	if err != nil {
		i.logger.DebugContext(ctx, "invoke failed",
			append([]slog.Attr{slog.Any("expression", e)}, errorAttrs(err)...)...)

		return
	}

	i.logger.TraceContext(ctx, "invoke complete",
		slog.Any("expression", e),
		slog.Duration("elapsed", d))
}

// ParseFunc compiles text as a callable of func type fnType, naming its
// parameters names in order. The result type of fnType (if any) is the
// declared return type. Use [Expression.MakeFunc] or [As] on the result.
func (i *Interpreter) ParseFunc(
	ctx context.Context,
	text string,
	fnType reflect.Type,
	names ...string,
) (*Expression, error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, ErrConfiguration.Wrapf("%s is not a func type", typeName(fnType))
	}

	if fnType.NumIn() != len(names) {
		return nil, ErrConfiguration.
			Wrapf("%s takes %d arguments, got %d names", fnType, fnType.NumIn(), len(names))
	}

	params := make([]Parameter, len(names))
	for j, n := range names {
		params[j] = Parameter{Name: n, Type: fnType.In(j)}
	}

	var ret reflect.Type
	if fnType.NumOut() > 0 && fnType.Out(0) != errorType {
		ret = fnType.Out(0)
	}

	return i.Parse(ctx, text, ret, params...)
}

// ParseAs compiles text as a typed func F with parameters names.
func ParseAs[F any](
	ctx context.Context,
	i *Interpreter,
	text string,
	names ...string,
) (F, error) {
	var zero F

	e, err := i.ParseFunc(ctx, text, reflect.TypeFor[F](), names...)
	if err != nil {
		return zero, err
	}

	return As[F](e)
}

// Eval parses and immediately invokes text. A parameter without a Type takes
// the dynamic type of its Value (the empty interface for a nil Value).
func (i *Interpreter) Eval(ctx context.Context, text string, params ...Parameter) (any, error) {
	decl := make([]Parameter, len(params))
	args := make([]any, len(params))

	for j, p := range params {
		decl[j] = p
		if decl[j].Type == nil {
			decl[j].Type = anyType
			if p.Value != nil {
				decl[j].Type = reflect.TypeOf(p.Value)
			}
		}

		args[j] = p.Value
	}

	e, err := i.Parse(ctx, text, nil, decl...)
	if err != nil {
		return nil, err
	}

	v, err := e.InvokeContext(ctx, args...)
	if err != nil {
		return nil, err
	}

	i.logger.TraceContext(ctx, "evaluated",
		slog.String("text", text),
		slog.String("result_type", resultTypeName(v)))

	return v, nil
}

// Detect reports the names text references. See [Detect].
func (i *Interpreter) Detect(
	text string,
	children bool,
	params ...Parameter,
) (*Detection, error) {
	return Detect(i.env, text, children, params...)
}

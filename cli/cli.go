package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/dexpr/cli/cmd"
	"github.com/ardnew/dexpr/pkg"
)

// CLI is the top-level command-line interface for dexpr.
type CLI struct {
	Log     logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof   pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Session cmd.Session `embed:"" group:"lang"`

	Env []string `help:"YAML environment file(s), or '-' for stdin" placeholder:"FILE" short:"e" type:"existingfile"`

	Eval    cmd.Eval    `cmd:"" default:"withargs" help:"Evaluate an expression"`
	Check   cmd.Check   `cmd:""                    help:"Type-check an expression without evaluating it"`
	Detect  cmd.Detect  `cmd:""                    help:"List the names an expression refers to"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Print an expression in canonical form"`
	Repl    cmd.Repl    `cmd:""                    help:"Start an interactive session"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version information"`
}

// Run executes the dexpr CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cachePath(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Session.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before parsing so that parse errors are
	// reported in the requested format.
	cli.Log.scan(args)

	groups := append([]kong.Group{cli.Log.group(), cli.Session.Group()},
		cli.Pprof.groups()...)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(groups),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Env)

	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli.Session)
}

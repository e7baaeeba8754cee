package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/dexpr/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files
// like the one written by the init command.
//
// Keys are flag names. Nested mappings join their keys with "-", and
// underscores may be used in place of hyphens, so the following are all
// equivalent to --log-level=debug:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Command-line flags override configuration values. A file that fails to
// parse is reported and otherwise ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if !errors.Is(err, io.EOF) {
				log.WarnContext(ctx, "ignoring configuration file",
					slog.String("error", err.Error()))
			}

			return config{}, nil
		}

		out := make(config, len(doc))
		out.flatten("", doc)

		return out, nil
	}
}

// config implements [kong.Resolver] over a flattened YAML mapping.
type config map[string]any

// flatten stores every leaf of m under its hyphen-joined key path.
func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := strings.ReplaceAll(k, "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = flagText(v)
	}
}

// flagText converts a decoded YAML value to the form kong parses from the
// command line. Sequences become comma-separated lists.
func flagText(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			items[i] = fmt.Sprint(flagText(e))
		}

		return strings.Join(items, ",")
	}

	return fmt.Sprint(v)
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}

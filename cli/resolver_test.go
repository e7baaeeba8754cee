package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want config
	}{
		{
			name: "flat",
			yaml: "log-level: debug\ncache: 16\nmetrics: true\n",
			want: config{"log-level": "debug", "cache": "16", "metrics": true},
		},
		{
			name: "underscores",
			yaml: "log_time_layout: Kitchen\n",
			want: config{"log-time-layout": "Kitchen"},
		},
		{
			name: "nested",
			yaml: "log:\n  level: trace\n  caller: false\npprof:\n  dir: /tmp/p\n",
			want: config{"log-level": "trace", "log-caller": false, "pprof-dir": "/tmp/p"},
		},
		{
			name: "sequence",
			yaml: "env: [a.yaml, b.yaml]\nratio: 0.5\n",
			want: config{"env": "a.yaml,b.yaml", "ratio": "0.5"},
		},
		{
			name: "empty",
			yaml: "",
			want: config{},
		},
		{
			name: "malformed",
			yaml: "log: [\n",
			want: config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(t.Context())(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("resolve() error: %v", err)
			}

			got, ok := r.(config)
			if !ok {
				t.Fatalf("resolve() = %T, want config", r)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolve() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigResolve(t *testing.T) {
	var cli struct {
		Level string `default:"warn"`
		Count int    `default:"1"`
		Tags  []string
		Other string `default:"x"`
	}

	c := config{"level": "debug", "count": "3", "tags": "a,b"}

	parser, err := kong.New(&cli, kong.Resolvers(c))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--level=error"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cli.Level != "error" {
		t.Errorf("Level = %q, want command line value \"error\"", cli.Level)
	}

	if cli.Count != 3 {
		t.Errorf("Count = %d, want 3", cli.Count)
	}

	if !reflect.DeepEqual(cli.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %q, want [a b]", cli.Tags)
	}

	if cli.Other != "x" {
		t.Errorf("Other = %q, want default \"x\"", cli.Other)
	}
}

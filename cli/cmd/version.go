package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/ardnew/dexpr/pkg"
	"github.com/ardnew/dexpr/profile"
)

// Version prints the program version.
type Version struct {
	Verbose bool `help:"Include build details." short:"v"`
}

// Run executes the version command.
func (v *Version) Run(context.Context) error {
	if !v.Verbose {
		_, err := fmt.Println(pkg.Name, pkg.Version())

		return err
	}

	_, err := fmt.Fprintf(os.Stdout, "%s %s\n  go:       %s\n  platform: %s/%s\n  pprof:    %t\n",
		pkg.Name, pkg.Version(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH, profile.Enabled)

	return err
}

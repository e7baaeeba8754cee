package stdlib

import (
	"os"
	"runtime"

	"github.com/ardnew/dexpr/lang"
)

func getenv(name string) string { return os.Getenv(name) }

func getenvOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return fallback
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	return dir
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}

	return h
}

func registerSystem(env *lang.Environment) error {
	if err := env.SetFunction("getenv", getenv, getenvOr); err != nil {
		return err
	}

	if err := env.SetGetter("cwd", cwd); err != nil {
		return err
	}

	if err := env.SetGetter("hostname", hostname); err != nil {
		return err
	}

	if err := env.SetVariable("platform", runtime.GOOS+"/"+runtime.GOARCH); err != nil {
		return err
	}

	return env.SetVariable("pathSeparator", string(os.PathSeparator))
}

package pkg

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EnvPrefix prefixes the environment variables that relocate the
// directories below, e.g. DEXPR_CONFIG_DIR.
var EnvPrefix = strings.ToUpper(Name) + "_"

// ConfigDir returns the configuration directory path: $DEXPR_CONFIG_DIR when
// set, otherwise Name under the user configuration directory.
var ConfigDir = sync.OnceValue(func() string {
	return userDir("CONFIG_DIR", os.UserConfigDir, ".config")
})

// CacheDir returns the cache directory path used for transient files such as
// REPL history: $DEXPR_CACHE_DIR when set, otherwise Name under the user
// cache directory.
var CacheDir = sync.OnceValue(func() string {
	return userDir("CACHE_DIR", os.UserCacheDir, ".cache")
})

// userDir resolves one of the per-user directories. When the platform
// directory is unknown it falls back to a hidden directory in $HOME, then to
// the working directory.
func userDir(key string, base func() (string, error), hidden string) string {
	if dir := os.Getenv(EnvPrefix + key); dir != "" {
		return filepath.Clean(dir)
	}

	dir, err := base()
	if err != nil {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Name)
}

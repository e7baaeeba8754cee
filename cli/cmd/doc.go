// Package cmd implements the dexpr subcommands.
//
// Commands that compile expressions take a [*Session], the group of
// language flags, and build their interpreter from it together with the
// YAML environment files stored in the context by [WithSourceFiles].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)

// Package cli implements the progress command line: one cobra command per
// photo operation plus an interactive shell that dispatches to the same
// commands.
//
// Global settings (-d, -k, -r, -c ...) are read by the config package from
// the full argument list; cobra ignores them as unknown flags.
package cli

// Package cmd implements the command-line interface of expmap. It provides a
// hierarchical command structure with operations for running a server that hosts
// expiring maps and for using those maps as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for map operations (put, get, rm, has, ttl, size, info, perf)
//   - serve: Commands for starting and configuring the expmap server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See expmap -help for a list of all commands.
package cmd

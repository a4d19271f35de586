// Package commands implements CLI command handlers for smcroute.
//
// This package provides the command-line interface layer for the daemon,
// implementing the service, interfaces and check subcommands. Each command
// implements the Runner interface and delegates the actual work to the
// iface, mroute and api packages.
//
// All commands follow a consistent pattern:
//   - Init(): Parse arguments and load/validate configuration
//   - Run(): Execute the command
//   - Name(): Return command name for routing
package commands

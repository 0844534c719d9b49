// Package cli constructs the pyrename command-line interface. It wires the Cobra root
// command to the Viper configuration loader and zap logging, runs the library rename, and
// reports the outcome on standard output: the new project root on success or the failure
// sentinel on failure.
package cli

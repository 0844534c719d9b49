// Package utils exposes the configuration and logging plumbing shared by the CLI.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file, and environment
// variables through Viper. LoggerFactory builds zap loggers that write to standard error so
// standard output stays free for the command result.
package utils

// Package cli assembles the sesslint command-line application: the cobra
// root command, its subcommands, configuration loading, and logging.
package cli

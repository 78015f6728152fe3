/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacobin-style/cldcvm/internal/trace"
)

const version = "0.1.0"

var (
	configPath string
	traceLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cldcvm",
	Short: "A CLDC/MIDP virtual machine core",
	Long: "cldcvm loads a class from an application archive, links its bootstrap\n" +
		"dependencies, and runs it on a cooperative-scheduler interpreter.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := traceLevel
		if !cmd.Flags().Changed("trace") {
			if prof, err := loadProfile(configPath); err == nil && prof.Trace != "" {
				level = prof.Trace
			}
		}
		trace.SetLevel(parseLevel(level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "cldcvm.yaml", "path to an optional VM profile")
	rootCmd.PersistentFlags().StringVar(&traceLevel, "trace", "WARNING", "minimum trace level: TRACE, FINE, INFO, WARNING, SEVERE")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(versionCmd)
}

func parseLevel(name string) trace.Level {
	switch strings.ToUpper(name) {
	case "TRACE", "TRACE_INST":
		return trace.TRACE_INST
	case "FINE":
		return trace.FINE
	case "INFO":
		return trace.INFO
	case "SEVERE":
		return trace.SEVERE
	default:
		return trace.WARNING
	}
}

/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacobin-style/cldcvm/internal/archive"
	"github.com/jacobin-style/cldcvm/internal/vm"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
)

var (
	flagQuantum   int
	flagClasspath string
	flagJar       string
	flagBoot      string
)

var runCmd = &cobra.Command{
	Use:   "run <main-class> [program args...]",
	Short: "Link and run a class's public static void main(String[]) method",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := loadProfile(configPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}

		quantum := flagQuantum
		if !cmd.Flags().Changed("quantum") && prof.Quantum > 0 {
			quantum = prof.Quantum
		}
		bootPath := flagBoot
		if bootPath == "" {
			bootPath = prof.BootstrapPath
		}
		appPath := flagJar
		if appPath == "" {
			appPath = flagClasspath
		}

		var appReader, bootReader vmhost.ArchiveReader
		if appPath != "" {
			r, err := archive.OpenZip(appPath)
			if err != nil {
				return err
			}
			defer r.Close()
			appReader = r
		}
		if bootPath != "" {
			r, err := archive.OpenZip(bootPath)
			if err != nil {
				return err
			}
			defer r.Close()
			bootReader = r
		}

		machine := vm.New(vm.Config{Quantum: quantum, AppArchive: appReader, BootArchive: bootReader})
		if _, err := machine.StartMain(args[0], args[1:]); err != nil {
			return err
		}
		code, err := machine.Run()
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(int(code))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&flagQuantum, "quantum", 1000, "instructions granted per scheduling turn")
	runCmd.Flags().StringVar(&flagClasspath, "cp", "", "application archive path (zip/jar)")
	runCmd.Flags().StringVar(&flagJar, "jar", "", "application archive path, same meaning as -cp")
	runCmd.Flags().StringVar(&flagBoot, "boot", "", "bootstrap library archive path")
}

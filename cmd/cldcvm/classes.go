/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jacobin-style/cldcvm/internal/archive"
)

var classesCmd = &cobra.Command{
	Use:   "classes <archive>",
	Short: "List the class entries stored in an application or bootstrap archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := archive.OpenZip(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		names := r.ClassEntries()
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

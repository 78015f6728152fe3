/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// profile is the on-disk cldcvm.yaml shape: a handful of defaults CLI flags
// may override, per SPEC_FULL.md's ambient-stack configuration section.
// Flags always win over the profile; the profile always wins over the
// package's own built-in defaults.
type profile struct {
	Quantum       int    `yaml:"quantum"`
	Trace         string `yaml:"trace"`
	BootstrapPath string `yaml:"bootstrapPath"`
}

// loadProfile reads and parses a cldcvm.yaml-shaped file. A missing file is
// not an error -- it simply yields a zero-valued profile whose fields are
// all "unset".
func loadProfile(path string) (profile, error) {
	var p profile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}
	return p, nil
}

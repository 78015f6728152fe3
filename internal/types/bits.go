/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package types

import "math"

// Float32bits and Float64bits expose the IEEE-754 bit reinterpretation used
// by Value.AsSlot to encode float/double values as raw 64-bit slots.
func Float32bits(f float32) uint32  { return math.Float32bits(f) }
func Float64bits(d float64) uint64  { return math.Float64bits(d) }
func Float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func Float64frombits(b uint64) float64 { return math.Float64frombits(b) }

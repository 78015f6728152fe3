/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import "github.com/jacobin-style/cldcvm/internal/excnames"

// Short local aliases for the bootstrap exception names thrown directly by
// the interpreter's own bounds/null/type checks and native dispatch.
const (
	nullPointerException           = excnames.NullPointerException
	arrayIndexOutOfBoundsException = excnames.ArrayIndexOutOfBoundsException
	arithmeticException            = excnames.ArithmeticException
	classCastException             = excnames.ClassCastException
	negativeArraySizeException     = excnames.NegativeArraySizeException
	unsatisfiedLinkError           = excnames.UnsatisfiedLinkError
)

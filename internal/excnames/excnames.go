/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames names the bootstrap exception classes the interpreter
// constructs directly (rather than loading from an archive), mirroring the
// fixed list of classes jacobin seeds field offsets for in its classloader.
package excnames

const (
	NullPointerException         = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	ArithmeticException           = "java/lang/ArithmeticException"
	ClassCastException            = "java/lang/ClassCastException"
	NegativeArraySizeException    = "java/lang/NegativeArraySizeException"
	ClassNotFoundException        = "java/lang/ClassNotFoundException"
	UnsatisfiedLinkError          = "java/lang/UnsatisfiedLinkError"
	OutOfMemoryError              = "java/lang/OutOfMemoryError"
	IllegalMonitorStateException  = "java/lang/IllegalMonitorStateException"
	IllegalStateException         = "java/lang/IllegalStateException"
	InterruptedException          = "java/lang/InterruptedException"
	IOException                   = "java/io/IOException"
)

// BootstrapClasses is the fixed list of classes whose storage layout is
// dictated by native code: they are synthesised by the classloader as the
// last resolution step, rather than decoded from an archive.
var BootstrapClasses = []string{
	"java/lang/Object",
	"java/lang/String",
	"java/lang/StringBuffer",
	"java/lang/StringBuilder",
	"java/lang/Thread",
	"java/io/InputStream",
	NullPointerException,
	ArrayIndexOutOfBoundsException,
	ArithmeticException,
	ClassCastException,
	NegativeArraySizeException,
	ClassNotFoundException,
	UnsatisfiedLinkError,
	OutOfMemoryError,
	IllegalMonitorStateException,
	IllegalStateException,
	InterruptedException,
	IOException,
}

/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction is the native-method registry: a table from
// "class/name(descriptor)" to a Go function the interpreter calls instead
// of pushing a bytecode frame, plus the concrete native bindings bootstrap
// classes need.
//
// Grounded directly on artipop-jacobin's gfunction.MethodSignatures/GMeth
// pattern (javaLangThread.go's Load_Lang_Thread populating a package-level
// map of "class/name(descriptor)" -> GMeth{GFunction}), adapted so
// GFunction receives an explicit *Context instead of reaching for package
// globals, which lets tests build an isolated registry per VM instance
// instead of mutating shared state.
package gfunction

import (
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/object"
	"github.com/jacobin-style/cldcvm/internal/scheduler"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmhost"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// Context is everything a native method may need to touch. It is built
// once per VM instance and threaded through every GFunction call, rather
// than read from package-level state.
type Context struct {
	Heap      *object.Heap
	Registry  *classloader.Registry
	Scheduler *scheduler.Scheduler
	Clock     vmhost.Clock
	Thread    *vmthread.Thread

	// ExitRequested/ExitCode record a System.exit(int) call so the
	// driver loop can stop the scheduler promptly.
	ExitRequested bool
	ExitCode      int32
}

// GMeth is one registered native method: the Go function the interpreter
// calls with the already-popped receiver (if any) and arguments.
type GMeth struct {
	GFunction func(ctx *Context, params []types.Value) (types.Value, error)
}

// Registry is the "class/name(descriptor)" -> GMeth table, one instance per
// VM so tests can build an isolated registry rather than mutating shared
// package state.
type Registry struct {
	signatures map[string]GMeth
}

// NewRegistry builds a registry pre-populated with every native binding
// this package knows how to run.
func NewRegistry() *Registry {
	r := &Registry{signatures: make(map[string]GMeth)}
	loadLangObject(r)
	loadLangString(r)
	loadLangStringBuildAppend(r)
	loadLangThread(r)
	loadLangThrowable(r)
	loadLangSystem(r)
	loadIoInputStream(r)
	loadTextRepair(r)
	return r
}

// Key builds the "class/name(descriptor)" lookup key used throughout this
// package and by the interpreter's invoke opcodes.
func Key(className, methodName, descriptor string) string {
	return className + "/" + methodName + descriptor
}

func (r *Registry) register(key string, m GMeth) { r.signatures[key] = m }

// Lookup returns the native binding for key, and whether one is registered.
func (r *Registry) Lookup(key string) (GMeth, bool) {
	m, ok := r.signatures[key]
	return m, ok
}

// UnsatisfiedLinkError signals a native-call failure from within a
// GFunction body itself (a bad receiver, an out-of-range argument), as
// distinct from the interpreter's own lookup-miss path in dispatch.
type UnsatisfiedLinkError struct {
	Key string
}

func (e *UnsatisfiedLinkError) Error() string { return "no native binding for " + e.Key }

func justReturn(_ *Context, _ []types.Value) (types.Value, error) { return types.Value{}, nil }

/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmhost defines the external-collaborator interfaces: everything
// the core treats as a host capability rather than something it implements
// itself. Graphics, audio, RMS, and the SDL-style event pump are
// deliberately left to a host binding and are not declared here beyond the
// minimal EventSource shape the scheduler's driver loop needs to stay
// unblocked; their concrete native behaviour belongs to whatever binds the
// core to a device or emulator.
package vmhost

import "time"

// ArchiveReader looks up class bytes by path inside a ZIP-archived JAR or
// bootstrap library.
type ArchiveReader interface {
	// ReadEntry returns the raw bytes stored at path, or ok=false if the
	// archive has no such entry.
	ReadEntry(path string) (data []byte, ok bool, err error)
	// Close releases any resources (file handles, mmap regions) held by
	// the reader.
	Close() error
}

// Clock abstracts the monotonic millisecond wall clock the scheduler uses
// for sleep/wait wake times.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// KeyEvent is the minimal shape the driver's pump loop dispatches into
// keyPressed/keyReleased native callbacks.
type KeyEvent struct {
	Code    int32
	Pressed bool
}

// EventSource is the host's input/quit collaborator.
type EventSource interface {
	// PollEvents drains any currently queued key events.
	PollEvents() []KeyEvent
	// QuitRequested reports whether the host has asked the VM to shut down.
	QuitRequested() bool
}

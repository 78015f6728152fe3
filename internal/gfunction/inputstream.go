/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// loadIoInputStream registers java/io/InputStream's natives: read/close
// bottom out in the heap's stream-handle table (internal/object.Heap),
// which the host populates via whatever transport it wraps.
func loadIoInputStream(r *Registry) {
	r.register(Key("java/io/InputStream", "read", "()I"), GMeth{GFunction: inputStreamRead})
	r.register(Key("java/io/InputStream", "close", "()V"), GMeth{GFunction: inputStreamClose})
}

func inputStreamRead(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Int(-1), &UnsatisfiedLinkError{Key: "read on null stream"}
	}
	handleV, ok := inst.GetField(classloader.FieldKey("handle", "I"))
	if !ok {
		return types.Int(-1), nil
	}
	r := ctx.Heap.GetStream(handleV.I)
	if r == nil {
		return types.Int(-1), nil
	}
	var b [1]byte
	n, err := r.Read(b[:])
	if n == 0 || err != nil {
		return types.Int(-1), nil
	}
	return types.Int(int32(b[0])), nil
}

func inputStreamClose(ctx *Context, params []types.Value) (types.Value, error) {
	inst := ctx.Heap.Get(params[0].Ref)
	if inst == nil {
		return types.Value{}, nil
	}
	handleV, ok := inst.GetField(classloader.FieldKey("handle", "I"))
	if ok {
		ctx.Heap.RemoveStream(handleV.I)
	}
	return types.Value{}, nil
}

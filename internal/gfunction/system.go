/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import "github.com/jacobin-style/cldcvm/internal/types"

// loadLangSystem registers java/lang/System's natives: the millisecond
// clock the scheduler's sleep/wait machinery is built on, array copy, and
// identity hash, all of which bottom out in host capabilities rather than
// bytecode.
func loadLangSystem(r *Registry) {
	r.register(Key("java/lang/System", "currentTimeMillis", "()J"), GMeth{GFunction: currentTimeMillis})
	r.register(Key("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I"), GMeth{GFunction: identityHashCode})
	r.register(Key("java/lang/System", "arraycopy", "(Ljava/lang/Object;ILjava/lang/Object;II)V"), GMeth{GFunction: arraycopy})
	r.register(Key("java/lang/System", "exit", "(I)V"), GMeth{GFunction: systemExit})
}

func currentTimeMillis(ctx *Context, _ []types.Value) (types.Value, error) {
	return types.Long(ctx.Clock.NowMillis()), nil
}

func identityHashCode(_ *Context, params []types.Value) (types.Value, error) {
	if params[0].IsNull() {
		return types.Int(0), nil
	}
	return types.Int(params[0].Ref), nil
}

func arraycopy(ctx *Context, params []types.Value) (types.Value, error) {
	src := ctx.Heap.Get(params[0].Ref)
	srcPos := int(params[1].I)
	dst := ctx.Heap.Get(params[2].Ref)
	dstPos := int(params[3].I)
	length := int(params[4].I)

	if src == nil || dst == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "arraycopy on null array"}
	}
	if srcPos < 0 || dstPos < 0 || length < 0 ||
		srcPos+length > len(src.Slots) || dstPos+length > len(dst.Slots) {
		return types.Value{}, &UnsatisfiedLinkError{Key: "arraycopy bounds"}
	}
	copy(dst.Slots[dstPos:dstPos+length], src.Slots[srcPos:srcPos+length])
	return types.Value{}, nil
}

func systemExit(ctx *Context, params []types.Value) (types.Value, error) {
	ctx.ExitCode = params[0].I
	ctx.ExitRequested = true
	return types.Value{}, nil
}

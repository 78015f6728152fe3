/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/types"
)

// loadTextRepair registers the byte-array String constructor, which
// attempts a best-effort "GBK double-encoding repair": bytes handed to the
// no-charset String(byte[]) constructor are read as UTF-8 when valid; when
// they are not valid UTF-8 but decode cleanly as GBK, the GBK reading is
// used; otherwise they are widened as Latin-1.
func loadTextRepair(r *Registry) {
	r.register(Key("java/lang/String", "<init>", "([B)V"), GMeth{GFunction: stringFromBytes})
}

func stringFromBytes(ctx *Context, params []types.Value) (types.Value, error) {
	selfHandle := params[0].Ref
	arr := ctx.Heap.Get(params[1].Ref)
	if arr == nil {
		return types.Value{}, &UnsatisfiedLinkError{Key: "String(byte[]) on null array"}
	}

	raw := make([]byte, len(arr.Slots))
	for i, s := range arr.Slots {
		raw[i] = byte(s.I)
	}

	decoded := repairGBKDoubleEncoding(raw)

	sv, err := NewJavaString(ctx, decoded)
	if err != nil {
		return types.Value{}, err
	}
	srcInst := ctx.Heap.Get(sv.Ref)
	dstInst := ctx.Heap.Get(selfHandle)
	if srcInst != nil && dstInst != nil {
		v, _ := srcInst.GetField(classloader.FieldKey("value", "[C"))
		dstInst.SetField(classloader.FieldKey("value", "[C"), v)
		c, _ := srcInst.GetField(classloader.FieldKey("count", "I"))
		dstInst.SetField(classloader.FieldKey("count", "I"), c)
	}
	return types.Value{}, nil
}

// repairGBKDoubleEncoding returns raw as a UTF-8 string when it is valid
// UTF-8; otherwise the GBK reading when raw decodes cleanly as GBK, and the
// plain Latin-1 widening of raw when it does not.
func repairGBKDoubleEncoding(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return latin1Widen(raw)
	}
	if !utf8.Valid(decoded) {
		return latin1Widen(raw)
	}
	return string(decoded)
}

func latin1Widen(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

/*
 * cldcvm - a CLDC/MIDP virtual machine core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"fmt"

	"github.com/jacobin-style/cldcvm/internal/classloader"
	"github.com/jacobin-style/cldcvm/internal/frame"
	"github.com/jacobin-style/cldcvm/internal/gfunction"
	"github.com/jacobin-style/cldcvm/internal/types"
	"github.com/jacobin-style/cldcvm/internal/vmthread"
)

// execInvoke handles INVOKEVIRTUAL/INVOKESPECIAL/INVOKESTATIC/
// INVOKEINTERFACE. INVOKESTATIC alone
// drives the class-initialisation detour, and does so before popping any
// arguments so a pushed <clinit> frame leaves the stack untouched for the
// re-run once it returns.
func (vm *Interpreter) execInvoke(t *vmthread.Thread, f *frame.Frame, op byte, start int) error {
	idx := u2At(f.Code, f.PC)
	f.PC += 2
	className, methodName, descriptor := f.File.MethodRef(idx)
	key := classloader.MethodAndDescriptorKey(methodName, descriptor)
	numParams := len(types.ScanParams(descriptor))

	if op == opInvokeStatic {
		_, pushed, err := vm.resolveClassForInit(t, className)
		if err != nil {
			return err
		}
		if pushed {
			f.PC = start
			return nil
		}
	}

	args := make([]types.Value, numParams)
	for i := numParams - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}

	if op == opInvokeStatic {
		declaring, err := vm.Registry.Resolve(className)
		if err != nil {
			return err
		}
		method := declaring.FindMethod(key)
		if method == nil {
			return fmt.Errorf("no such static method %s.%s", className, key)
		}
		return vm.dispatch(t, f, method, types.Value{}, args, false)
	}

	receiver := f.Pop()
	if receiver.IsNull() {
		return vm.throwNew(t, f, nullPointerException, "invoke on null")
	}

	if op == opInvokeSpecial {
		declaring, err := vm.Registry.Resolve(className)
		if err != nil {
			return err
		}
		if declaring.Name == "java/lang/Object" && methodName == "<init>" {
			return nil
		}
		method := declaring.FindMethod(key)
		if method == nil {
			return fmt.Errorf("no such method %s.%s", className, key)
		}
		return vm.dispatch(t, f, method, receiver, args, true)
	}

	// INVOKEVIRTUAL / INVOKEINTERFACE: dispatch on the receiver's runtime
	// class, with a per-runtime-class cache validated by ancestor re-walk.
	inst := vm.Heap.Get(receiver.Ref)
	if inst == nil || inst.Klass == nil {
		return vm.throwNew(t, f, nullPointerException, "invoke on null")
	}
	runtime, ok := inst.Klass.(*classloader.LinkedClass)
	if !ok {
		return fmt.Errorf("invoke target %s is not a linked class", className)
	}

	method := runtime.CachedVirtualMethod(key)
	if method == nil {
		method = runtime.FindMethod(key)
		if method == nil {
			return fmt.Errorf("no such method %s.%s on %s", className, key, runtime.Name)
		}
		runtime.CacheVirtualMethod(key, method)
	}
	return vm.dispatch(t, f, method, receiver, args, true)
}

// dispatch runs method, either as a native call (consuming a result
// immediately and pushing it onto the caller's frame) or by pushing a new
// bytecode frame whose locals are laid out by real JVM slot width: a
// category-2 argument (long/double) consumes two slot positions even
// though this port stores the whole value at the first one.
func (vm *Interpreter) dispatch(t *vmthread.Thread, f *frame.Frame, method *classloader.MethodRef, receiver types.Value, args []types.Value, hasReceiver bool) error {
	if method.Native {
		fullArgs := args
		if hasReceiver {
			fullArgs = make([]types.Value, len(args)+1)
			fullArgs[0] = receiver
			copy(fullArgs[1:], args)
		}
		key := gfunction.Key(method.DefiningClass.Name, method.Name, method.Descriptor)
		g, ok := vm.Natives.Lookup(key)
		if !ok {
			return vm.throwNew(t, f, unsatisfiedLinkError, key)
		}
		result, err := g.GFunction(vm.nativeContext(t), fullArgs)
		if err != nil {
			return err
		}
		if types.ReturnDescriptor(method.Descriptor) != "V" {
			f.Push(result)
		}
		return nil
	}

	code, err := method.Code()
	if err != nil {
		return err
	}
	if code == nil {
		return fmt.Errorf("method %s.%s%s has no body", method.DefiningClass.Name, method.Name, method.Descriptor)
	}

	nf := frame.New(method.DefiningClass.Name, method.Name, method.Descriptor, method.OwnerFile, code)
	localIdx := 0
	if hasReceiver {
		nf.Locals[0] = receiver
		localIdx = 1
	}
	for _, a := range args {
		nf.Locals[localIdx] = a
		if a.Category() == 2 {
			localIdx += 2
		} else {
			localIdx++
		}
	}
	t.PushFrame(nf)
	return nil
}

package oracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexforge/dexforge/backend"
	"github.com/dexforge/dexforge/globals"
	"github.com/dexforge/dexforge/mutatorlock"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/stats"
	"github.com/dexforge/dexforge/types"
	"github.com/dexforge/dexforge/verifier"
)

type fakeDex string

func (f fakeDex) Location() string { return string(f) }

type fakeLoader struct{ name string }

func (l fakeLoader) Name() string { return l.name }

type fakeClass struct {
	descriptor  string
	super       *fakeClass
	ifaces      []*fakeClass
	array       bool
	final       bool
	abstract    bool
	iface       bool
	hasLoader   bool
	initialized bool
	vtable      []resolver.Method
}

func (c *fakeClass) Descriptor() string { return c.descriptor }
func (c *fakeClass) IsResolved() bool   { return true }
func (c *fakeClass) IsFinal() bool      { return c.final }
func (c *fakeClass) IsAbstract() bool   { return c.abstract }
func (c *fakeClass) IsInterface() bool  { return c.iface }
func (c *fakeClass) IsArray() bool      { return c.array }
func (c *fakeClass) HasClassLoader() bool { return c.hasLoader }
func (c *fakeClass) Superclass() resolver.Class {
	if c.super == nil {
		return nil
	}
	return c.super
}
func (c *fakeClass) Interfaces() []resolver.Class {
	out := make([]resolver.Class, len(c.ifaces))
	for i, f := range c.ifaces {
		out[i] = f
	}
	return out
}
func (c *fakeClass) ComponentType() resolver.Class          { return nil }
func (c *fakeClass) IsAssignableTo(other resolver.Class) bool { return true }
func (c *fakeClass) IsInitialized() bool                      { return c.initialized }
func (c *fakeClass) VtableMethodAt(index int) (resolver.Method, bool) {
	if index < 0 || index >= len(c.vtable) || c.vtable[index] == nil {
		return nil, false
	}
	return c.vtable[index], true
}

type fakeField struct {
	declaring *fakeClass
	static    bool
	final     bool
	volatile  bool
	offset    int
	ssbIndex  uint32
}

func (f *fakeField) DeclaringClass() resolver.Class { return f.declaring }
func (f *fakeField) IsStatic() bool                 { return f.static }
func (f *fakeField) IsFinal() bool                  { return f.final }
func (f *fakeField) IsVolatile() bool               { return f.volatile }
func (f *fakeField) Offset() int                    { return f.offset }
func (f *fakeField) StaticStorageBaseIndex() uint32  { return f.ssbIndex }

type fakeMethod struct {
	declaring   *fakeClass
	static      bool
	final       bool
	abstract    bool
	native      bool
	vtableIdx   int
	ref         types.MethodReference
	name        string
	signature   string
	codeAddr    uintptr
	hasCode     bool
	objAddr     uintptr
	hasObj      bool
}

func (m *fakeMethod) DeclaringClass() resolver.Class { return m.declaring }
func (m *fakeMethod) IsStatic() bool                 { return m.static }
func (m *fakeMethod) IsFinal() bool                  { return m.final }
func (m *fakeMethod) IsAbstract() bool               { return m.abstract }
func (m *fakeMethod) IsNative() bool                 { return m.native }
func (m *fakeMethod) VtableIndex() int                { return m.vtableIdx }
func (m *fakeMethod) Address() (uintptr, bool)        { return m.codeAddr, m.hasCode }
func (m *fakeMethod) ObjectAddress() (uintptr, bool)  { return m.objAddr, m.hasObj }
func (m *fakeMethod) Reference() types.MethodReference { return m.ref }
func (m *fakeMethod) Name() string                     { return m.name }
func (m *fakeMethod) Signature() string                { return m.signature }

type fakeDexCache struct {
	resolvedTypes   map[uint32]bool
	resolvedStrings map[uint32]bool
	typeIndices     map[string]uint32
}

func newFakeDexCache() *fakeDexCache {
	return &fakeDexCache{
		resolvedTypes:   map[uint32]bool{},
		resolvedStrings: map[uint32]bool{},
		typeIndices:     map[string]uint32{},
	}
}
func (c *fakeDexCache) HasResolvedType(idx uint32) bool   { return c.resolvedTypes[idx] }
func (c *fakeDexCache) HasResolvedString(idx uint32) bool { return c.resolvedStrings[idx] }
func (c *fakeDexCache) TypeIndexForDescriptor(descriptor string) (uint32, bool) {
	idx, ok := c.typeIndices[descriptor]
	return idx, ok
}
func (c *fakeDexCache) MarkStaticStorageInitialized(typeIdx uint32) {
	c.resolvedTypes[typeIdx] = true
}

type fakeResolver struct {
	methodsByIdx map[uint32]*fakeMethod
	typesByIdx   map[uint32]*fakeClass
	located      map[string]*fakeMethod
}

func (r *fakeResolver) FindDexCache(types.DexFile) (resolver.DexCache, bool) { return nil, false }
func (r *fakeResolver) ResolveType(dex types.DexFile, typeIdx uint32, cache resolver.DexCache, loader resolver.ClassLoader) (resolver.Class, error) {
	c, ok := r.typesByIdx[typeIdx]
	if !ok {
		return nil, nil
	}
	return c, nil
}
func (r *fakeResolver) ResolveField(types.DexFile, uint32, resolver.DexCache, resolver.ClassLoader, bool) (resolver.Field, error) {
	return nil, nil
}
func (r *fakeResolver) ResolveMethod(dex types.DexFile, methodIdx uint32, cache resolver.DexCache, loader resolver.ClassLoader, referrer resolver.Method, invokeType types.InvokeType) (resolver.Method, error) {
	m, ok := r.methodsByIdx[methodIdx]
	if !ok {
		return nil, errors.New("unresolved")
	}
	return m, nil
}
func (r *fakeResolver) FindClass(string, resolver.ClassLoader) (resolver.Class, error) { return nil, nil }
func (r *fakeResolver) EnsureInitialized(resolver.Class, bool, bool) error             { return nil }
func (r *fakeResolver) ResolveString(types.DexFile, uint32, resolver.DexCache) (string, error) {
	return "ok", nil
}
func (r *fakeResolver) VisitClasses(func(resolver.Class) bool) {}
func (r *fakeResolver) ClearPendingException() error            { return nil }
func (r *fakeResolver) LocateMethod(dex types.DexFile, cache resolver.DexCache, loader resolver.ClassLoader, declaringDescriptor, name, signature string) (resolver.Method, bool) {
	m, ok := r.located[declaringDescriptor+"#"+name+"#"+signature]
	if !ok {
		return nil, false
	}
	return m, true
}

func newOracle(res *fakeResolver, backendKind backend.Kind) *Oracle {
	return &Oracle{
		Resolver: res,
		Verifier: noopVerifier{},
		Runtime:  globals.DefaultRuntimeContext(),
		Backend:  backendKind,
		Stats:    stats.New(true, nil),
		Lock:     &mutatorlock.Lock{},
	}
}

// noopVerifier satisfies verifier.Verifier for tests that never reach
// the devirtualization path.
type noopVerifier struct{}

func (noopVerifier) VerifyClass(types.DexFile, resolver.DexCache, resolver.ClassLoader, uint32) (verifier.Outcome, error) {
	return verifier.OutcomeOK, nil
}
func (noopVerifier) StructuralVerify(types.DexFile, resolver.DexCache, resolver.ClassLoader, uint32) (verifier.Outcome, error) {
	return verifier.OutcomeOK, nil
}
func (noopVerifier) IsSafeCast(types.MethodReference, uint32) bool { return true }
func (noopVerifier) DevirtTarget(types.MethodReference, uint32) (types.MethodReference, bool) {
	return types.MethodReference{}, false
}
func (noopVerifier) IsClassRejected(types.ClassReference) bool { return false }

// devirtVerifier always reports target as the verifier-refined
// devirtualization target, exercising step d's cross-dex relocate
// decision.
type devirtVerifier struct {
	target types.MethodReference
}

func (devirtVerifier) VerifyClass(types.DexFile, resolver.DexCache, resolver.ClassLoader, uint32) (verifier.Outcome, error) {
	return verifier.OutcomeOK, nil
}
func (devirtVerifier) StructuralVerify(types.DexFile, resolver.DexCache, resolver.ClassLoader, uint32) (verifier.Outcome, error) {
	return verifier.OutcomeOK, nil
}
func (devirtVerifier) IsSafeCast(types.MethodReference, uint32) bool { return true }
func (v devirtVerifier) DevirtTarget(types.MethodReference, uint32) (types.MethodReference, bool) {
	return v.target, true
}
func (devirtVerifier) IsClassRejected(types.ClassReference) bool { return false }

func TestCanAccessTypeRejectsUnresolved(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	referrer := &fakeClass{descriptor: "Lcom/example/A;"}
	ok, _ := o.CanAccessType(referrer, nil)
	require.False(t, ok)
}

func TestCanAccessInstantiableTypeRejectsAbstract(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	referrer := &fakeClass{descriptor: "Lcom/example/A;"}
	target := &fakeClass{descriptor: "Lcom/example/Abstract;", abstract: true}
	require.False(t, o.CanAccessInstantiableType(referrer, target))
}

func TestInstanceFieldInfoRejectsFinalWriteFromOutsideDeclaringClass(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Base;"}
	referrer := &fakeClass{descriptor: "Lcom/example/Sub;"}
	field := &fakeField{declaring: declaring, final: true, offset: 8}

	_, _, ok := o.InstanceFieldInfo(referrer, field, true)
	require.False(t, ok)
}

func TestInstanceFieldInfoAllowsFinalReadFromOutside(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Base;"}
	referrer := &fakeClass{descriptor: "Lcom/example/Sub;"}
	field := &fakeField{declaring: declaring, final: true, offset: 8}

	offset, _, ok := o.InstanceFieldInfo(referrer, field, false)
	require.True(t, ok)
	require.Equal(t, 8, offset)
}

func TestStaticFieldInfoLocalFastPath(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Holder;"}
	field := &fakeField{declaring: declaring, static: true, offset: 16}

	result, ok := o.StaticFieldInfo(fakeDex("a.dex"), nil, declaring, field, false)
	require.True(t, ok)
	require.True(t, result.IsReferrersClass)
	require.Equal(t, 16, result.Offset)
}

func TestStaticFieldInfoUsesCacheResolvedSSB(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Holder;"}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;"}
	field := &fakeField{declaring: declaring, static: true, offset: 16, ssbIndex: 7}

	cache := newFakeDexCache()
	cache.resolvedTypes[7] = true

	result, ok := o.StaticFieldInfo(fakeDex("a.dex"), cache, referrer, field, false)
	require.True(t, ok)
	require.False(t, result.IsReferrersClass)
	require.Equal(t, uint32(7), result.SSBIndex)
}

func TestStaticFieldInfoFallsBackToLocalTypeLookup(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Holder;"}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;"}
	field := &fakeField{declaring: declaring, static: true, offset: 16, ssbIndex: 9}

	cache := newFakeDexCache()
	cache.typeIndices["Lcom/example/Holder;"] = 3

	result, ok := o.StaticFieldInfo(fakeDex("a.dex"), cache, referrer, field, false)
	require.True(t, ok)
	require.Equal(t, uint32(3), result.SSBIndex)
}

func TestStaticFieldInfoRejectsFinalWriteFromOutside(t *testing.T) {
	res := &fakeResolver{}
	o := newOracle(res, backend.Quick)
	declaring := &fakeClass{descriptor: "Lcom/example/Holder;"}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;"}
	field := &fakeField{declaring: declaring, static: true, final: true, offset: 16}

	_, ok := o.StaticFieldInfo(fakeDex("a.dex"), nil, referrer, field, true)
	require.False(t, ok)
}

func TestInvokeInfoSharpensFinalVirtualMethod(t *testing.T) {
	declaring := &fakeClass{descriptor: "Lcom/example/Base;", hasLoader: true}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;", hasLoader: true}
	callee := &fakeMethod{declaring: declaring, final: true, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 5}}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{5: callee}}
	o := newOracle(res, backend.Quick)

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeVirtual,
		TargetMethodIdx: 5,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
	// declaring class has a loader, so no direct pointer is emitted.
	require.True(t, result.DirectCode.IsNone())
}

func TestInvokeInfoBootClassStaticMethodGetsPatchLaterDuringImageBuild(t *testing.T) {
	declaring := &fakeClass{descriptor: "Ljava/lang/Math;", hasLoader: false, initialized: true}
	callee := &fakeMethod{declaring: declaring, static: true, ref: types.MethodReference{Dex: fakeDex("core.dex"), MethodIndex: 9}}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{9: callee}}
	o := newOracle(res, backend.Quick)
	o.Runtime.CompilingBootImage = true
	o.ImageClasses = types.NewDescriptorSet("Ljava/lang/Math;")

	referrer := &fakeClass{descriptor: "Ljava/lang/Other;", hasLoader: false}
	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("core.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeStatic,
		TargetMethodIdx: 9,
	})
	require.True(t, ok)
	require.True(t, result.DirectCode.IsPatchLater())
	require.True(t, result.DirectMethod.IsPatchLater())
}

func TestInvokeInfoUnresolvedMethodFailsClosed(t *testing.T) {
	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{}}
	o := newOracle(res, backend.Quick)
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;"}

	_, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeVirtual,
		TargetMethodIdx: 42,
	})
	require.False(t, ok)
}

func TestInvokeInfoSuperSharpensOnlyWhenVtableSlotMatches(t *testing.T) {
	base := &fakeClass{descriptor: "Lcom/example/Base;", hasLoader: true}
	callee := &fakeMethod{declaring: base, vtableIdx: 2, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 11}}
	sub := &fakeClass{descriptor: "Lcom/example/Sub;", super: base, hasLoader: true, vtable: []resolver.Method{nil, nil, callee}}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{11: callee}}
	o := newOracle(res, backend.Quick)

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ReferrerClass:   sub,
		InvokeType:      types.InvokeSuper,
		TargetMethodIdx: 11,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
}

func TestInvokeInfoDevirtSameDexUsesRefinedDirectly(t *testing.T) {
	calleeClass := &fakeClass{descriptor: "Lcom/example/Iface;", hasLoader: true}
	callee := &fakeMethod{declaring: calleeClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 5}}
	refinedClass := &fakeClass{descriptor: "Lcom/example/Impl;", hasLoader: true}
	refined := &fakeMethod{declaring: refinedClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 20}, name: "run", signature: "()V"}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;", hasLoader: true}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{5: callee, 20: refined}}
	o := newOracle(res, backend.Quick)
	o.Verifier = devirtVerifier{target: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 20}}

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeInterface,
		TargetMethodIdx: 5,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
	require.Equal(t, refined.Reference(), result.TargetMethod)
}

func TestInvokeInfoDevirtCrossDexUsesRefinedWhenNoRelocateNeeded(t *testing.T) {
	calleeClass := &fakeClass{descriptor: "Lcom/example/Iface;", hasLoader: true}
	callee := &fakeMethod{declaring: calleeClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 5}}
	refinedClass := &fakeClass{descriptor: "Lcom/example/Impl;", hasLoader: false}
	refined := &fakeMethod{
		declaring: refinedClass,
		ref:       types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20},
		name:      "run", signature: "()V",
		codeAddr: 0x1000, hasCode: true,
		objAddr: 0x2000, hasObj: true,
	}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;", hasLoader: true}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{5: callee, 20: refined}}
	o := newOracle(res, backend.Quick)
	o.Runtime.InstructionSet = types.InstructionSetThumb2 // Quick+Thumb2: NeedsDexCacheEntry is false
	o.Runtime.HasImage = true
	o.Verifier = devirtVerifier{target: types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20}}

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ExpectedDex:     fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeVirtual,
		TargetMethodIdx: 5,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
	require.Equal(t, refined.Reference(), result.TargetMethod)
	require.False(t, result.DirectCode.IsNone())
}

func TestInvokeInfoDevirtCrossDexRelocatesOnPatchLaterSentinel(t *testing.T) {
	calleeClass := &fakeClass{descriptor: "Lcom/example/Iface;", hasLoader: true}
	callee := &fakeMethod{declaring: calleeClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 5}}
	refinedClass := &fakeClass{descriptor: "Lcom/example/Impl;", hasLoader: false}
	refined := &fakeMethod{
		declaring: refinedClass,
		ref:       types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20},
		name:      "run", signature: "()V",
	}
	located := &fakeMethod{declaring: refinedClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 30}}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;", hasLoader: true}

	res := &fakeResolver{
		methodsByIdx: map[uint32]*fakeMethod{5: callee, 20: refined},
		located:      map[string]*fakeMethod{"Lcom/example/Iface;#run#()V": located},
	}
	o := newOracle(res, backend.Quick)
	o.Runtime.InstructionSet = types.InstructionSetThumb2 // Quick+Thumb2: NeedsDexCacheEntry is false
	o.Runtime.CompilingBootImage = true
	o.ImageClasses = types.NewDescriptorSet("Lcom/example/Impl;") // refined class is a boot/image class
	o.Verifier = devirtVerifier{target: types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20}}

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ExpectedDex:     fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeVirtual,
		TargetMethodIdx: 5,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
	require.Equal(t, located.Reference(), result.TargetMethod)
}

func TestInvokeInfoDevirtCrossDexRelocatesWhenBackendNeedsDexCacheEntry(t *testing.T) {
	calleeClass := &fakeClass{descriptor: "Lcom/example/Iface;", hasLoader: true}
	callee := &fakeMethod{declaring: calleeClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 5}}
	refinedClass := &fakeClass{descriptor: "Lcom/example/Impl;", hasLoader: false}
	refined := &fakeMethod{
		declaring: refinedClass,
		ref:       types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20},
		name:      "run", signature: "()V",
		codeAddr: 0x1000, hasCode: true,
		objAddr: 0x2000, hasObj: true,
	}
	located := &fakeMethod{declaring: refinedClass, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 30}}
	referrer := &fakeClass{descriptor: "Lcom/example/Caller;", hasLoader: true}

	res := &fakeResolver{
		methodsByIdx: map[uint32]*fakeMethod{5: callee, 20: refined},
		located:      map[string]*fakeMethod{"Lcom/example/Iface;#run#()V": located},
	}
	// Portable always needs a dex-cache entry for a devirtualized
	// target, regardless of whether the tentative direct pointers
	// would otherwise be usable.
	o := newOracle(res, backend.Portable)
	o.Runtime.HasImage = true
	o.Verifier = devirtVerifier{target: types.MethodReference{Dex: fakeDex("other.dex"), MethodIndex: 20}}

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ExpectedDex:     fakeDex("a.dex"),
		ReferrerClass:   referrer,
		InvokeType:      types.InvokeVirtual,
		TargetMethodIdx: 5,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeDirect, result.InvokeType)
	require.Equal(t, located.Reference(), result.TargetMethod)
}

func TestInvokeInfoSuperFallsBackWhenVtableSlotDiffers(t *testing.T) {
	base := &fakeClass{descriptor: "Lcom/example/Base;", hasLoader: true}
	callee := &fakeMethod{declaring: base, vtableIdx: 2, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 11}}
	overridden := &fakeMethod{declaring: base, vtableIdx: 2, ref: types.MethodReference{Dex: fakeDex("a.dex"), MethodIndex: 99}}
	sub := &fakeClass{descriptor: "Lcom/example/Sub;", super: base, hasLoader: true, vtable: []resolver.Method{nil, nil, overridden}}

	res := &fakeResolver{methodsByIdx: map[uint32]*fakeMethod{11: callee}}
	o := newOracle(res, backend.Quick)

	result, ok := o.InvokeInfo(InvokeInfoRequest{
		Dex:             fakeDex("a.dex"),
		ReferrerClass:   sub,
		InvokeType:      types.InvokeSuper,
		TargetMethodIdx: 11,
	})
	require.True(t, ok)
	require.Equal(t, types.InvokeSuper, result.InvokeType)
	require.Equal(t, 2, result.VtableIndex)
	require.True(t, result.DirectCode.IsNone())
}

/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package driver implements the pipeline orchestrator (spec.md §4.1):
// it wires the parallel work engine, image-class closure, resolution
// oracle, initialization stage, and compiled-artifact registry into
// the five-stage-plus-compile sequence and exposes CompileAll and
// CompileOne.
package driver

import (
	"fmt"

	"github.com/dexforge/dexforge/backend"
	"github.com/dexforge/dexforge/globals"
	"github.com/dexforge/dexforge/imageclass"
	"github.com/dexforge/dexforge/initialize"
	"github.com/dexforge/dexforge/mutatorlock"
	"github.com/dexforge/dexforge/oracle"
	"github.com/dexforge/dexforge/registry"
	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/shutdown"
	"github.com/dexforge/dexforge/stats"
	"github.com/dexforge/dexforge/trace"
	"github.com/dexforge/dexforge/types"
	"github.com/dexforge/dexforge/verifier"
	"github.com/dexforge/dexforge/workqueue"
)

// Orchestrator owns the collaborators and shared state for one or more
// pipeline runs.
type Orchestrator struct {
	Resolver resolver.Resolver
	Verifier verifier.Verifier
	Backend  backend.Backend
	Runtime  globals.RuntimeContext

	Registry *registry.Registry
	Stats    *stats.Bag
	Lock     *mutatorlock.Lock
	Engine   *workqueue.Engine
	Oracle   *oracle.Oracle
	Init     *initialize.Stage

	// ImageSeeds is the load-image-classes stage's starting descriptor
	// set; ImageClasses accumulates it and is shared with Oracle/Init.
	ImageSeeds   types.DescriptorSet
	ImageClasses types.DescriptorSet

	// Walker and Throwable feed the image-class closure's catch-type
	// resolution step.
	Walker    imageclass.MemberWalker
	Throwable resolver.Class

	// WorkUnits bounds the strided fan-out width passed to every
	// workqueue.Engine.ForAll call in this pipeline.
	WorkUnits int
}

// New builds an Orchestrator with a freshly constructed registry,
// statistics bag, mutator lock, and oracle/initializer wired against
// the given collaborators. The caller still owns Engine construction
// (it needs a worker-pool capacity) and assigns it afterward. An
// instruction set that types.InstructionSet.IsValid rejects is fatal.
func New(res resolver.Resolver, ver verifier.Verifier, be backend.Backend, backendKind backend.Kind, runtime globals.RuntimeContext, imageSeeds types.DescriptorSet) *Orchestrator {
	if !runtime.InstructionSet.IsValid() {
		shutdown.Fatal(shutdown.UnknownInstructionSet, fmt.Errorf("instruction set %s", runtime.InstructionSet))
	}
	lock := &mutatorlock.Lock{}
	reg := registry.New()
	bag := stats.New(runtime.DebugStats, nil)
	images := types.NewDescriptorSet()
	for d := range imageSeeds {
		images.Add(d)
	}

	o := &Orchestrator{
		Resolver:     res,
		Verifier:     ver,
		Backend:      be,
		Runtime:      runtime,
		Registry:     reg,
		Stats:        bag,
		Lock:         lock,
		ImageSeeds:   imageSeeds,
		ImageClasses: images,
		WorkUnits:    4,
	}
	o.Oracle = &oracle.Oracle{
		Resolver:     res,
		Verifier:     ver,
		Runtime:      runtime,
		Backend:      backendKind,
		Stats:        bag,
		Lock:         lock,
		ImageClasses: images,
	}
	o.Init = &initialize.Stage{
		Resolver: res,
		Verifier: ver,
		Registry: reg,
		Runtime:  runtime,
		Lock:     lock,
		Stats:    bag,
		Image:    images,
	}
	return o
}

// CompileAll runs the full pipeline over units in strict stage order:
// load-image-classes, resolve, verify, initialize, update-image-
// classes, compile. It dumps the timing ledger and the statistics bag
// when the run configuration or the 1s threshold call for it.
func (o *Orchestrator) CompileAll(loader resolver.ClassLoader, units []Unit) {
	l := newLedger()

	l.record("LoadImageClasses", func() { o.loadImageClasses(loader) })

	for _, u := range units {
		loc := u.Dex.Location()
		l.record(fmt.Sprintf("Resolve %s Types", loc), func() { o.resolveTypes(u, loader) })
		l.record(fmt.Sprintf("Resolve %s Members", loc), func() { o.resolveMembers(u, loader) })
	}

	for _, u := range units {
		l.record(fmt.Sprintf("Verify %s", u.Dex.Location()), func() { o.verifyUnit(u, loader) })
	}

	for _, u := range units {
		l.record(fmt.Sprintf("Initialize %s", u.Dex.Location()), func() { o.initializeUnit(u, loader) })
	}

	l.record("UpdateImageClasses", func() { o.updateImageClasses() })

	for _, u := range units {
		l.record(fmt.Sprintf("Compile %s", u.Dex.Location()), func() { o.compileUnit(u, loader) })
	}

	l.maybeDump(o.Runtime.DumpTimings)
	if o.Runtime.DumpStats {
		trace.Info(fmt.Sprintf("[%s] resolved_methods=%d unresolved_methods=%d classes_initialized=%d",
			l.runID, o.Stats.Total(stats.ResolvedMethods), o.Stats.Total(stats.UnresolvedMethods), o.Stats.Total(stats.ClassesInitialized)))
	}
}

// CompileOne runs a minimal pipeline over a single method's dex file,
// for on-demand compilation outside a full CompileAll run. If the
// class is already verified (recorded by an earlier CompileAll run
// against the same registry) verification is not re-run, so a
// repeated on-demand compile never regresses the class's monotonic
// status.
func (o *Orchestrator) CompileOne(u Unit, loader resolver.ClassLoader, classDefIdx int, methodIdx uint32) {
	def := u.Index.ClassDef(classDefIdx)
	ref := types.ClassReference{Dex: u.Dex, ClassDefIndex: uint32(classDefIdx)}
	if status, ok := o.Registry.ClassStatus(ref); !ok || status.Status < types.StatusVerified {
		o.Init.VerifyClass(ref, u.Cache, loader, def.Loaded)
	}

	for _, m := range u.Index.MethodsOf(classDefIdx) {
		if m.MethodIndex != methodIdx {
			continue
		}
		o.compileMethod(u, loader, classDefIdx, m)
		return
	}
}

func (o *Orchestrator) loadImageClasses(loader resolver.ClassLoader) {
	closure := imageclass.New(o.Resolver, o.Walker, loader, o.ImageSeeds)
	closure.LoadSeeds()
	if o.Walker != nil {
		closure.ResolveCatchTypes(o.Throwable)
	}
	closure.WalkRoots()

	if len(closure.Set()) == 0 && (o.Runtime.CompilingBootImage || o.Runtime.HasImage) {
		shutdown.Fatal(shutdown.EmptyImageClassSet, nil)
		return
	}
	for d := range closure.Set() {
		o.ImageClasses.Add(d)
	}
}

func (o *Orchestrator) resolveTypes(u Unit, loader resolver.ClassLoader) {
	count := u.Index.TypeCount()
	if o.Engine == nil || count == 0 {
		for i := 0; i < count; i++ {
			o.resolveOneType(u, loader, uint32(i))
		}
		return
	}
	o.Engine.ForAll(0, count, func(idx int) {
		o.resolveOneType(u, loader, uint32(idx))
	}, o.WorkUnits)
}

func (o *Orchestrator) resolveOneType(u Unit, loader resolver.ClassLoader, typeIdx uint32) {
	release := o.Lock.Runnable()
	_, err := o.Resolver.ResolveType(u.Dex, typeIdx, u.Cache, loader)
	release()
	_ = o.Resolver.ClearPendingException()
	if err != nil {
		trace.Trace(fmt.Sprintf("unresolved type %d in %s: %v", typeIdx, u.Dex.Location(), err))
	}
}

func (o *Orchestrator) resolveMembers(u Unit, loader resolver.ClassLoader) {
	count := u.Index.ClassDefCount()
	dispatch := func(idx int) { o.resolveMembersOf(u, loader, idx) }
	if o.Engine == nil || count == 0 {
		for i := 0; i < count; i++ {
			dispatch(i)
		}
		return
	}
	o.Engine.ForAll(0, count, dispatch, o.WorkUnits)
}

func (o *Orchestrator) resolveMembersOf(u Unit, loader resolver.ClassLoader, classDefIdx int) {
	release := o.Lock.Runnable()
	defer release()

	for _, f := range u.Index.FieldsOf(classDefIdx) {
		field, err := o.Resolver.ResolveField(u.Dex, f.FieldIndex, u.Cache, loader, f.IsStatic)
		_ = o.Resolver.ClearPendingException()
		if err == nil && field != nil && !field.IsStatic() && field.IsFinal() {
			declaring := types.ClassReference{Dex: u.Dex, ClassDefIndex: uint32(classDefIdx)}
			initialize.NoteFinalInstanceField(o.Registry, declaring, field)
		}
	}
	for _, m := range u.Index.MethodsOf(classDefIdx) {
		_, err := o.Resolver.ResolveMethod(u.Dex, m.MethodIndex, u.Cache, loader, nil, m.InvokeType)
		_ = o.Resolver.ClearPendingException()
		if err != nil {
			trace.Trace(fmt.Sprintf("unresolved method %d in %s: %v", m.MethodIndex, u.Dex.Location(), err))
		}
	}
}

func (o *Orchestrator) verifyUnit(u Unit, loader resolver.ClassLoader) {
	for i := 0; i < u.Index.ClassDefCount(); i++ {
		def := u.Index.ClassDef(i)
		ref := types.ClassReference{Dex: u.Dex, ClassDefIndex: uint32(i)}
		o.Init.VerifyClass(ref, u.Cache, loader, def.Loaded)
	}
}

func (o *Orchestrator) initializeUnit(u Unit, loader resolver.ClassLoader) {
	for i := 0; i < u.Index.ClassDefCount(); i++ {
		def := u.Index.ClassDef(i)
		ref := types.ClassReference{Dex: u.Dex, ClassDefIndex: uint32(i)}

		release := o.Lock.Runnable()
		cls, err := o.Resolver.ResolveType(u.Dex, def.TypeIndex, u.Cache, loader)
		release()
		_ = o.Resolver.ClearPendingException()
		if err != nil || cls == nil {
			continue
		}
		metaclassKey := "meta:" + cls.Descriptor()
		o.Init.InitializeClass(ref, cls, u.Cache, loader, def.TypeIndex, metaclassKey)
	}
}

func (o *Orchestrator) updateImageClasses() {
	release := o.Lock.Runnable()
	defer release()

	closure := imageclass.New(o.Resolver, o.Walker, nil, types.NewDescriptorSet())
	o.Resolver.VisitClasses(func(cls resolver.Class) bool {
		closure.AddLiveObjectClass(cls)
		return true
	})
	for d := range closure.Set() {
		o.ImageClasses.Add(d)
	}
}

func (o *Orchestrator) compileUnit(u Unit, loader resolver.ClassLoader) {
	for i := 0; i < u.Index.ClassDefCount(); i++ {
		ref := types.ClassReference{Dex: u.Dex, ClassDefIndex: uint32(i)}
		status, ok := o.Registry.ClassStatus(ref)
		if ok && status.Status == types.StatusErroneous {
			continue
		}
		o.compileClassDef(u, loader, i)
	}
}

func (o *Orchestrator) compileClassDef(u Unit, loader resolver.ClassLoader, classDefIdx int) {
	methods := u.Index.MethodsOf(classDefIdx)
	seen := make(map[uint32]bool, len(methods))

	compileOrdered := func(wantDirect bool) {
		for _, m := range methods {
			if m.IsDirect != wantDirect {
				continue
			}
			if seen[m.MethodIndex] {
				continue // duplicate method index: tolerated, second occurrence skipped
			}
			seen[m.MethodIndex] = true
			o.compileMethod(u, loader, classDefIdx, m)
		}
	}
	compileOrdered(true)  // direct methods first
	compileOrdered(false) // then virtual methods
}

func (o *Orchestrator) compileMethod(u Unit, loader resolver.ClassLoader, classDefIdx int, m MethodInfo) {
	if m.IsAbstract {
		return
	}

	ref := types.MethodReference{Dex: u.Dex, MethodIndex: m.MethodIndex}
	var artifact backend.CompiledMethod
	var err error

	release := o.Lock.Runnable()
	switch {
	case m.IsNative:
		artifact, err = o.Backend.CompileJNI(m.AccessFlags, m.MethodIndex, u.Dex)
	case m.CodeItem != nil && m.CodeItem.SizeBytes() <= o.Runtime.EffectiveDexSizeLimit(len(o.ImageClasses)):
		artifact, err = o.Backend.CompileMethod(m.CodeItem, m.AccessFlags, m.InvokeType, uint32(classDefIdx), m.MethodIndex, loader, u.Dex)
	case o.Runtime.AllowDexToDex && m.CodeItem != nil:
		err = o.Backend.CompileDexToDex(m.CodeItem, m.AccessFlags, m.InvokeType, uint32(classDefIdx), m.MethodIndex, loader, u.Dex)
	default:
		release()
		return
	}
	release()

	pending := o.Resolver.ClearPendingException()
	if err != nil {
		trace.Warning(fmt.Sprintf("compile failed for %s: %v", ref, err))
		return
	}
	if artifact == nil {
		if pending != nil {
			shutdown.Fatal(shutdown.BackendContractViolation, fmt.Errorf("compile of %s returned no artifact with a pending exception: %w", ref, pending))
		}
		return
	}

	if insertErr := o.Registry.InsertMethod(ref, artifact); insertErr != nil {
		shutdown.Fatal(shutdown.DuplicateMethodInsert, insertErr)
		return
	}
	if emitter, ok := o.Backend.(PatchEmitter); ok {
		codePatches, methodPatches := emitter.TakePatches()
		for _, p := range codePatches {
			o.Registry.AppendCodePatch(p)
		}
		for _, p := range methodPatches {
			o.Registry.AppendMethodPatch(p)
		}
	}
}

/*
 * dexforge - an ahead-of-time compiler driver
 * Copyright (c) 2026 by the dexforge authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package imageclass computes the transitive set of classes that must
// be present in the output image (spec.md §4.3). The closure is
// modeled as a directed dependency graph over class descriptors —
// edges for superclass, direct interfaces, array component type, and
// catch-block exception types — and computed by breadth-first search
// from the seed set.
package imageclass

import (
	"fmt"

	"github.com/katalvlaran/lvlath/graph"

	"github.com/dexforge/dexforge/resolver"
	"github.com/dexforge/dexforge/trace"
	"github.com/dexforge/dexforge/types"
)

// CodeItemWithHandlers is the subset of a method's code item the
// closure needs: the catch-type indices of its exception handlers.
type CodeItemWithHandlers interface {
	CatchTypeIndices() []uint32
}

// MemberWalker lets the closure enumerate the methods of every class
// it has already resolved, to find their catch-block exception types
// (step (ii) of the algorithm in spec.md §4.3).
type MemberWalker interface {
	// WalkMethodCode calls fn for every method body belonging to
	// class, passing the method's dex file and its code item.
	WalkMethodCode(class resolver.Class, fn func(dex types.DexFile, code CodeItemWithHandlers))
}

// Closure owns the working graph and descriptor set for one
// load-image-classes stage run.
type Closure struct {
	res     resolver.Resolver
	walker  MemberWalker
	loader  resolver.ClassLoader
	g       *graph.Graph
	classes map[string]resolver.Class // descriptor -> resolved class, once loaded
	set     types.DescriptorSet
}

// New constructs a Closure seeded with the given descriptor set. The
// seed set is copied; callers retain ownership of their own slice.
func New(res resolver.Resolver, walker MemberWalker, loader resolver.ClassLoader, seed types.DescriptorSet) *Closure {
	c := &Closure{
		res:     res,
		walker:  walker,
		loader:  loader,
		g:       graph.NewGraph(true, false),
		classes: make(map[string]resolver.Class),
		set:     types.NewDescriptorSet(),
	}
	for d := range seed {
		c.set.Add(d)
		c.g.AddVertex(&graph.Vertex{ID: d, Metadata: map[string]interface{}{}})
	}
	return c
}

// Set returns the current descriptor set. Callers must not mutate it.
func (c *Closure) Set() types.DescriptorSet {
	return c.set
}

// addDependency records that from depends on to (super, interface,
// component, or catch type) and adds to to the working set if new.
func (c *Closure) addDependency(from, to string) bool {
	c.g.AddEdge(from, to, 1)
	return c.set.Add(to)
}

// LoadSeeds implements step (i): attempt to load every seed
// descriptor, dropping and warning on failure (spec.md §4.3).
func (c *Closure) LoadSeeds() {
	for _, d := range c.set.Slice() {
		cls, err := c.res.FindClass(d, c.loader)
		if err != nil || cls == nil {
			trace.Warning(fmt.Sprintf("imageclass: dropping unloadable seed %s: %v", d, err))
			delete(c.set, d)
			c.g.RemoveVertex(d)
			_ = c.res.ClearPendingException()
			continue
		}
		c.classes[d] = cls
	}
}

// bfsFromEverySeed runs graph.Graph.BFS once per vertex currently in
// the working set, calling onVisit for every already-resolved class
// BFS reaches. A dependency discovered by onVisit is wired into the
// graph with addDependency before onVisit returns; AddEdge auto-adds
// the target vertex, and the BFS loop fetches a vertex's neighbors
// only after its visit callback runs, so a dependency discovered while
// visiting v is enqueued and, in turn, visited in the same traversal.
// That makes a single BFS per seed sufficient to reach a fixed point:
// no outer repeat-until-unchanged loop is needed.
func (c *Closure) bfsFromEverySeed(onVisit func(descriptor string, cls resolver.Class)) {
	for _, root := range c.set.Slice() {
		if !c.g.HasVertex(root) {
			continue
		}
		_, _ = c.g.BFS(root, &graph.BFSOptions{
			OnVisit: func(v *graph.Vertex, depth int) error {
				if cls, ok := c.classes[v.ID]; ok {
					onVisit(v.ID, cls)
				}
				return nil
			},
		})
	}
}

// ResolveCatchTypes implements step (ii): breadth-first from the
// current seed set, resolving every unresolved catch-type index
// reachable from a known class's methods, asserting each target is
// assignable to Throwable.
func (c *Closure) ResolveCatchTypes(throwable resolver.Class) {
	c.bfsFromEverySeed(func(descriptor string, cls resolver.Class) {
		c.walker.WalkMethodCode(cls, func(dex types.DexFile, code CodeItemWithHandlers) {
			for _, catchIdx := range code.CatchTypeIndices() {
				cache, ok := c.res.FindDexCache(dex)
				if !ok {
					continue
				}
				caught, err := c.res.ResolveType(dex, catchIdx, cache, c.loader)
				_ = c.res.ClearPendingException()
				if err != nil || caught == nil {
					continue
				}
				if throwable != nil && !caught.IsAssignableTo(throwable) {
					trace.Error(fmt.Sprintf("imageclass: catch type %s in %s is not a Throwable", caught.Descriptor(), descriptor))
					continue
				}
				if c.addDependency(descriptor, caught.Descriptor()) {
					c.classes[caught.Descriptor()] = caught
				}
			}
		})
	})
}

// WalkRoots implements step (iii): breadth-first from the current
// seed set, adding each visited class's superclass, direct interfaces
// and (for arrays) component type.
func (c *Closure) WalkRoots() {
	c.bfsFromEverySeed(func(descriptor string, cls resolver.Class) {
		if super := cls.Superclass(); super != nil {
			if c.addDependency(descriptor, super.Descriptor()) {
				c.classes[super.Descriptor()] = super
			}
		}
		for _, iface := range cls.Interfaces() {
			if c.addDependency(descriptor, iface.Descriptor()) {
				c.classes[iface.Descriptor()] = iface
			}
		}
		if comp := cls.ComponentType(); comp != nil {
			if c.addDependency(descriptor, comp.Descriptor()) {
				c.classes[comp.Descriptor()] = comp
			}
		}
	})
}

// maybeAdd walks up from cls to java.lang.Object, and recurses into
// interfaces and the array component type, adding every class
// encountered to the set. It is the engine behind AddLiveObjectClass.
func (c *Closure) maybeAdd(cls resolver.Class) {
	for cls != nil {
		d := cls.Descriptor()
		if !c.set.Add(d) {
			return // already present: the rest of the chain was added earlier
		}
		c.classes[d] = cls
		for _, iface := range cls.Interfaces() {
			c.maybeAdd(iface)
		}
		if comp := cls.ComponentType(); comp != nil {
			c.maybeAdd(comp)
		}
		cls = cls.Superclass()
	}
}

// AddLiveObjectClass implements step 5 of the pipeline (spec.md §4.1,
// §4.3 (d)): for every object surviving compile-time initialization,
// add its concrete class and the class's full supertype/interface/
// component chain to the image-class set.
func (c *Closure) AddLiveObjectClass(objectClass resolver.Class) {
	c.maybeAdd(objectClass)
}

// ClosedUnderStaticStructure reports whether the set is currently
// closed under superclass/interface/component for every class it has
// resolved — the post-stage-1 invariant from spec.md §4.3.
func (c *Closure) ClosedUnderStaticStructure() bool {
	for _, cls := range c.classes {
		if super := cls.Superclass(); super != nil && !c.set.Contains(super.Descriptor()) {
			return false
		}
		for _, iface := range cls.Interfaces() {
			if !c.set.Contains(iface.Descriptor()) {
				return false
			}
		}
		if comp := cls.ComponentType(); comp != nil && !c.set.Contains(comp.Descriptor()) {
			return false
		}
	}
	return true
}

// Graph exposes the underlying dependency graph, read-only, for
// diagnostics and tests.
func (c *Closure) Graph() *graph.Graph {
	return c.g
}

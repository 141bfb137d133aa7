package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dexforge/dexforge/types"
)

func TestKindNeedsDexCacheEntry(t *testing.T) {
	assert.True(t, Portable.NeedsDexCacheEntry(types.InstructionSetThumb2))
	assert.True(t, Portable.NeedsDexCacheEntry(types.InstructionSetARM))
	assert.False(t, Quick.NeedsDexCacheEntry(types.InstructionSetThumb2))
	assert.True(t, Quick.NeedsDexCacheEntry(types.InstructionSetARM))
}

func TestTrampolineRegistryLookup(t *testing.T) {
	r := NewRegistry(TrampolineSet{InstructionSet: types.InstructionSetARM})
	_, ok := r.Lookup(types.InstructionSetARM)
	assert.True(t, ok)
	_, ok = r.Lookup(types.InstructionSetMIPS)
	assert.False(t, ok)
}

func TestIsLeaf(t *testing.T) {
	assert.True(t, IsLeaf(0))
	assert.False(t, IsLeaf(methodIsLeafFlag))
	assert.True(t, IsLeaf(0xFF&^methodIsLeafFlag))
}

package evm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryExpansionPricing(t *testing.T) {
	s, closeFn := getState()
	defer closeFn()

	s.gas = 1000

	// touching two words costs 3*2 + 2*2/512 = 6
	assert.True(t, s.checkMemory(big.NewInt(32), big.NewInt(32)))
	assert.Equal(t, uint64(994), s.gas)
	assert.Len(t, s.memory, 64)

	// an already-paid range is free
	assert.True(t, s.checkMemory(big.NewInt(0), big.NewInt(32)))
	assert.Equal(t, uint64(994), s.gas)

	// growing further only pays the difference
	assert.True(t, s.checkMemory(big.NewInt(64), big.NewInt(32)))
	assert.Equal(t, uint64(991), s.gas)
	assert.Len(t, s.memory, 96)
}

func TestMemoryZeroLengthIsFree(t *testing.T) {
	s, closeFn := getState()
	defer closeFn()

	s.gas = 100

	assert.True(t, s.checkMemory(big.NewInt(1 << 30), big.NewInt(0)))
	assert.Equal(t, uint64(100), s.gas)
	assert.Len(t, s.memory, 0)
}

func TestMemoryExpansionZeroFills(t *testing.T) {
	s, closeFn := getState()
	defer closeFn()

	s.gas = 1000

	buf, ok := s.get2(nil, big.NewInt(10), big.NewInt(20))
	assert.True(t, ok)
	assert.Equal(t, make([]byte, 20), buf)

	// the word count is rounded up
	assert.Len(t, s.memory, 32)
}

func TestMemoryWordCountMonotonic(t *testing.T) {
	s, closeFn := getState()
	defer closeFn()

	s.gas = 10000

	last := 0
	lastCost := uint64(0)

	for _, offset := range []int64{128, 0, 256, 64, 512} {
		s.checkMemory(big.NewInt(offset), big.NewInt(32))

		assert.GreaterOrEqual(t, len(s.memory), last)
		assert.GreaterOrEqual(t, s.lastGasCost, lastCost)

		last = len(s.memory)
		lastCost = s.lastGasCost
	}
}

func TestMemoryHugeOffsetOutOfGas(t *testing.T) {
	s, closeFn := getState()
	defer closeFn()

	s.gas = 1000

	offset := new(big.Int).Lsh(big.NewInt(1), 64)

	assert.False(t, s.checkMemory(offset, big.NewInt(32)))
	assert.ErrorIs(t, s.err, errOutOfGas)
}

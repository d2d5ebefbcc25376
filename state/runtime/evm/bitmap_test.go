package evm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umbracle/minievm/crypto"
	"github.com/umbracle/minievm/types"
)

func TestBitmapJumpdest(t *testing.T) {
	code := []byte{
		byte(PUSH1), byte(JUMPDEST), // 0x5B as immediate data, not a target
		byte(JUMPDEST),              // valid target at 2
		byte(PUSH3), 0x00, byte(JUMPDEST), 0x00, // 0x5B inside PUSH3 data
		byte(JUMPDEST), // valid target at 7
		byte(STOP),
	}

	b := bitmap{}
	b.setCode(code)

	assert.False(t, b.isSet(0))
	assert.False(t, b.isSet(1))
	assert.True(t, b.isSet(2))
	assert.False(t, b.isSet(5))
	assert.True(t, b.isSet(7))
	assert.False(t, b.isSet(8))
}

func TestBitmapTruncatedPush(t *testing.T) {
	// the PUSH2 immediate runs past the end of the code
	code := []byte{byte(JUMPDEST), byte(PUSH2), 0x5B}

	b := bitmap{}
	b.setCode(code)

	assert.True(t, b.isSet(0))
	assert.False(t, b.isSet(2))
}

func TestCodeBitmapCache(t *testing.T) {
	code := []byte{byte(JUMPDEST), byte(STOP)}
	hash := crypto.Keccak256Hash(code)

	b1 := codeBitmap(hash, code)
	b2 := codeBitmap(hash, code)

	assert.True(t, b1.isSet(0))
	assert.True(t, b2.isSet(0))

	// the second lookup reuses the cached analysis
	assert.Same(t, &b1.buf[0], &b2.buf[0])
}

func TestCodeBitmapNoCacheForUnknownHash(t *testing.T) {
	code := []byte{byte(JUMPDEST)}

	b := codeBitmap(types.ZeroHash, code)
	assert.True(t, b.isSet(0))

	_, ok := analysisCache.Get(types.ZeroHash)
	assert.False(t, ok)
}

package evm

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/umbracle/minievm/helper/common"
	"github.com/umbracle/minievm/types"
)

const bitmapSize = 8

// bitmap marks the code positions that are valid jump destinations:
// a set bit is a JUMPDEST byte that is not part of PUSH immediate data
type bitmap struct {
	buf []byte
}

func (b *bitmap) isSet(i uint64) bool {
	return b.buf[i/bitmapSize]&(1<<(i%bitmapSize)) != 0
}

func (b *bitmap) set(i uint64) {
	b.buf[i/bitmapSize] |= 1 << (i % bitmapSize)
}

func (b *bitmap) reset() {
	// buffers may be shared through the analysis cache, drop the
	// reference instead of zeroing
	b.buf = nil
}

func (b *bitmap) setCode(code []byte) {
	codeSize := len(code)
	b.buf = common.ExtendByteSlice(b.buf, codeSize/bitmapSize+1)

	for i := 0; i < codeSize; {
		c := code[i]

		if isPushOp(c) {
			// skip the push immediate data
			i += int(c) - 0x60 + 2
		} else {
			if c == byte(JUMPDEST) {
				b.set(uint64(i))
			}
			i++
		}
	}
}

func isPushOp(i byte) bool {
	// from PUSH1 (0x60) to PUSH32 (0x7F)
	return i>>5 == 3
}

// analysisCache keeps the jump destination analysis of recently
// executed contracts, keyed by code hash
var analysisCache, _ = lru.New(256)

// codeBitmap returns the jump destination analysis for the given code,
// reusing a cached buffer when the code hash is known
func codeBitmap(codeHash types.Hash, code []byte) bitmap {
	if codeHash == types.ZeroHash {
		b := bitmap{}
		b.setCode(code)

		return b
	}

	if v, ok := analysisCache.Get(codeHash); ok {
		return bitmap{buf: v.([]byte)}
	}

	b := bitmap{}
	b.setCode(code)
	analysisCache.Add(codeHash, b.buf)

	return b
}

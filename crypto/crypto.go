package crypto

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/umbracle/fastrlp"

	"github.com/umbracle/minievm/helper/keccak"
	"github.com/umbracle/minievm/types"
)

var (
	secp256k1N, _  = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	secp256k1NHalf = new(big.Int).Div(secp256k1N, big.NewInt(2))

	one = big.NewInt(1)
)

// Keccak256 calculates the Keccak256 hash of the input
func Keccak256(v ...[]byte) []byte {
	h := keccak.DefaultKeccakPool.Get()

	for _, i := range v {
		h.Write(i)
	}

	dst := h.Sum(nil)
	keccak.DefaultKeccakPool.Put(h)

	return dst
}

// Keccak256Hash calculates the Keccak256 hash of the input as a Hash
func Keccak256Hash(v ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(v...))
}

// ValidateSignatureValues checks if the signature values are correct
func ValidateSignatureValues(v byte, r, s *big.Int) bool {
	if r == nil || s == nil {
		return false
	}

	if r.Cmp(one) < 0 || s.Cmp(one) < 0 {
		return false
	}

	if v > 1 {
		return false
	}

	// Homestead rule, s must be in the lower half of the order
	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1NHalf) <= 0
}

// Ecrecover recovers the uncompressed public key that signed the
// given hash. sig is 65 bytes, [R || S || V] with V being 0 or 1.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	// btcec expects the compact format [V || R || S] with the
	// recovery id offset by 27
	compact := make([]byte, len(sig))
	compact[0] = sig[len(sig)-1] + 27
	copy(compact[1:], sig)

	pub, _, err := btcecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}

	return pub.SerializeUncompressed(), nil
}

// MarshalPublicKey marshals a public key on the secp256k1 elliptic curve
func MarshalPublicKey(pub *btcec.PublicKey) []byte {
	return pub.SerializeUncompressed()
}

var addressPool fastrlp.ArenaPool

// CreateAddress computes the address of a contract created with CREATE,
// keccak(rlp([caller, nonce]))[12:]
func CreateAddress(addr types.Address, nonce uint64) types.Address {
	a := addressPool.Get()
	defer addressPool.Put(a)

	v := a.NewArray()
	v.Set(a.NewCopyBytes(addr.Bytes()))
	v.Set(a.NewUint(nonce))

	dst := v.MarshalTo(nil)
	dst = Keccak256(dst)[12:]

	return types.BytesToAddress(dst)
}

var create2Prefix = []byte{0xff}

// CreateAddress2 computes the address of a contract created with
// CREATE2, keccak(0xff ++ caller ++ salt ++ keccak(init))[12:]
func CreateAddress2(addr types.Address, salt [32]byte, inithash []byte) types.Address {
	return types.BytesToAddress(Keccak256(create2Prefix, addr.Bytes(), salt[:], Keccak256(inithash))[12:])
}

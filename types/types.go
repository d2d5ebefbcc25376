package types

import (
	"strings"

	"github.com/umbracle/minievm/helper/hex"
)

var (
	ZeroAddress = Address{}
	ZeroHash    = Hash{}
)

const (
	HashLength    = 32
	AddressLength = 20
)

type Hash [HashLength]byte

type Address [AddressLength]byte

func min(i, j int) int {
	if i < j {
		return i
	}

	return j
}

// BytesToHash converts a byte slice to a Hash, keeping the last
// HashLength bytes when the input is longer
func BytesToHash(b []byte) Hash {
	var h Hash

	size := len(b)
	min := min(size, HashLength)

	copy(h[HashLength-min:], b[len(b)-min:])

	return h
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToHex(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(input []byte) error {
	buf, err := hex.DecodeHex(string(input))
	if err != nil {
		return err
	}

	*h = BytesToHash(buf)

	return nil
}

// BytesToAddress converts a byte slice to an Address, keeping the last
// AddressLength bytes when the input is longer
func BytesToAddress(b []byte) Address {
	var a Address

	size := len(b)
	min := min(size, AddressLength)

	copy(a[AddressLength-min:], b[len(b)-min:])

	return a
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return hex.EncodeToHex(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(input []byte) error {
	buf, err := hex.DecodeHex(string(input))
	if err != nil {
		return err
	}

	*a = BytesToAddress(buf)

	return nil
}

func StringToHash(str string) Hash {
	return BytesToHash(stringToBytes(str))
}

func StringToAddress(str string) Address {
	return BytesToAddress(stringToBytes(str))
}

func EmptyHash(hash Hash) bool {
	return hash == ZeroHash
}

func stringToBytes(str string) []byte {
	str = strings.TrimPrefix(str, "0x")
	if len(str)%2 == 1 {
		str = "0" + str
	}

	b, _ := hex.DecodeString(str)

	return b
}

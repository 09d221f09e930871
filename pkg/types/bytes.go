package types

import "fmt"

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

var units = []string{"b", "K", "M", "G", "T", "P", "E"}

// ToBytes converts a raw counter into Bytes.
func ToBytes(v uint64) Bytes { return Bytes(v) }

// Humanized renders the size with a binary prefix: raw bytes below 1024
// ("512 b"), otherwise two decimals and the prefix letter ("1.50K", "12.35M").
func (b Bytes) Humanized() string {
	if b < 1024 {
		return fmt.Sprintf("%d %s", uint64(b), units[0])
	}

	scale := uint64(1)
	i := 0
	for i+1 < len(units) && uint64(b)/scale >= 1024 {
		scale *= 1024
		i++
	}
	return fmt.Sprintf("%.2f%s", float64(b)/float64(scale), units[i])
}

// ToUint64 returns the raw byte count.
func (b Bytes) ToUint64() uint64 { return uint64(b) }

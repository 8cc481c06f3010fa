package seed

import (
	"hash/fnv"
	"math/rand/v2"
)

// rngFor returns the PCG64 stream for (globalSeed, table, column), per
// the (ADD) PRNG specification: the triple is hashed with FNV-1a into
// two uint64 words that seed math/rand/v2's NewPCG. Identical triples
// always produce identical sequences, satisfying the determinism
// contract of §4.3/§8 Invariant 3.
func rngFor(globalSeed uint64, table, column string) *rand.Rand {
	seed1 := fnv1a64(globalSeed, table, column, 1)
	seed2 := fnv1a64(globalSeed, table, column, 2)
	return rand.New(rand.NewPCG(seed1, seed2))
}

func fnv1a64(globalSeed uint64, table, column string, salt byte) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(buf[:], globalSeed)
	h.Write(buf[:])
	h.Write([]byte(table))
	h.Write([]byte{0})
	h.Write([]byte(column))
	h.Write([]byte{0, salt})
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

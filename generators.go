package p256k1

// GeneratorH is a second curve generator, independent of G, used as the
// blinding-free axis of a Pedersen commitment (value*H rather than
// value*G). It must have no known discrete log relative to G: this
// package derives it as a nothing-up-my-sleeve point by hashing a fixed
// domain tag and incrementing until the digest lands on a valid x
// coordinate, the same try-and-increment construction used throughout
// the package's tagged-hash based derivations (see TaggedHash).
var GeneratorH GroupElementAffine

func init() {
	tag := []byte("secp256k1 generator H")
	for counter := uint32(0); ; counter++ {
		var msg [4]byte
		msg[0] = byte(counter)
		msg[1] = byte(counter >> 8)
		msg[2] = byte(counter >> 16)
		msg[3] = byte(counter >> 24)

		digest := TaggedHash(tag, msg[:])

		var x FieldElement
		if err := x.setB32(digest[:]); err != nil {
			continue
		}
		if GeneratorH.setXOVar(&x, false) {
			return
		}
	}
}

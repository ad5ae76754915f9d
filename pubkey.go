package p256k1

// PublicKey is an opaque representation of a parsed, validated public
// key point. Internally it stores the raw affine (x, y) coordinates;
// callers never read or write the bytes directly, and must always go
// through ECPubkeyParse / ECPubkeySerialize to cross a wire boundary,
// matching secp256k1_pubkey's opacity guarantees.
type PublicKey struct {
	data [64]byte
}

// Signature is an opaque representation of a parsed ECDSA signature,
// storing the raw (r, s) scalars. Like PublicKey it must be crossed
// through the Parse/Serialize functions at a wire boundary.
type Signature struct {
	data [64]byte
}

// SEC1 tag bytes identifying the serialization form of a public key.
const (
	TagPubkeyEven         = 0x02
	TagPubkeyOdd          = 0x03
	TagPubkeyUncompressed = 0x04
	TagPubkeyHybridEven   = 0x06
	TagPubkeyHybridOdd    = 0x07
)

// ECPubkeySerialize output-format flags.
const (
	ECCompressed   uint = 0x0102
	ECUncompressed uint = 0x0002
)

// pubkeyLoad decodes a PublicKey's internal storage into a validated
// affine group element.
func pubkeyLoad(ge *GroupElementAffine, pubkey *PublicKey) bool {
	ge.fromBytes(pubkey.data[:])
	return ge.isInfinity() || ge.isValid()
}

// pubkeySave encodes an affine group element into a PublicKey's internal
// storage.
func pubkeySave(pubkey *PublicKey, ge *GroupElementAffine) {
	ge.toBytes(pubkey.data[:])
}

// ECPubkeyCreate computes the public key for a secret key: pubkey = seckey*G.
func ECPubkeyCreate(ctx *Context, pubkey *PublicKey, seckey []byte) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") {
		return false
	}
	if !argCheck(ctx, len(seckey) == 32, "seckey must be 32 bytes") {
		return false
	}

	var sec Scalar
	if !sec.setB32Seckey(seckey) {
		return false
	}

	var pj GroupElementJacobian
	EcmultGen(&pj, &sec)
	sec.clear()

	var pa GroupElementAffine
	pa.setGEJ(&pj)
	if pa.isInfinity() {
		return false
	}

	pubkeySave(pubkey, &pa)
	return true
}

// ECPubkeyParse decodes a SEC1-encoded public key (compressed, 33 bytes,
// or uncompressed, 65 bytes) into pubkey.
func ECPubkeyParse(ctx *Context, pubkey *PublicKey, input []byte) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") {
		return false
	}

	var ge GroupElementAffine
	if len(input) == 0 {
		return false
	}

	switch input[0] {
	case TagPubkeyUncompressed, TagPubkeyHybridEven, TagPubkeyHybridOdd:
		if len(input) != 65 {
			return false
		}
		var x, y FieldElement
		x.setB32(input[1:33])
		y.setB32(input[33:65])
		ge.setXY(&x, &y)
		if input[0] != TagPubkeyUncompressed {
			if y.isOdd() != (input[0] == TagPubkeyHybridOdd) {
				return false
			}
		}
		if !ge.isValid() {
			return false
		}

	case TagPubkeyEven, TagPubkeyOdd:
		if len(input) != 33 {
			return false
		}
		var x FieldElement
		x.setB32(input[1:33])
		if !ge.setXOVar(&x, input[0] == TagPubkeyOdd) {
			return false
		}

	default:
		return false
	}

	pubkeySave(pubkey, &ge)
	return true
}

// ECPubkeySerialize encodes pubkey in SEC1 form (compressed or
// uncompressed, per flags), writing the result to output and updating
// *outputlen with the number of bytes written.
func ECPubkeySerialize(ctx *Context, output []byte, outputlen *int, pubkey *PublicKey, flags uint) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") {
		return false
	}

	var ge GroupElementAffine
	if !pubkeyLoad(&ge, pubkey) || ge.isInfinity() {
		return false
	}
	ge.x.normalize()
	ge.y.normalize()

	if flags == ECCompressed {
		if len(output) < 33 {
			return false
		}
		if ge.y.isOdd() {
			output[0] = TagPubkeyOdd
		} else {
			output[0] = TagPubkeyEven
		}
		ge.x.getB32(output[1:33])
		*outputlen = 33
		return true
	}

	if len(output) < 65 {
		return false
	}
	output[0] = TagPubkeyUncompressed
	ge.x.getB32(output[1:33])
	ge.y.getB32(output[33:65])
	*outputlen = 65
	return true
}

// ECPubkeyCmp lexicographically compares the compressed encodings of two
// public keys, returning -1, 0, or 1.
func ECPubkeyCmp(ctx *Context, pubkey1, pubkey2 *PublicKey) int {
	var a, b [33]byte
	la, lb := 33, 33
	ok1 := ECPubkeySerialize(ctx, a[:], &la, pubkey1, ECCompressed)
	ok2 := ECPubkeySerialize(ctx, b[:], &lb, pubkey2, ECCompressed)
	if !ok1 && !ok2 {
		return 0
	}
	if !ok1 {
		return -1
	}
	if !ok2 {
		return 1
	}
	for i := 0; i < 33; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ECPubkeyTweakAdd adds tweak*G to pubkey in place: pubkey = pubkey + tweak*G.
func ECPubkeyTweakAdd(ctx *Context, pubkey *PublicKey, tweak []byte) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") || !argCheck(ctx, len(tweak) == 32, "tweak must be 32 bytes") {
		return false
	}

	var tw Scalar
	if !tw.setB32Seckey(tweak) {
		return false
	}

	var point GroupElementAffine
	if !pubkeyLoad(&point, pubkey) || point.isInfinity() {
		return false
	}

	var tweakG GroupElementJacobian
	EcmultGen(&tweakG, &tw)

	var pointJ, result GroupElementJacobian
	pointJ.setGE(&point)
	result.addVar(&pointJ, &tweakG)
	if result.isInfinity() {
		return false
	}

	var resultAff GroupElementAffine
	resultAff.setGEJ(&result)
	pubkeySave(pubkey, &resultAff)
	return true
}

// ECPubkeyTweakMul multiplies pubkey by tweak in place: pubkey = tweak*pubkey.
func ECPubkeyTweakMul(ctx *Context, pubkey *PublicKey, tweak []byte) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") || !argCheck(ctx, len(tweak) == 32, "tweak must be 32 bytes") {
		return false
	}

	var tw Scalar
	if !tw.setB32Seckey(tweak) {
		return false
	}

	var point GroupElementAffine
	if !pubkeyLoad(&point, pubkey) || point.isInfinity() {
		return false
	}

	var result GroupElementJacobian
	EcmultConst(&result, &tw, &point)
	if result.isInfinity() {
		return false
	}

	var resultAff GroupElementAffine
	resultAff.setGEJ(&result)
	pubkeySave(pubkey, &resultAff)
	return true
}

// ECSeckeyVerify reports whether seckey is a valid, nonzero, in-range
// secret key.
func ECSeckeyVerify(ctx *Context, seckey []byte) bool {
	if len(seckey) != 32 {
		return false
	}
	var s Scalar
	return s.setB32Seckey(seckey)
}

// ECKeyPairGenerate generates a new random secret key and its matching
// public key.
func ECKeyPairGenerate(ctx *Context) (seckey []byte, pubkey *PublicKey, err error) {
	seckey, err = ECSeckeyGenerate()
	if err != nil {
		return nil, nil, err
	}

	pubkey = &PublicKey{}
	if !ECPubkeyCreate(ctx, pubkey, seckey) {
		return nil, nil, errInvalidSeckey
	}

	return seckey, pubkey, nil
}

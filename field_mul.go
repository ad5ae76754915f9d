package p256k1

import "math/bits"

// This file implements the arithmetic-heavy field operations: multiplication,
// squaring, inversion, square roots and the quadratic-residue test. The
// 5x52 limb layout declared in field.go is kept for storage and for the
// cheap linear operations (add/negate/cmov); for the multiplication-heavy
// operations below, operands are first expanded to a 4x64 limb form (the
// same packing used by toStorage/fromStorage), multiplied with a plain
// schoolbook long multiplication, and folded back modulo p using the
// identity 2^256 = 2^32 + 977 (mod p). The result is packed back into the
// 5x52 representation before returning.

// fieldReductionConstant32 is M = 2^32 + 977, the constant such that
// 2^256 ≡ M (mod p).
const fieldReductionConstant32 = 0x1000003D1

// toWide expands a normalized field element into 4 uint64 limbs (little
// endian, base 2^64), matching the packing used by toStorage.
func (r *FieldElement) toWide() [4]uint64 {
	var t FieldElement
	t = *r
	t.normalize()

	var d [4]uint64
	d[0] = t.n[0] | (t.n[1] << 52)
	d[1] = (t.n[1] >> 12) | (t.n[2] << 40)
	d[2] = (t.n[2] >> 24) | (t.n[3] << 28)
	d[3] = (t.n[3] >> 36) | (t.n[4] << 16)
	return d
}

// fromWide packs a 4x64 limb value (assumed < 2^256, not reduced) back
// into the 5x52 representation, leaving magnitude 1 and unnormalized so a
// caller can combine it with further lazy operations before normalizing.
func (r *FieldElement) fromWide(d [4]uint64) {
	r.n[0] = d[0] & limb0Max
	r.n[1] = ((d[0] >> 52) | (d[1] << 12)) & limb0Max
	r.n[2] = ((d[1] >> 40) | (d[2] << 24)) & limb0Max
	r.n[3] = ((d[2] >> 28) | (d[3] << 36)) & limb0Max
	r.n[4] = (d[3] >> 16) & limb4Max

	r.magnitude = 1
	r.normalized = false
}

// wideMul512 computes the full 512-bit product of two 4x64-limb values.
func wideMul512(a, b [4]uint64) [8]uint64 {
	var p [8]uint64
	for i := 0; i < 4; i++ {
		var carry uint64
		for j := 0; j < 4; j++ {
			hi, lo := bits.Mul64(a[i], b[j])
			lo, c0 := bits.Add64(lo, p[i+j], 0)
			lo, c1 := bits.Add64(lo, carry, 0)
			p[i+j] = lo
			hi, _ = bits.Add64(hi, 0, c0)
			hi, _ = bits.Add64(hi, 0, c1)
			carry = hi
		}
		p[i+4] += carry
	}
	return p
}

// mulSmall256 multiplies a 4x64-limb value by a small (<2^34) multiplier,
// returning a 5-limb result (the 5th limb holds the overflow).
func mulSmall256(a [4]uint64, m uint64) [5]uint64 {
	var out [5]uint64
	var carry uint64
	for i := 0; i < 4; i++ {
		hi, lo := bits.Mul64(a[i], m)
		lo, c := bits.Add64(lo, carry, 0)
		hi, _ = bits.Add64(hi, 0, c)
		out[i] = lo
		carry = hi
	}
	out[4] = carry
	return out
}

// add256carry adds a 5-limb value into a 4-limb accumulator, returning
// the updated accumulator and the overflow beyond 256 bits.
func add256carry(a [4]uint64, b [5]uint64) ([4]uint64, uint64) {
	var out [4]uint64
	var carry uint64
	for i := 0; i < 4; i++ {
		v, c := bits.Add64(a[i], b[i], carry)
		out[i] = v
		carry = c
	}
	carry += b[4]
	return out, carry
}

// reduceMod256 folds a 512-bit product modulo p = 2^256 - 2^32 - 977 using
// the identity 2^256 ≡ M (mod p), applied twice (the first fold leaves a
// small overflow above 256 bits, which is folded back a second time), and
// returns a value that is < 2*p, suitable for fromWide + normalize.
func reduceMod256(wide [8]uint64) [4]uint64 {
	var hi [4]uint64
	copy(hi[:], wide[4:8])
	var lo [4]uint64
	copy(lo[:], wide[0:4])

	// First fold: lo + hi*M, where hi*M fits in 5 limbs (<2^289).
	t := mulSmall256(hi, fieldReductionConstant32)
	sum, overflow := add256carry(lo, t)

	// overflow is small (< 2^34); fold it back in using the same identity.
	t2 := mulSmall256([4]uint64{overflow, 0, 0, 0}, fieldReductionConstant32)
	sum2, overflow2 := add256carry(sum, t2)

	// overflow2 can only be 0 or 1 at this point; fold once more if set.
	if overflow2 != 0 {
		sum2, _ = add256carry(sum2, [5]uint64{fieldReductionConstant32, 0, 0, 0, 0})
	}
	return sum2
}

// mul multiplies two field elements: r = a * b (mod p).
func (r *FieldElement) mul(a, b *FieldElement) {
	aw := a.toWide()
	bw := b.toWide()
	wide := wideMul512(aw, bw)
	folded := reduceMod256(wide)
	r.fromWide(folded)
	r.normalize()
}

// sqr squares a field element: r = a^2 (mod p).
func (r *FieldElement) sqr(a *FieldElement) {
	r.mul(a, a)
}

// inv computes the modular inverse of a field element using Fermat's
// little theorem (a^(p-2) mod p), via the standard secp256k1 addition
// chain built from repeated squarings and multiplications.
func (r *FieldElement) inv(a *FieldElement) {
	var x2, x3, x6, x9, x11, x22, x44, x88, x176, x220, x223, t1 FieldElement

	x2.sqr(a)
	x2.mul(&x2, a)

	x3.sqr(&x2)
	x3.mul(&x3, a)

	x6 = x3
	for j := 0; j < 3; j++ {
		x6.sqr(&x6)
	}
	x6.mul(&x6, &x3)

	x9 = x6
	for j := 0; j < 3; j++ {
		x9.sqr(&x9)
	}
	x9.mul(&x9, &x3)

	x11 = x9
	for j := 0; j < 2; j++ {
		x11.sqr(&x11)
	}
	x11.mul(&x11, &x2)

	x22 = x11
	for j := 0; j < 11; j++ {
		x22.sqr(&x22)
	}
	x22.mul(&x22, &x11)

	x44 = x22
	for j := 0; j < 22; j++ {
		x44.sqr(&x44)
	}
	x44.mul(&x44, &x22)

	x88 = x44
	for j := 0; j < 44; j++ {
		x88.sqr(&x88)
	}
	x88.mul(&x88, &x44)

	x176 = x88
	for j := 0; j < 88; j++ {
		x176.sqr(&x176)
	}
	x176.mul(&x176, &x88)

	x220 = x176
	for j := 0; j < 44; j++ {
		x220.sqr(&x220)
	}
	x220.mul(&x220, &x44)

	x223 = x220
	for j := 0; j < 3; j++ {
		x223.sqr(&x223)
	}
	x223.mul(&x223, &x3)

	t1 = x223
	for j := 0; j < 23; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x22)
	for j := 0; j < 5; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, a)
	for j := 0; j < 3; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x2)
	for j := 0; j < 2; j++ {
		t1.sqr(&t1)
	}
	r.mul(a, &t1)
}

// sqrt computes r such that r^2 = a (mod p), when a is a quadratic
// residue. Since p ≡ 3 (mod 4), r = a^((p+1)/4). Returns whether a square
// root was found (the result is verified by squaring it back).
func (r *FieldElement) sqrt(a *FieldElement) bool {
	var x2, x3, x6, x9, x11, x22, x44, x88, x176, x220, x223, t1 FieldElement

	x2.sqr(a)
	x2.mul(&x2, a)

	x3.sqr(&x2)
	x3.mul(&x3, a)

	x6 = x3
	for j := 0; j < 3; j++ {
		x6.sqr(&x6)
	}
	x6.mul(&x6, &x3)

	x9 = x6
	for j := 0; j < 3; j++ {
		x9.sqr(&x9)
	}
	x9.mul(&x9, &x3)

	x11 = x9
	for j := 0; j < 2; j++ {
		x11.sqr(&x11)
	}
	x11.mul(&x11, &x2)

	x22 = x11
	for j := 0; j < 11; j++ {
		x22.sqr(&x22)
	}
	x22.mul(&x22, &x11)

	x44 = x22
	for j := 0; j < 22; j++ {
		x44.sqr(&x44)
	}
	x44.mul(&x44, &x22)

	x88 = x44
	for j := 0; j < 44; j++ {
		x88.sqr(&x88)
	}
	x88.mul(&x88, &x44)

	x176 = x88
	for j := 0; j < 88; j++ {
		x176.sqr(&x176)
	}
	x176.mul(&x176, &x88)

	x220 = x176
	for j := 0; j < 44; j++ {
		x220.sqr(&x220)
	}
	x220.mul(&x220, &x44)

	x223 = x220
	for j := 0; j < 3; j++ {
		x223.sqr(&x223)
	}
	x223.mul(&x223, &x3)

	t1 = x223
	for j := 0; j < 23; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x22)
	for j := 0; j < 6; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x2)
	t1.sqr(&t1)
	r.sqr(&t1)

	var check FieldElement
	check.sqr(r)
	check.normalize()
	var an FieldElement
	an = *a
	an.normalize()
	return check.equal(&an)
}

// isSquare reports whether a is a quadratic residue mod p, via the
// Legendre symbol a^((p-1)/2). Uses the same x2..x223 addition chain as
// sqrt/inv, with a final tail that lands on the exponent (p-1)/2.
func (a *FieldElement) isSquare() bool {
	var x2, x3, x6, x9, x11, x22, x44, x88, x176, x220, x223, t1 FieldElement

	x2.sqr(a)
	x2.mul(&x2, a)

	x3.sqr(&x2)
	x3.mul(&x3, a)

	x6 = x3
	for j := 0; j < 3; j++ {
		x6.sqr(&x6)
	}
	x6.mul(&x6, &x3)

	x9 = x6
	for j := 0; j < 3; j++ {
		x9.sqr(&x9)
	}
	x9.mul(&x9, &x3)

	x11 = x9
	for j := 0; j < 2; j++ {
		x11.sqr(&x11)
	}
	x11.mul(&x11, &x2)

	x22 = x11
	for j := 0; j < 11; j++ {
		x22.sqr(&x22)
	}
	x22.mul(&x22, &x11)

	x44 = x22
	for j := 0; j < 22; j++ {
		x44.sqr(&x44)
	}
	x44.mul(&x44, &x22)

	x88 = x44
	for j := 0; j < 44; j++ {
		x88.sqr(&x88)
	}
	x88.mul(&x88, &x44)

	x176 = x88
	for j := 0; j < 88; j++ {
		x176.sqr(&x176)
	}
	x176.mul(&x176, &x88)

	x220 = x176
	for j := 0; j < 44; j++ {
		x220.sqr(&x220)
	}
	x220.mul(&x220, &x44)

	x223 = x220
	for j := 0; j < 3; j++ {
		x223.sqr(&x223)
	}
	x223.mul(&x223, &x3)

	t1 = x223
	for j := 0; j < 23; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x22)
	for j := 0; j < 5; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, a)
	for j := 0; j < 4; j++ {
		t1.sqr(&t1)
	}
	t1.mul(&t1, &x3)

	t1.normalize()
	one := FieldElementOne
	return t1.equal(&one)
}

// half computes r = a/2 (mod p): if a is even this is a plain right
// shift, otherwise (a+p)/2 (which is always an integer since p is odd).
func (r *FieldElement) half(a *FieldElement) {
	var t FieldElement
	t = *a
	t.normalize()

	if t.n[0]&1 == 0 {
		t.n[0] = (t.n[0] >> 1) | ((t.n[1] & 1) << 51)
		t.n[1] = (t.n[1] >> 1) | ((t.n[2] & 1) << 51)
		t.n[2] = (t.n[2] >> 1) | ((t.n[3] & 1) << 51)
		t.n[3] = (t.n[3] >> 1) | ((t.n[4] & 1) << 51)
		t.n[4] = t.n[4] >> 1
	} else {
		var carry uint64
		s0 := t.n[0] + fieldModulusLimb0
		carry = s0 >> 52
		s0 &= limb0Max
		s1 := t.n[1] + fieldModulusLimb1 + carry
		carry = s1 >> 52
		s1 &= limb0Max
		s2 := t.n[2] + fieldModulusLimb2 + carry
		carry = s2 >> 52
		s2 &= limb0Max
		s3 := t.n[3] + fieldModulusLimb3 + carry
		carry = s3 >> 52
		s3 &= limb0Max
		s4 := t.n[4] + fieldModulusLimb4 + carry

		t.n[0] = (s0 >> 1) | ((s1 & 1) << 51)
		t.n[1] = (s1 >> 1) | ((s2 & 1) << 51)
		t.n[2] = (s2 >> 1) | ((s3 & 1) << 51)
		t.n[3] = (s3 >> 1) | ((s4 & 1) << 51)
		t.n[4] = s4 >> 1
	}

	r.n = t.n
	r.magnitude = 1
	r.normalized = true
}

package p256k1

// This file exposes the general-purpose entry points built on top of the
// constant-time GLV multiplier in glv.go: a combined generator-and-point
// multiplication (used by ECDSA/Schnorr verification), a single constant-
// time point multiplication, and a multi-scalar accumulation.

// Ecmult computes r = a*G + b*P, the double scalar multiplication at the
// heart of ECDSA and Schnorr signature verification.
func Ecmult(r *GroupElementJacobian, a *Scalar, b *Scalar, p *GroupElementAffine) {
	var aG, bP GroupElementJacobian

	if !a.isZero() {
		EcmultGen(&aG, a)
	} else {
		aG.setInfinity()
	}

	if !b.isZero() && !p.infinity {
		EcmultConst(&bP, b, p)
	} else {
		bP.setInfinity()
	}

	r.addVar(&aG, &bP)
}

// EcmultConst performs constant-time-shaped scalar multiplication
// r = k*P for an arbitrary (non-generator) point P, using the GLV-split
// multiplier.
func EcmultConst(r *GroupElementJacobian, k *Scalar, p *GroupElementAffine) {
	if k.isZero() || p.infinity {
		r.setInfinity()
		return
	}
	ecmultConstGLV(r, p, k)
}

// EcmultMulti computes r = sum(scalars[i] * points[i]), one EcmultConst
// per nonzero term. The Pedersen, Borromean and range-proof code do not
// call it; they build their sums from EcmultGen and EcmultConst directly.
func EcmultMulti(r *GroupElementJacobian, scalars []*Scalar, points []*GroupElementAffine) {
	if len(scalars) != len(points) {
		panic("scalars and points must have same length")
	}

	r.setInfinity()

	for i := 0; i < len(scalars); i++ {
		if scalars[i].isZero() || points[i].infinity {
			continue
		}
		var term GroupElementJacobian
		EcmultConst(&term, scalars[i], points[i])
		r.addVar(r, &term)
	}
}

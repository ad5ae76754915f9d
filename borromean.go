package p256k1

import (
	"encoding/binary"
	"errors"
)

// BorromeanSignature is a compact multi-ring signature: one shared
// 32-byte challenge plus one 32-byte response per ring member, proving
// knowledge of one secret scalar per ring without revealing which
// member it is.
type BorromeanSignature struct {
	E0 [32]byte
	S  [][]byte // S[i][j] is the response for ring i, member j
}

var borromeanRingStartTag = []byte("borromean-ring-start")
var borromeanChainTag = []byte("borromean-chain")
var borromeanE0Tag = []byte("borromean-e0")

// ringStartChallenge derives ring i's position-0 challenge from the
// shared e0. Binding every ring's entry point to e0 is what makes the
// signature sound: a forger who has not walked a ring using a real
// discrete log cannot choose s-values that make the ring's own closure
// (ringVerifyWalk) hash back to the same e0 it started from, any more
// than they could find a hash preimage.
func ringStartChallenge(e0 [32]byte, ring int) Scalar {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(ring))
	buf := make([]byte, 0, 32+4)
	buf = append(buf, e0[:]...)
	buf = append(buf, idx[:]...)
	digest := TaggedHash(borromeanRingStartTag, buf)
	var e Scalar
	e.setB32(digest[:])
	return e
}

func borromeanChainChallenge(ring, pos int, rx []byte) Scalar {
	buf := make([]byte, 0, 8+32)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(ring))
	buf = append(buf, idx[:]...)
	binary.BigEndian.PutUint32(idx[:], uint32(pos))
	buf = append(buf, idx[:]...)
	buf = append(buf, rx...)
	digest := TaggedHash(borromeanChainTag, buf)
	var e Scalar
	e.setB32(digest[:])
	return e
}

func ringMemberX(r *GroupElementJacobian) ([]byte, error) {
	var rAff GroupElementAffine
	rAff.setGEJ(r)
	if rAff.isInfinity() {
		return nil, errors.New("ring member produced point at infinity")
	}
	rAff.x.normalize()
	rx := make([]byte, 32)
	rAff.x.getB32(rx)
	return rx, nil
}

func ringCommitment(s *Scalar, e *Scalar, pubkey *GroupElementAffine) GroupElementJacobian {
	var sg GroupElementJacobian
	EcmultGen(&sg, s)
	var ep GroupElementJacobian
	EcmultConst(&ep, e, pubkey)
	var negEp GroupElementJacobian
	negEp.negate(&ep)
	var r GroupElementJacobian
	r.addVar(&sg, &negEp)
	return r
}

// ringForwardFromSecret walks ring members secidx..n-1, treating realR
// (the nonce commitment k*G at secidx) as already fixed and filling in
// the remaining positions with decoy responses s[secidx+1:]. It returns
// the x coordinate of the last member, which feeds the shared e0 hash.
func ringForwardFromSecret(ring int, pubkeys []*GroupElementAffine, s []Scalar, secidx int, realR *GroupElementJacobian) ([]byte, error) {
	n := len(pubkeys)
	rCur := *realR
	for j := secidx; j < n-1; j++ {
		rx, err := ringMemberX(&rCur)
		if err != nil {
			return nil, err
		}
		e := borromeanChainChallenge(ring, j+1, rx)
		rCur = ringCommitment(&s[j+1], &e, pubkeys[j+1])
	}
	return ringMemberX(&rCur)
}

// ringBackwardToSecret walks ring members 0..secidx-1 starting from the
// ring's e0-derived entry challenge, returning the challenge that lands
// on secidx (the value the real secret must absorb).
func ringBackwardToSecret(ring int, pubkeys []*GroupElementAffine, s []Scalar, secidx int, startE Scalar) (Scalar, error) {
	e := startE
	for j := 0; j < secidx; j++ {
		r := ringCommitment(&s[j], &e, pubkeys[j])
		rx, err := ringMemberX(&r)
		if err != nil {
			return Scalar{}, err
		}
		e = borromeanChainChallenge(ring, j+1, rx)
	}
	return e, nil
}

// ringVerifyWalk reconstructs every member of a ring from its published
// responses, starting at the ring's e0-derived entry challenge, and
// returns the x coordinate of the final member. Used only by verifiers,
// who have no secret index: every position is recomputed uniformly from
// the supplied s-values.
func ringVerifyWalk(ring int, pubkeys []*GroupElementAffine, s []Scalar, startE Scalar) ([]byte, error) {
	e := startE
	var finalX []byte
	for j := 0; j < len(pubkeys); j++ {
		r := ringCommitment(&s[j], &e, pubkeys[j])
		rx, err := ringMemberX(&r)
		if err != nil {
			return nil, err
		}
		if j < len(pubkeys)-1 {
			e = borromeanChainChallenge(ring, j+1, rx)
		} else {
			finalX = rx
		}
	}
	return finalX, nil
}

// BorromeanSign produces a ring signature over message proving knowledge
// of the discrete log (relative to G) of pubkeys[i][secidx[i]] for every
// ring i, without revealing secidx.
//
// Signing proceeds in two passes because e0 is defined from every
// ring's closure, but each ring's own entry challenge is in turn
// derived from e0: first walk forward from each secret index to its
// ring's last member (fixing e0), then walk forward from member 0 of
// each ring back to its secret index (now using the e0-derived entry
// challenge), solving for the real response only once that second walk
// reaches the secret member.
func BorromeanSign(message []byte, pubkeys [][]*GroupElementAffine, privkeys []*Scalar, secidx []int) (*BorromeanSignature, error) {
	m := len(pubkeys)
	if len(privkeys) != m || len(secidx) != m {
		return nil, errors.New("pubkeys, privkeys and secidx must have equal length")
	}

	nonces := make([]Scalar, m)
	realR := make([]GroupElementJacobian, m)
	s := make([][]Scalar, m)

	for i := 0; i < m; i++ {
		if secidx[i] < 0 || secidx[i] >= len(pubkeys[i]) {
			return nil, errors.New("secidx out of range")
		}
		var k Scalar
		for {
			seed, err := ECSeckeyGenerate()
			if err != nil {
				return nil, err
			}
			if k.setB32Seckey(seed) {
				break
			}
		}
		nonces[i] = k
		EcmultGen(&realR[i], &k)

		s[i] = make([]Scalar, len(pubkeys[i]))
		for j := range s[i] {
			if j == secidx[i] {
				continue
			}
			seed, err := ECSeckeyGenerate()
			if err != nil {
				return nil, err
			}
			s[i][j].setB32(seed)
		}
	}

	// Pass 1: forward from each ring's secret index to its last member,
	// fixing the inputs to the shared e0 hash.
	finalX := make([][]byte, m)
	for i := 0; i < m; i++ {
		fx, err := ringForwardFromSecret(i, pubkeys[i], s[i], secidx[i], &realR[i])
		if err != nil {
			return nil, err
		}
		finalX[i] = fx
	}

	e0Input := make([]byte, 0, len(message)+32*m)
	e0Input = append(e0Input, message...)
	for i := 0; i < m; i++ {
		e0Input = append(e0Input, finalX[i]...)
	}
	e0 := TaggedHash(borromeanE0Tag, e0Input)

	// Pass 2: forward from member 0 of each ring, now seeded from e0,
	// until the secret index is reached; only then is the real secret
	// used to close the ring.
	for i := 0; i < m; i++ {
		startE := ringStartChallenge(e0, i)
		eAtSecret, err := ringBackwardToSecret(i, pubkeys[i], s[i], secidx[i], startE)
		if err != nil {
			return nil, err
		}

		var term Scalar
		term.mul(&eAtSecret, privkeys[i])
		s[i][secidx[i]].add(&nonces[i], &term)
		nonces[i].clear()
		term.clear()
	}

	sOut := make([][]byte, m)
	for i := 0; i < m; i++ {
		sOut[i] = make([]byte, 32*len(s[i]))
		for j := range s[i] {
			s[i][j].getB32(sOut[i][32*j : 32*j+32])
			s[i][j].clear()
		}
	}

	return &BorromeanSignature{E0: e0, S: sOut}, nil
}

// BorromeanVerify checks sig against message and the same public-key
// rings used at signing time. Every ring is walked from its e0-derived
// entry challenge all the way to its last member; the signature is only
// valid if hashing every ring's last member back together reproduces
// the same e0 the walk started from.
func BorromeanVerify(sig *BorromeanSignature, message []byte, pubkeys [][]*GroupElementAffine) bool {
	m := len(pubkeys)
	if sig == nil || len(sig.S) != m {
		return false
	}

	finalX := make([][]byte, m)
	for i := 0; i < m; i++ {
		if len(sig.S[i]) != 32*len(pubkeys[i]) {
			return false
		}
		s := make([]Scalar, len(pubkeys[i]))
		for j := range s {
			if overflow := s[j].setB32(sig.S[i][32*j : 32*j+32]); overflow {
				return false
			}
		}

		startE := ringStartChallenge(sig.E0, i)
		fx, err := ringVerifyWalk(i, pubkeys[i], s, startE)
		if err != nil {
			return false
		}
		finalX[i] = fx
	}

	e0Input := make([]byte, 0, len(message)+32*m)
	e0Input = append(e0Input, message...)
	for i := 0; i < m; i++ {
		e0Input = append(e0Input, finalX[i]...)
	}
	e0 := TaggedHash(borromeanE0Tag, e0Input)

	return e0 == sig.E0
}

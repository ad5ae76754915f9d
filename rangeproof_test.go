package p256k1

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomNonce32(t *testing.T) []byte {
	t.Helper()
	n := make([]byte, 32)
	if _, err := rand.Read(n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRangeproofSignVerifyScenario(t *testing.T) {
	// spec scenario: exp=0, min_bits=32, value=100, min_value=0.
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)

	proof, err := RangeproofSign(&commit, blind, 100, 0, 0, 32, nonce, nil)
	if err != nil {
		t.Fatalf("RangeproofSign failed: %v", err)
	}

	minValue, maxValue, err := RangeproofVerify(&commit, proof)
	if err != nil {
		t.Fatalf("RangeproofVerify failed: %v", err)
	}
	if minValue != 0 {
		t.Errorf("minValue = %d, want 0", minValue)
	}
	if maxValue < (uint64(1)<<32)-1 {
		t.Errorf("maxValue = %d, want at least 2^32-1", maxValue)
	}
	if !(minValue <= 100 && 100 <= maxValue) {
		t.Errorf("value 100 not bracketed by [%d, %d]", minValue, maxValue)
	}
}

func TestRangeproofProvesExternalCommitment(t *testing.T) {
	// The whole point of taking blind as an input: the caller can have
	// already published commit = blind*G + value*H independently, and
	// RangeproofSign proves a range for that exact commitment.
	blind := randomBlind(t)
	const value = uint64(777)

	var published Commitment
	if !PedersenCommit(nil, &published, blind, value) {
		t.Fatalf("PedersenCommit failed")
	}

	nonce := randomNonce32(t)
	var reComputed Commitment
	proof, err := RangeproofSign(&reComputed, blind, value, 0, 0, 16, nonce, nil)
	if err != nil {
		t.Fatalf("RangeproofSign failed: %v", err)
	}
	if reComputed != published {
		t.Fatalf("RangeproofSign's commitment does not match the pre-existing one")
	}

	if _, _, err := RangeproofVerify(&published, proof); err != nil {
		t.Errorf("proof should verify against the pre-existing commitment: %v", err)
	}
}

func TestRangeproofRewind(t *testing.T) {
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)

	const value = uint64(12345)
	const minValue = uint64(100)

	proof, err := RangeproofSign(&commit, blind, value, minValue, 0, 16, nonce, nil)
	if err != nil {
		t.Fatalf("RangeproofSign failed: %v", err)
	}

	gotValue, gotBlind, gotMsg, err := RangeproofRewind(proof, nonce)
	if err != nil {
		t.Fatalf("RangeproofRewind failed: %v", err)
	}
	if gotValue != value {
		t.Errorf("rewound value = %d, want %d", gotValue, value)
	}
	if len(gotMsg) != 0 {
		t.Errorf("rewound message = %q, want empty", gotMsg)
	}
	if !bytes.Equal(gotBlind, blind) {
		t.Errorf("rewound blind does not match the blind passed to RangeproofSign")
	}

	var recomputed Commitment
	if !PedersenCommit(nil, &recomputed, gotBlind, value) {
		t.Fatalf("failed to recompute commitment from rewound blind")
	}
	if recomputed != commit {
		t.Error("commitment from rewound (value, blind) does not match original commitment")
	}
}

func TestRangeproofRewindRecoversEmbeddedMessage(t *testing.T) {
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)
	msg := []byte("paid invoice #4471")

	const value = uint64(500)
	proof, err := RangeproofSign(&commit, blind, value, 0, 0, 16, nonce, msg)
	if err != nil {
		t.Fatalf("RangeproofSign failed: %v", err)
	}

	gotValue, gotBlind, gotMsg, err := RangeproofRewind(proof, nonce)
	if err != nil {
		t.Fatalf("RangeproofRewind failed: %v", err)
	}
	if gotValue != value {
		t.Errorf("rewound value = %d, want %d", gotValue, value)
	}
	if !bytes.Equal(gotBlind, blind) {
		t.Error("rewound blind does not match original")
	}
	if !bytes.Equal(gotMsg, msg) {
		t.Errorf("rewound message = %q, want %q", gotMsg, msg)
	}
}

func TestRangeproofSignRejectsMessageTooLargeForDigitCount(t *testing.T) {
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)

	// 1 digit leaves 3 unused ring slots: 96 bytes of capacity, 4 of
	// which are a length prefix. This message doesn't fit.
	huge := make([]byte, 200)
	if _, err := RangeproofSign(&commit, blind, 1, 0, 0, 1, nonce, huge); err == nil {
		t.Error("expected RangeproofSign to reject an oversized embedded message")
	}
}

func TestRangeproofVerifyRejectsTamperedProof(t *testing.T) {
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)

	proof, err := RangeproofSign(&commit, blind, 42, 0, 0, 8, nonce, nil)
	if err != nil {
		t.Fatalf("RangeproofSign failed: %v", err)
	}

	tampered := append([]byte(nil), proof...)
	tampered[len(tampered)-1] ^= 1

	if _, _, err := RangeproofVerify(&commit, tampered); err == nil {
		t.Error("tampered proof should fail verification")
	}
}

func TestRangeproofSignRejectsOutOfRangeValue(t *testing.T) {
	var commit Commitment
	blind := randomBlind(t)
	nonce := randomNonce32(t)

	// 4 digits at exp=0 cover [0, 256); 1000 doesn't fit.
	if _, err := RangeproofSign(&commit, blind, 1000, 0, 0, 4, nonce, nil); err == nil {
		t.Error("expected RangeproofSign to reject a value too large for nDigits")
	}
}

// TestRangeproofVerifyRejectsForgeryWithoutAnyDigitKnowledge reproduces
// the attack a sound range proof must resist: pick an arbitrary set of
// per-digit sub-commitments and ring responses with no discrete log
// knowledge at all, walk the rings exactly as a verifier would to get
// each ring's closing x-coordinate, and set e0 to the hash that
// computation produces. Before the e0-from-shared-challenge fix this
// was accepted unconditionally; it must now be rejected.
func TestRangeproofVerifyRejectsForgeryWithoutAnyDigitKnowledge(t *testing.T) {
	const nDigits = 4
	scale, err := scale10(0)
	if err != nil {
		t.Fatal(err)
	}

	header := &rangeproofHeader{exp: 0, nDigits: nDigits, minValue: 0}
	msgBuf := header.serialize()

	pubkeyRings := make([][]*GroupElementAffine, nDigits)
	forgedS := make([][4]Scalar, nDigits)
	subTags := make([][33]byte, nDigits)

	for i := 0; i < nDigits; i++ {
		w, _, werr := digitWeight(scale, i)
		if werr != nil {
			t.Fatal(werr)
		}
		// An arbitrary "sub-commitment" the forger made up - not of the
		// form r*G + d*weight*H for any known r, d.
		seed := randomBlind(t)
		var arbitrary Scalar
		arbitrary.setB32(seed)
		var cj GroupElementJacobian
		EcmultGen(&cj, &arbitrary)
		var c GroupElementAffine
		c.setGEJ(&cj)
		c.x.normalize()
		c.y.normalize()

		pubkeyRings[i] = ringFromCommit(&cj, w)

		var tag [33]byte
		if c.y.isOdd() {
			tag[0] = TagPedersenOdd
		} else {
			tag[0] = TagPedersenEven
		}
		c.x.getB32(tag[1:])
		subTags[i] = tag
		msgBuf = append(msgBuf, tag[:]...)

		for k := 0; k < 4; k++ {
			seed := randomBlind(t)
			forgedS[i][k].setB32(seed)
		}
	}

	var adjustmentBytes [32]byte // forger has no blind to adjust; zero is as good as anything
	msgBuf = append(msgBuf, adjustmentBytes[:]...)

	// Exactly what a verifier's walk computes, but with an e0 the
	// forger is free to pick since nothing constrained the ring walk's
	// starting point to a real e0 yet.
	guessE0 := [32]byte{}
	finalX := make([][]byte, nDigits)
	for i := 0; i < nDigits; i++ {
		startE := ringStartChallenge(guessE0, i)
		fx, werr := ringVerifyWalk(i, pubkeyRings[i], forgedS[i][:], startE)
		if werr != nil {
			t.Fatal(werr)
		}
		finalX[i] = fx
	}
	e0Input := append([]byte(nil), msgBuf...)
	for i := 0; i < nDigits; i++ {
		e0Input = append(e0Input, finalX[i]...)
	}
	actualE0 := TaggedHash(borromeanE0Tag, e0Input)

	// The forger's guess almost certainly didn't match what the walk
	// produces, because the walk's own starting challenge now depends
	// on guessE0 - so there's no way to "solve backwards" for a
	// consistent e0 the way the old construction allowed.
	if actualE0 == guessE0 {
		t.Fatal("unexpected: forged e0 guess happened to close the ring (should be cryptographically infeasible)")
	}

	proof := append([]byte(nil), header.serialize()...)
	for i := 0; i < nDigits; i++ {
		proof = append(proof, subTags[i][:]...)
	}
	proof = append(proof, adjustmentBytes[:]...)
	proof = append(proof, guessE0[:]...)
	for i := 0; i < nDigits; i++ {
		for k := 0; k < 4; k++ {
			var sb [32]byte
			forgedS[i][k].getB32(sb[:])
			proof = append(proof, sb[:]...)
		}
	}

	if _, _, err := RangeproofVerify(nil, proof); err == nil {
		t.Fatal("forged range proof with no digit knowledge should not verify")
	}
}

package p256k1

import "sync"

// EcmultGenContext holds the precomputed blinding state used for
// generator-point multiplication (n*G). The actual scalar multiplication
// is delegated to the constant-time, GLV-split multiplier in glv.go; what
// this context adds on top is differential-power-analysis blinding: every
// call computes (n+blind)*G and then removes the blind by adding a
// precomputed -blind*G offset, so the scalar that actually reaches the
// multiplier varies from call to call even when the caller repeatedly
// signs with the same key.
type EcmultGenContext struct {
	built bool

	blindFactor Scalar
	initial     GroupElementJacobian // -blindFactor*G
}

// NewEcmultGenContext creates a generator-multiplication context with a
// zero blinding factor. Callers should call blind (directly, or via
// ContextRandomize) before using it for anything secret; ContextCreate
// does this automatically.
func NewEcmultGenContext() *EcmultGenContext {
	ctx := &EcmultGenContext{built: true}
	ctx.initial.setInfinity()
	return ctx
}

// blind reseeds the blinding factor from a 32-byte seed, hashing it down
// to a scalar and recomputing the compensating offset -blind*G. This is
// the operation ContextRandomize exposes to callers.
func (ctx *EcmultGenContext) blind(seed32 []byte) {
	digest := TaggedHash([]byte("ecmult_gen blind"), seed32)

	var b Scalar
	b.setB32(digest[:])
	if b.isZero() {
		b.setInt(1)
	}
	ctx.blindFactor = b

	var bg GroupElementJacobian
	ecmultConstGLV(&bg, &Generator, &b)
	ctx.initial.negate(&bg)
}

// clear zeroizes the context's blinding state.
func (ctx *EcmultGenContext) clear() {
	ctx.blindFactor.clear()
	ctx.initial.clear()
	ctx.built = false
}

// ecmultGen computes r = n*G, blinded against DPA.
func (ctx *EcmultGenContext) ecmultGen(r *GroupElementJacobian, n *Scalar) {
	if !ctx.built {
		panic("ecmult_gen context not built")
	}

	var blinded Scalar
	blinded.add(n, &ctx.blindFactor)

	var scaled GroupElementJacobian
	ecmultConstGLV(&scaled, &Generator, &blinded)

	r.addVar(&scaled, &ctx.initial)
}

// globalEcmultGenContext backs the package-level EcmultGen convenience
// function used by callers that do not carry their own Context (e.g.
// internal helpers in eckey.go and ecdsa.go). It is built and blinded
// once, on the first EcmultGen call (after package initialization has
// set Generator), and is safe for concurrent read-only use; it is never
// mutated afterward.
var (
	globalEcmultGenContext     *EcmultGenContext
	globalEcmultGenContextOnce sync.Once
)

// EcmultGen computes r = n*G using the package-level blinded context.
func EcmultGen(r *GroupElementJacobian, n *Scalar) {
	globalEcmultGenContextOnce.Do(func() {
		ctx := NewEcmultGenContext()
		var seed [32]byte
		ctx.blind(seed[:])
		globalEcmultGenContext = ctx
	})
	globalEcmultGenContext.ecmultGen(r, n)
}

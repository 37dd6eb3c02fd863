package netlist

// Expr is the surface process synthesis needs from expression synthesis.
// Full expression lowering (arithmetic, reductions, concatenation) lives
// with the elaborator; the pass itself only ever synthesizes an expression
// to a net and inspects constant shapes.
type Expr interface {
	// Synthesize lowers the expression to a net whose pins carry the
	// expression value. Returns nil when the expression cannot be
	// synthesized.
	Synthesize(des *Design) *Net
	// NexInput returns the nexa the expression reads.
	NexInput() *NexusSet
}

// EConst is a constant valued expression.
type EConst struct {
	scope *Scope
	val   Vector
}

// NewEConst creates a constant expression in scope.
func NewEConst(scope *Scope, val Vector) *EConst {
	return &EConst{scope: scope, val: val}
}

// Value returns the constant.
func (e *EConst) Value() Vector {
	return e.val
}

// Synthesize implements Expr by driving a fresh local wire from a Const
// device.
func (e *EConst) Synthesize(des *Design) *Net {
	sig := NewNet(e.scope, e.scope.LocalSymbol(), Wire, e.val.Len())
	sig.SetLocal(true)
	c := NewConst(e.scope, e.scope.LocalSymbol(), e.val)
	des.AddNode(c)
	for i := 0; i < e.val.Len(); i++ {
		Connect(sig.Pin(i), c.Pin(i))
	}
	return sig
}

// NexInput implements Expr; constants read nothing.
func (e *EConst) NexInput() *NexusSet {
	return &NexusSet{}
}

// ESignal is a direct reference to an elaborated net.
type ESignal struct {
	sig *Net
}

// NewESignal creates a reference to sig.
func NewESignal(sig *Net) *ESignal {
	return &ESignal{sig: sig}
}

// Sig returns the referenced net.
func (e *ESignal) Sig() *Net {
	return e.sig
}

// Synthesize implements Expr; a signal reference is already a net.
func (e *ESignal) Synthesize(des *Design) *Net {
	return e.sig
}

// NexInput implements Expr.
func (e *ESignal) NexInput() *NexusSet {
	set := &NexusSet{}
	for i := 0; i < e.sig.PinCount(); i++ {
		set.Add(e.sig.Pin(i).Nexus())
	}
	return set
}

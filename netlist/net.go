package netlist

// NetKind distinguishes how a net was declared in the source.
type NetKind int

const (
	Wire     NetKind = iota // Continuously driven.
	Reg                     // Procedurally assigned.
	Implicit                // Compiler generated connective tissue.
)

// Net is an indexed vector of pins owned by a scope. Each pin belongs to
// a nexus; a net is the named handle the rest of the compiler uses to talk
// about a group of electrically distinct bits.
type Net struct {
	LineInfo

	scope  *Scope
	name   string
	kind   NetKind
	pins   []*Pin
	local  bool
	toWire bool
}

// NewNet creates a net of the given width in scope.
func NewNet(scope *Scope, name string, kind NetKind, width int) *Net {
	n := &Net{
		scope: scope,
		name:  name,
		kind:  kind,
		pins:  make([]*Pin, width),
	}
	for i := range n.pins {
		n.pins[i] = &Pin{}
	}
	return n
}

// Name returns the net's name within its scope.
func (n *Net) Name() string {
	return n.name
}

// Scope returns the owning scope.
func (n *Net) Scope() *Scope {
	return n.scope
}

// Kind returns the declaration kind, honoring a completed reg to wire
// conversion.
func (n *Net) Kind() NetKind {
	return n.kind
}

// PinCount returns the width of the net.
func (n *Net) PinCount() int {
	return len(n.pins)
}

// Pin returns bit idx of the net.
func (n *Net) Pin(idx int) *Pin {
	return n.pins[idx]
}

// SetLocal marks the net as compiler generated so downstream passes can
// elide it from user visible output.
func (n *Net) SetLocal(local bool) {
	n.local = local
}

// Local reports whether the net is compiler generated.
func (n *Net) Local() bool {
	return n.local
}

// MarkWireOnRelease requests the deferred reg to wire conversion. A reg
// whose value ends up produced by structural logic becomes a wire, but
// only once the process that drove it is deleted so pending synthesis can
// keep treating it as a reg.
func (n *Net) MarkWireOnRelease() {
	n.toWire = true
}

// convertMarked performs the deferred conversion.
func (n *Net) convertMarked() {
	if n.toWire && n.kind == Reg {
		n.kind = Wire
	}
	n.toWire = false
}

// Release disconnects every pin of the net. The nexa the pins belonged to
// survive, so connections made through this net persist. Scoped temporary
// nets are released on every exit path of the frame that created them.
func (n *Net) Release() {
	for _, p := range n.pins {
		p.Unlink()
	}
}

package netlist

// Pin is a single electrical connection point. Pins belong to nets or to
// device nodes; connecting two pins merges their nexa so that electrical
// identity is transitive across the whole design.
type Pin struct {
	nex      *Nexus
	isDriver bool  // True for device output pins.
	isConst  bool  // True for pins driven by a Const device.
	cval     Value // The constant value when isConst is set.
}

// Nexus is the equivalence class of all pins that are electrically
// connected. A nexus always contains at least the pin it was created for.
type Nexus struct {
	pins []*Pin
}

// Nexus returns the pin's current equivalence class, creating a singleton
// class on first use.
func (p *Pin) Nexus() *Nexus {
	if p.nex == nil {
		p.nex = &Nexus{pins: []*Pin{p}}
	}
	return p.nex
}

// IsLinked reports whether the pin is connected to anything beyond itself.
func (p *Pin) IsLinked() bool {
	return p.nex != nil && len(p.nex.pins) > 1
}

// LinkedTo reports whether both pins share a nexus.
func (p *Pin) LinkedTo(q *Pin) bool {
	return p.nex != nil && p.nex == q.nex
}

// Unlink removes the pin from its nexus. The remaining pins of the class
// stay connected to each other.
func (p *Pin) Unlink() {
	if p.nex == nil {
		return
	}
	nex := p.nex
	for i, q := range nex.pins {
		if q == p {
			nex.pins = append(nex.pins[:i], nex.pins[i+1:]...)
			break
		}
	}
	p.nex = nil
}

// Connect merges the nexa of two pins. Connecting pins that already share
// a nexus is a no-op.
func Connect(a, b *Pin) {
	na := a.Nexus()
	nb := b.Nexus()
	if na == nb {
		return
	}
	// Fold the smaller class into the larger one.
	if len(na.pins) < len(nb.pins) {
		na, nb = nb, na
	}
	for _, p := range nb.pins {
		p.nex = na
	}
	na.pins = append(na.pins, nb.pins...)
	nb.pins = nil
}

// ConnectNexus joins a pin into an existing equivalence class.
func ConnectNexus(p *Pin, n *Nexus) {
	if len(n.pins) == 0 {
		return
	}
	Connect(p, n.pins[0])
}

// Driven reports whether any driver pin is present on the nexus.
func (n *Nexus) Driven() bool {
	for _, p := range n.pins {
		if p.isDriver {
			return true
		}
	}
	return false
}

// DriversConstant reports whether every driver on the nexus is a constant.
// A nexus with no drivers at all is vacuously constant and reads as z.
func (n *Nexus) DriversConstant() bool {
	for _, p := range n.pins {
		if p.isDriver && !p.isConst {
			return false
		}
	}
	return true
}

// DrivenValue resolves the constant drivers of the nexus into a single
// value. With no drivers the result is z; conflicting drivers resolve to x.
func (n *Nexus) DrivenValue() Value {
	out := Vz
	for _, p := range n.pins {
		if p.isConst {
			out = resolve(out, p.cval)
		}
	}
	return out
}

// NexusSet is an ordered set of nexa. Statements report their input and
// output footprints as sets; the ordering gives each output a stable bit
// position for the lifetime of one recursion frame.
type NexusSet struct {
	nexa []*Nexus
}

// Add appends a nexus unless it is already a member.
func (s *NexusSet) Add(n *Nexus) {
	for _, m := range s.nexa {
		if m == n {
			return
		}
	}
	s.nexa = append(s.nexa, n)
}

// AddSet merges every member of o into s.
func (s *NexusSet) AddSet(o *NexusSet) {
	if o == nil {
		return
	}
	for _, n := range o.nexa {
		s.Add(n)
	}
}

// Count returns the number of members.
func (s *NexusSet) Count() int {
	return len(s.nexa)
}

// At returns member idx.
func (s *NexusSet) At(idx int) *Nexus {
	return s.nexa[idx]
}

// Contains reports whether every member of sub is also a member of s.
func (s *NexusSet) Contains(sub *NexusSet) bool {
	if sub == nil {
		return true
	}
	for _, n := range sub.nexa {
		found := false
		for _, m := range s.nexa {
			if m == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

package netlist

import "github.com/pkg/errors"

// Memory is a register array. Synthesis cannot keep the array abstraction;
// an addressed write explodes the memory into a flat reg vector whose bits
// become ordinary DFF outputs behind a decoder or demux.
type Memory struct {
	scope    *Scope
	name     string
	width    int
	count    int
	exploded *Net
	lrefs    int
}

// NewMemory creates a count x width memory in scope.
func NewMemory(scope *Scope, name string, width, count int) (*Memory, error) {
	if width < 1 {
		return nil, errors.Errorf("memory %s: invalid width %d", name, width)
	}
	if count < 1 {
		return nil, errors.Errorf("memory %s: invalid word count %d", name, count)
	}
	return &Memory{scope: scope, name: name, width: width, count: count}, nil
}

// Name returns the memory's name.
func (m *Memory) Name() string { return m.name }

// Width returns the word width.
func (m *Memory) Width() int { return m.width }

// Count returns the number of words.
func (m *Memory) Count() int { return m.count }

// ExplodeToReg flattens the memory to a count x width reg vector. The
// explosion is idempotent; repeated calls return the same net so every
// user of the memory shares one set of bit nexa.
func (m *Memory) ExplodeToReg() *Net {
	if m.exploded == nil {
		m.exploded = NewNet(m.scope, m.name+"_bits", Reg, m.width*m.count)
	}
	return m.exploded
}

// RegFromExplode returns the exploded vector or nil if ExplodeToReg has
// not run.
func (m *Memory) RegFromExplode() *Net {
	return m.exploded
}

// IndexToAddress maps a source level word index to the linear word
// address inside the exploded vector.
func (m *Memory) IndexToAddress(idx int) int {
	return idx
}

// IncrLref counts one more l-value reference to the exploded memory.
func (m *Memory) IncrLref() {
	m.lrefs++
}

// Lrefs returns the l-value reference count.
func (m *Memory) Lrefs() int {
	return m.lrefs
}

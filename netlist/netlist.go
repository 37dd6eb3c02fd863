// Package netlist defines the elaborated design graph that process
// synthesis runs over: 4-state values, nets of pins joined through nexa,
// the primitive device library (DFF, MUX, DEMUX, DECODE, gates, case
// comparators, constants), behavioral statement trees and the Design
// container that owns all of it.
package netlist

import (
	"fmt"

	"github.com/pkg/errors"
)

// LineInfo carries the source location a statement or device was
// elaborated from. It feeds every diagnostic the compiler prints.
type LineInfo struct {
	File string
	Line int
}

// Loc renders the location in the standard "<file>:<line>" diagnostic form.
func (l LineInfo) Loc() string {
	if l.File == "" {
		return "<no file>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// SetLine copies the location from another carrier. Devices synthesized
// for a statement take that statement's location.
func (l *LineInfo) SetLine(from LineInfo) {
	*l = from
}

// Where returns the carrier itself. Embedders promote this so any
// statement or device can hand its location to another carrier.
func (l LineInfo) Where() LineInfo {
	return l
}

// Scope is one level of design hierarchy. It names the nets and devices
// created under it and carries elaboration attributes.
type Scope struct {
	name    string
	parent  *Scope
	attrs   map[string]string
	nextSym int
}

// NewScope creates a scope under parent. A nil parent makes a root scope.
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		name:   name,
		parent: parent,
		attrs:  make(map[string]string),
	}
}

// Name returns the scope's base name.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the enclosing scope or nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// LocalSymbol generates a compiler temporary name unique within the scope.
func (s *Scope) LocalSymbol() string {
	name := fmt.Sprintf("_s%d", s.nextSym)
	s.nextSym++
	return name
}

// SetAttr attaches an elaboration attribute to the scope.
func (s *Scope) SetAttr(name, val string) {
	s.attrs[name] = val
}

// Attr returns the named attribute or "" when unset.
func (s *Scope) Attr(name string) string {
	return s.attrs[name]
}

// Node is a structural device owned by a design.
type Node interface {
	// Name returns the instance name within its scope.
	Name() string
	// Scope returns the owning scope.
	Scope() *Scope
	// Loc returns the source location for diagnostics.
	Loc() string
	// Pins returns every pin of the device so a design can unlink it
	// wholesale on removal.
	Pins() []*Pin
}

// Design is the root container. It owns the structural nodes and the
// behavioral processes, counts the errors reported against it and holds
// the per invocation flag table.
type Design struct {
	// Errors counts the diagnostics reported against the design. The
	// caller decides the process exit code from it.
	Errors int

	nodes []Node
	procs []*ProcTop
	flags map[string]string
}

// NewDesign returns an empty design.
func NewDesign() *Design {
	return &Design{flags: make(map[string]string)}
}

// AddNode transfers ownership of a structural device to the design.
func (d *Design) AddNode(n Node) {
	d.nodes = append(d.nodes, n)
}

// DelNode removes a device from the design and unlinks all of its pins.
// Removing a node the design does not own is an error.
func (d *Design) DelNode(n Node) error {
	for i, m := range d.nodes {
		if m == n {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			for _, p := range n.Pins() {
				p.Unlink()
			}
			return nil
		}
	}
	return errors.Errorf("node %s not owned by design", n.Name())
}

// Nodes returns the devices currently owned by the design.
func (d *Design) Nodes() []Node {
	return d.nodes
}

// AddProcess appends a behavioral process to the design.
func (d *Design) AddProcess(p *ProcTop) {
	d.procs = append(d.procs, p)
}

// DeleteProcess removes a successfully synthesized process and performs
// the deferred reg to wire conversion for every net the process marked.
func (d *Design) DeleteProcess(p *ProcTop) error {
	for i, q := range d.procs {
		if q == p {
			d.procs = append(d.procs[:i], d.procs[i+1:]...)
			p.releaseMarked()
			return nil
		}
	}
	return errors.Errorf("process at %s not owned by design", p.Loc())
}

// Processes returns the processes still attached to the design.
func (d *Design) Processes() []*ProcTop {
	return d.procs
}

// EachProcess visits every process. The snapshot makes it safe for the
// visitor to delete the process it is handed.
func (d *Design) EachProcess(f func(*ProcTop)) {
	snapshot := make([]*ProcTop, len(d.procs))
	copy(snapshot, d.procs)
	for _, p := range snapshot {
		f(p)
	}
}

// SetFlag sets a per invocation configuration flag.
func (d *Design) SetFlag(name, val string) {
	d.flags[name] = val
}

// GetFlag returns a configuration flag or "" when unset.
func (d *Design) GetFlag(name string) string {
	return d.flags[name]
}

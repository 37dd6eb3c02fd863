// Package synth lowers behavioral processes onto structural logic. Each
// synthesizable process is replaced by multiplexers, decoders, flip-flop
// banks and gates wired through the nexa of the existing netlist, then
// deleted from the design. Processes that cannot be synthesized are left
// in place with diagnostics counted against the design.
package synth

import (
	"strconv"

	"github.com/jmchacon/netsynth/netlist"
	"github.com/pkg/errors"
)

// Def defines a synthesis pass.
type Def struct {
	// Design is the elaborated design to run over.
	Design *netlist.Design
}

// Synth is one configured invocation of the pass.
type Synth struct {
	des   *netlist.Design
	debug int // Debug level from the ivl-synth2-debug design flag.
}

// Init returns a pass bound to the given design.
func Init(def *Def) (*Synth, error) {
	if def == nil || def.Design == nil {
		return nil, errors.Errorf("synth: no design given")
	}
	s := &Synth{des: def.Design}
	if v := def.Design.GetFlag("ivl-synth2-debug"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "synth: bad ivl-synth2-debug value %q", v)
		}
		s.debug = d
	}
	return s, nil
}

// Run visits every process in the design and synthesizes the ones that
// have a synthesizable shape.
func (s *Synth) Run() {
	s.des.EachProcess(s.process)
}

// attrSet reports a numeric attribute that is present and nonzero.
func attrSet(val string) bool {
	return val != "" && val != "0"
}

// process classifies one process and runs the matching lowering.
func (s *Synth) process(top *netlist.ProcTop) {
	if attrSet(top.Attr("ivl_synthesis_off")) {
		return
	}

	// A cell attribute on the containing scope means the scope is a hand
	// instantiated cell; leave its processes alone.
	if top.Scope().Attr("ivl_synthesis_cell") != "" {
		return
	}

	if top.IsSynchronous() {
		if !s.processSync(top) {
			s.errorf(top.Loc(), "Unable to synthesize synchronous process.")
			return
		}
		s.deleteProcess(top)
		return
	}

	if !top.IsAsynchronous() {
		synthError := false
		if attrSet(top.Attr("ivl_combinational")) {
			s.errorf(top.Loc(), "Process is marked combinational, but isn't really.")
			synthError = true
		}
		if attrSet(top.Attr("ivl_synthesis_on")) {
			s.errorf(top.Loc(), "Process is marked for synthesis, but I can't do it.")
			synthError = true
		}
		if !synthError {
			s.warnf(top.Loc(), "Process not synthesized.")
		}
		return
	}

	if !s.processAsync(top) {
		s.errorf(top.Loc(), "Asynchronous process cannot be synthesized.")
		return
	}

	s.deleteProcess(top)
}

func (s *Synth) deleteProcess(top *netlist.ProcTop) {
	if err := s.des.DeleteProcess(top); err != nil {
		s.internalf(top.Loc(), "%v", err)
	}
}

// findNexusInSet locates the position of a nexus within a mapping net.
// Returns the pin count when the nexus is not present, as a sentinel the
// callers bound check against.
func findNexusInSet(nset *netlist.Net, nex *netlist.Nexus) int {
	for idx := 0; idx < nset.PinCount(); idx++ {
		if nset.Pin(idx).Nexus() == nex {
			return idx
		}
	}
	return nset.PinCount()
}

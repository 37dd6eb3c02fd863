package synth

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/jmchacon/netsynth/netlist"
)

// dumpConf bounds spew output so a nexus laden frame doesn't expand the
// whole design graph through its connectivity pointers.
var dumpConf = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, DisableCapacities: true}

// debugEnter traces entry into a lowering method when the
// ivl-synth2-debug flag is set. Level 2 and above dumps the statement.
func (s *Synth) debugEnter(class string, st netlist.Proc) {
	if s.debug < 1 {
		return
	}
	fmt.Fprintf(diagOut, "%s: debug: Enter %s\n", st.Loc(), class)
	if s.debug >= 2 {
		fmt.Fprint(diagOut, dumpConf.Sdump(st))
	}
}

// debugExit traces the result on the way out.
func (s *Synth) debugExit(class string, st netlist.Proc, flag bool) {
	if s.debug < 1 {
		return
	}
	fmt.Fprintf(diagOut, "%s: debug: Exit %s, result %t\n", st.Loc(), class, flag)
}

// debugf prints a freeform debug line at level 1.
func (s *Synth) debugf(loc, format string, args ...interface{}) {
	if s.debug < 1 {
		return
	}
	fmt.Fprintf(diagOut, "%s: debug: %s\n", loc, fmt.Sprintf(format, args...))
}

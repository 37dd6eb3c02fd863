package synth

import "github.com/jmchacon/netsynth/netlist"

// syncCell is the per output bit record of which DFF instance currently
// owns the bit and at which pin. The slice of cells handed down the sync
// recursion is the single source of truth for flip-flop ownership; any FF
// that stops appearing in it is garbage and must be removed from the
// design. All bits owned by one physical FF share the same ff pointer.
type syncCell struct {
	ff   *netlist.FF
	pin  int
	proc netlist.Proc // The statement subtree that introduced the FF.
}

// mergeFFSlices reconciles two FF slices that cover disjoint bits of one
// logical register. Control inputs that are per slice (Enable) are pulled
// from ff2 onto ff1; inputs that must agree (Aset, Aclr) are checked for
// conflicts across the two.
func (s *Synth) mergeFFSlices(ff2, ff1 *netlist.FF) bool {
	// Pre-existing Asets are carried forward by block slicing, so both
	// slices defining an Aset from different nets is a real conflict.
	if ff1.PinAset().IsLinked() && ff2.PinAset().IsLinked() &&
		!ff1.PinAset().LinkedTo(ff2.PinAset()) {
		s.errorf(ff2.Loc(), "DFF Aset conflicts with %s.", ff1.Loc())
		return false
	}

	if ff1.PinAclr().IsLinked() && ff2.PinAclr().IsLinked() &&
		!ff1.PinAclr().LinkedTo(ff2.PinAclr()) {
		s.errorf(ff2.Loc(), "DFF Aclr conflicts with %s.", ff1.Loc())
		return false
	}

	if ff2.PinEnable().IsLinked() {
		netlist.Connect(ff1.PinEnable(), ff2.PinEnable())
	}

	return true
}

// testFFSetClr reports whether any FF in the accounting run already uses
// a synchronous set or clear. Only one of Sset/Sclr is allowed per FF, so
// a second inference must not be attempted.
func testFFSetClr(nexFF []syncCell, bits int) bool {
	for idx := 0; idx < bits; idx++ {
		ff := nexFF[idx].ff
		if ff.PinSset().IsLinked() {
			return true
		}
		if ff.PinSclr().IsLinked() {
			return true
		}
	}
	return false
}

// sweepOrphan deletes ff1 if it no longer owns any bit in the accounting
// run of width bits. Called after a slice update displaces a baseline FF.
func (s *Synth) sweepOrphan(nexFF []syncCell, width int, ff1 *netlist.FF) {
	for scan := 0; scan < width; scan++ {
		if nexFF[scan].ff == ff1 {
			return
		}
	}
	if err := s.des.DelNode(ff1); err != nil {
		s.internalf(ff1.Loc(), "%v", err)
	}
}

package synth

import "github.com/jmchacon/netsynth/netlist"

// Synchronous lowering feeds a DFF bank. The nex_map handed down is the
// bank's Q side (the process outputs), nex_out its D side. The events
// slice carries the edge probes not yet accounted for; the clock is
// consumed first, asynchronous set/reset probes are consumed by
// conditionals on the way down.

// synthSync dispatches on the statement variant. Statements without a
// synchronous special case are the data path into the bank and lower
// combinationally with DFF feedback allowed.
func (s *Synth) synthSync(scope *netlist.Scope, st netlist.Proc,
	nexFF []syncCell, nexMap, nexOut *netlist.Net, eventsIn []*netlist.EvProbe) bool {
	switch st := st.(type) {
	case *netlist.Block:
		return s.syncBlock(scope, st, nexFF, nexMap, nexOut, eventsIn)
	case *netlist.Condit:
		return s.syncCondit(scope, st, nexFF, nexMap, nexOut, eventsIn)
	case *netlist.Assign:
		return s.syncAssign(scope, st, nexFF, nexMap, nexOut)
	case *netlist.EvWait:
		return s.syncEvWait(scope, st, nexFF, nexMap, nexOut, eventsIn)
	default:
		return s.synthAsyncNoaccum(scope, st, true, nexFF, nexMap, nexOut)
	}
}

// syncEvWait handles the event control at the surface of a synchronous
// process. Exactly one probe must be the clock: the edge whose net the
// body never reads. Every other edge probe is a candidate asynchronous
// set/reset and is passed down.
func (s *Synth) syncEvWait(scope *netlist.Scope, w *netlist.EvWait,
	nexFF []syncCell, nexMap, nexOut *netlist.Net, eventsIn []*netlist.EvProbe) bool {
	s.debugEnter("EvWait.synthSync", w)

	if len(eventsIn) > 0 {
		s.errorf(w.Loc(), "Events are unaccounted for in process synthesis.")
		s.debugExit("EvWait.synthSync", w, false)
		return false
	}

	// This can't be other than one unless there are named events, which
	// cannot be synthesized.
	if len(w.Events) != 1 {
		s.errorf(w.Loc(), "Cannot synthesize multiple event controls or named events.")
		s.debugExit("EvWait.synthSync", w, false)
		return false
	}
	ev := w.Events[0]
	if len(ev.Probes) < 1 {
		s.internalf(w.Loc(), "Event with no probes.")
		return false
	}

	statementInput := w.Stmt.NexInput()

	// Search for the clock input: the edge event that is not also an
	// input of the substatement.
	var pclk *netlist.EvProbe
	var events []*netlist.EvProbe
	for _, probe := range ev.Probes {
		tmpNex := &netlist.NexusSet{}
		tmpNex.Add(probe.Pin().Nexus())

		if !statementInput.Contains(tmpNex) {
			if pclk != nil {
				s.errorf(w.Loc(), "Too many clocks for synchronous logic.")
				s.hintf(w.Loc(), "Perhaps an asynchronous set/reset is misused?")
			}
			pclk = probe
		} else {
			events = append(events, probe)
		}
	}

	if pclk == nil {
		s.errorf(w.Loc(), "None of the edges are valid clock inputs.")
		s.hintf(w.Loc(), "Perhaps the clock is read by a statement or expression?")
		s.debugExit("EvWait.synthSync", w, false)
		return false
	}

	// Clock every bank in the accounting run. A negative edge becomes a
	// polarity attribute on the FF rather than an inverter.
	base := 0
	for base < nexMap.PinCount() {
		ff := nexFF[base].ff
		wid := ff.Width()
		if base+wid > nexMap.PinCount() {
			s.internalf(w.Loc(), "DFF bank at bit %d overruns the output set.", base)
			return false
		}

		netlist.Connect(ff.PinClock(), pclk.Pin())
		if pclk.Edge == netlist.NegEdge {
			ff.SetAttr("ivl:clock_polarity", "INVERT")
		}

		base += wid
	}

	flag := s.synthSync(scope, w.Stmt, nexFF, nexMap, nexOut, events)

	s.debugExit("EvWait.synthSync", w, flag)
	return flag
}

// syncBlock splits a begin/end block near the surface of a synchronous
// process into a DFF bank per statement, because the statements may each
// infer different reset and enable signals. The slices are merged back
// bit by bit afterwards.
func (s *Synth) syncBlock(scope *netlist.Scope, b *netlist.Block,
	nexFF []syncCell, nexMap, nexOut *netlist.Net, eventsIn []*netlist.EvProbe) bool {
	if len(b.Stmts) == 0 {
		return true
	}

	// This region must still be a single DFF; slicing starts here.
	for idx := 1; idx < nexOut.PinCount(); idx++ {
		if nexFF[idx].ff != nexFF[0].ff {
			s.internalf(b.Loc(), "Block lowering expects an unsliced DFF bank.")
			return false
		}
	}

	ff := nexFF[0].ff
	if ff.Width() != nexOut.PinCount() {
		s.internalf(b.Loc(), "DFF width %d does not match output count %d.",
			ff.Width(), nexOut.PinCount())
		return false
	}
	blockWidth := nexOut.PinCount()

	flag := true

	for _, cur := range b.Stmts {
		// Narrow map/out pair for this statement's own outputs.
		tmpSet := &netlist.NexusSet{}
		cur.NexOutput(tmpSet)
		tmpMap := netlist.NewNet(scope, "tmp1", netlist.Wire, tmpSet.Count())
		for idx := 0; idx < tmpMap.PinCount(); idx++ {
			netlist.ConnectNexus(tmpMap.Pin(idx), tmpSet.At(idx))
		}

		// NOTE: tmpSet is stale after synthesis starts connecting
		// pins; use tmpMap from here on.

		tmpOut := netlist.NewNet(scope, "tmp2", netlist.Wire, tmpMap.PinCount())

		tmpAset := ff.AsetValue()
		tmpSset := ff.SsetValue()

		// A fresh narrow DFF takes this slice of the block. Its Data
		// pins pair with tmpOut and its control lines are pulled
		// forward from the wide FF.
		ff2 := netlist.NewFF(scope, scope.LocalSymbol(), tmpOut.PinCount())
		ff2.SetLine(cur.Where())
		s.des.AddNode(ff2)

		tmpFF := make([]syncCell, ff2.Width())

		asetValue2 := netlist.NewVector(ff2.Width(), netlist.V1)
		ssetValue2 := netlist.NewVector(ff2.Width(), netlist.V1)
		for idx := 0; idx < ff2.Width(); idx++ {
			ptr := findNexusInSet(nexMap, tmpMap.Pin(idx).Nexus())

			// Project the set/clear value bits onto the slice.
			if ptr < tmpAset.Len() {
				asetValue2.Set(idx, tmpAset.Get(ptr))
			}
			if ptr < tmpSset.Len() {
				ssetValue2.Set(idx, tmpSset.Get(ptr))
			}

			netlist.Connect(tmpOut.Pin(idx), ff2.PinData(idx))
			tmpFF[idx] = syncCell{ff: ff2, pin: idx, proc: cur}
		}

		if ff.PinAclr().IsLinked() {
			netlist.Connect(ff.PinAclr(), ff2.PinAclr())
		}
		if ff.PinAset().IsLinked() {
			netlist.Connect(ff.PinAset(), ff2.PinAset())
		}
		if ff.PinSclr().IsLinked() {
			netlist.Connect(ff.PinSclr(), ff2.PinSclr())
		}
		if ff.PinSset().IsLinked() {
			netlist.Connect(ff.PinSset(), ff2.PinSset())
		}
		if ff.PinClock().IsLinked() {
			netlist.Connect(ff.PinClock(), ff2.PinClock())
		}
		if ff.PinEnable().IsLinked() {
			netlist.Connect(ff.PinEnable(), ff2.PinEnable())
		}

		// Store the projected set value. An all-zero set with only the
		// set input in use is really a clear; the simpler cell wins.
		if tmpAset.Len() == ff.Width() {
			if asetValue2.IsZero() && ff2.PinAset().IsLinked() && !ff2.PinAclr().IsLinked() {
				ff2.PinAset().Unlink()
				netlist.Connect(ff2.PinAclr(), ff.PinAset())
			} else {
				ff2.SetAsetValue(asetValue2)
			}
		}

		if tmpSset.Len() == ff.Width() {
			if ssetValue2.IsZero() && ff2.PinSset().IsLinked() && !ff2.PinSclr().IsLinked() {
				ff2.PinSset().Unlink()
				netlist.Connect(ff2.PinSclr(), ff.PinSset())
			} else {
				ff2.SetSsetValue(ssetValue2)
			}
		}

		okFlag := s.synthSync(scope, cur, tmpFF, tmpMap, tmpOut, eventsIn)
		flag = flag && okFlag

		if !okFlag {
			tmpMap.Release()
			tmpOut.Release()
			continue
		}

		// Lift the slice back into the block's accounting. It is
		// occasionally possible to have outputs beyond the input set,
		// for example when the l-value of an assignment is smaller
		// than the r-value; those are skipped.
		for idx := 0; idx < tmpOut.PinCount(); idx++ {
			// The child synthesis may have split or replaced its
			// FF; the accounting cells have the current owner.
			ff2 := tmpFF[idx].ff
			ff2Pin := tmpFF[idx].pin
			ptr := findNexusInSet(nexMap, tmpMap.Pin(idx).Nexus())

			if ptr >= nexOut.PinCount() {
				continue
			}

			// The baseline DFF currently holding this bit slice.
			ff1 := nexFF[ptr].ff
			ff1Pin := nexFF[ptr].pin

			netlist.Connect(ff1.PinData(ff1Pin), ff2.PinData(ff2Pin))
			netlist.Connect(ff1.PinQ(ff1Pin), ff2.PinQ(ff2Pin))

			// Bring the non-sliced control bits forward from the
			// baseline and check for set/reset conflicts.
			if !s.mergeFFSlices(ff2, ff1) {
				flag = false
			}

			nexFF[ptr] = tmpFF[idx]

			// The displaced baseline may now be unreferenced. The
			// original wide FF is handled at the end instead.
			if ff1 != ff {
				s.sweepOrphan(nexFF, ff.Width(), ff1)
			}
		}

		tmpMap.Release()
		tmpOut.Release()
	}

	if !flag {
		return false
	}

	// The wide FF has been taken up by the narrow slices.
	if err := s.des.DelNode(ff); err != nil {
		s.internalf(b.Loc(), "%v", err)
		return false
	}

	// One more pass over the accounting to make sure every data input
	// was actually connected by some statement of the block.
	for idx := 0; idx < blockWidth; idx++ {
		if nexFF[idx].proc == nil {
			continue
		}

		ff2 := nexFF[idx].ff
		if ff2 == nil {
			continue
		}
		pin := nexFF[idx].pin

		if pin >= ff2.Width() {
			s.internalf(ff2.Loc(), "Pin %d out of range of %d bit DFF.", pin, ff2.Width())
			flag = false
		} else if !ff2.PinData(pin).IsLinked() {
			s.errorf(ff2.Loc(), "DFF introduced here is missing Data %d input.", pin)
			flag = false
		}
	}

	return flag
}

// syncCondit handles a conditional near the surface of a synchronous
// process. The conditional is an asynchronous set/reset if the condition
// reads an edge probe, a synchronous set/reset if the true clause is
// constant and an else clause is present, a clock enable if the else
// clause is absent, and otherwise an ordinary combinational mux into the
// bank.
func (s *Synth) syncCondit(scope *netlist.Scope, c *netlist.Condit,
	nexFF []syncCell, nexMap, nexOut *netlist.Net, eventsIn []*netlist.EvProbe) bool {
	exprInput := c.Expr.NexInput()

	for idx, ev := range eventsIn {
		pinSet := &netlist.NexusSet{}
		pinSet.Add(ev.Pin().Nexus())

		if !exprInput.Contains(pinSet) {
			continue
		}

		// Taking this as an asynchronous set/clear requires every
		// input of the condition to be asynchronous too.
		if !pinSet.Contains(exprInput) {
			tmpSet := &netlist.NexusSet{}
			tmpSet.Add(ev.Pin().Nexus())
			for _, evTmp := range eventsIn[idx+1:] {
				tmpSet.Add(evTmp.Pin().Nexus())
			}

			if !tmpSet.Contains(exprInput) {
				s.errorf(c.Loc(), "Condition expression mixes synchronous and asynchronous inputs.")
			}
		}

		// This edge is in the sensitivity list for the expression, so
		// it is an asynchronous input.
		rst := c.Expr.Synthesize(s.des)
		if rst == nil || rst.PinCount() != 1 {
			s.errorf(c.Loc(), "Set/reset condition must synthesize to a single bit.")
			return false
		}

		// The accounting must still be a single FF at this point.
		for bit := 1; bit < nexOut.PinCount(); bit++ {
			if nexFF[bit].ff != nexFF[0].ff {
				s.internalf(c.Loc(), "Asynchronous set/reset over a sliced DFF bank.")
				return false
			}
		}
		ff := nexFF[0].ff

		if c.If == nil {
			s.errorf(c.Loc(), "Asynchronous set/reset is missing its true clause.")
			return false
		}

		// Synthesize the true clause to find out what kind of
		// set/reset this is.
		asig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
		asig.SetLocal(true)

		flag := s.synthAsyncNoaccum(scope, c.If, true, nexFF, nexMap, asig)
		if !flag {
			asig.Release()
			return false
		}

		// Collect the reset pattern. All zeros means the Aclr input;
		// anything else uses Aset with the stored pattern. Bits the
		// clause leaves at z get no reset at all and are split off.
		tmp := netlist.NewVector(ff.Width(), netlist.V0)
		countZ := 0
		countX := 0
		for bit := 0; bit < ff.Width(); bit++ {
			nex := asig.Pin(bit).Nexus()
			if !nex.DriversConstant() {
				s.internalf(c.Loc(), "Set/reset value for bit %d is not constant.", bit)
				asig.Release()
				return false
			}
			val := nex.DrivenValue()
			tmp.Set(bit, val)

			switch val {
			case netlist.Vz:
				countZ++
			case netlist.Vx:
				countX++
			}
		}

		if countX > 0 {
			s.internalf(c.Loc(), "True clause returns constant 'bx values which are not plausible for set/reset.")
			asig.Release()
			return false
		}

		if countZ > 0 {
			if countZ >= ff.Width() {
				s.internalf(c.Loc(), "Set/reset clause assigns no bits at all.")
				asig.Release()
				return false
			}

			// Split the FF into a pair: one with the reset, one
			// without.
			ff1 := netlist.NewFF(scope, ff.Name(), ff.Width()-countZ)
			ffz := netlist.NewFF(scope, scope.LocalSymbol(), countZ)
			ff1.SetLine(c.Where())
			ffz.SetLine(c.Where())
			s.des.AddNode(ff1)
			s.des.AddNode(ffz)
			netlist.Connect(ff.PinClock(), ff1.PinClock())
			netlist.Connect(ff.PinClock(), ffz.PinClock())

			tmp1 := netlist.NewVector(ff1.Width(), netlist.V0)
			bit1 := 0
			bitz := 0
			for bit := 0; bit < ff.Width(); bit++ {
				if tmp.Get(bit) == netlist.Vz {
					netlist.Connect(ffz.PinQ(bitz), ff.PinQ(bit))
					netlist.Connect(ffz.PinData(bitz), ff.PinData(bit))
					nexFF[bit].ff = ffz
					nexFF[bit].pin = bitz
					bitz++
				} else {
					netlist.Connect(ff1.PinQ(bit1), ff.PinQ(bit))
					netlist.Connect(ff1.PinData(bit1), ff.PinData(bit))
					nexFF[bit].ff = ff1
					nexFF[bit].pin = bit1
					tmp1.Set(bit1, tmp.Get(bit))
					bit1++
				}
			}

			if err := s.des.DelNode(ff); err != nil {
				s.internalf(c.Loc(), "%v", err)
				return false
			}
			ff = ff1
			tmp = tmp1
		}

		if tmp.IsZero() {
			netlist.Connect(ff.PinAclr(), rst.Pin(0))
		} else {
			netlist.Connect(ff.PinAset(), rst.Pin(0))
			ff.SetAsetValue(tmp)
		}

		asig.Release()

		if c.Else == nil {
			// No else clause means no data input for the DFF yet.
			// The data input may be given later in an enclosing
			// block, so don't report an error quite yet.
			return true
		}

		// The consumed probe drops out of the event list.
		eventsTmp := make([]*netlist.EvProbe, 0, len(eventsIn)-1)
		for tmpIdx, e := range eventsIn {
			if tmpIdx == idx {
				continue
			}
			eventsTmp = append(eventsTmp, e)
		}

		return s.synthSync(scope, c.Else, nexFF, nexMap, nexOut, eventsTmp) && flag
	}

	if c.If == nil {
		s.errorf(c.Loc(), "Condition statement is missing its true clause.")
		return false
	}

	// Not asynchronous: the condition is not in the sensitivity list.
	// If the true clause has no inputs at all (pure constants) this can
	// still be a synchronous set/reset, provided neither Sset nor Sclr
	// is already taken; only one of them is allowed per FF.
	aSet := c.If.NexInput()
	if aSet.Count() == 0 && c.Else != nil && !testFFSetClr(nexFF, nexMap.PinCount()) {
		if done, flag := s.syncSetClr(scope, c, nexFF, nexMap, nexOut); done {
			return flag
		}
	}

	// A full if/then/else is likely a combinational mux feeding the
	// data input; synthesize it that way.
	if c.Else != nil {
		return s.synthAsyncNoaccum(scope, c, true, nexFF, nexMap, nexOut)
	}

	// What's left is a clock enable: if (expr) <statement>;
	ce := c.Expr.Synthesize(s.des)
	if ce == nil || ce.PinCount() != 1 {
		s.errorf(c.Loc(), "Clock enable condition must synthesize to a single bit.")
		return false
	}

	s.connectEnableRange(scope, nexFF, nexMap.PinCount(), ce)

	return s.synthSync(scope, c.If, nexFF, nexMap, nexOut, eventsIn)
}

// syncSetClr attempts the synchronous set/reset lowering. The first
// return is false when the shape doesn't hold and the caller should fall
// back to general synthesis.
func (s *Synth) syncSetClr(scope *netlist.Scope, c *netlist.Condit,
	nexFF []syncCell, nexMap, nexOut *netlist.Net) (bool, bool) {
	rst := c.Expr.Synthesize(s.des)
	if rst == nil || rst.PinCount() != 1 {
		s.errorf(c.Loc(), "Set/reset condition must synthesize to a single bit.")
		return true, false
	}

	asig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
	asig.SetLocal(true)
	defer asig.Release()

	if !s.synthAsyncNoaccum(scope, c.If, true, nexFF, nexMap, asig) {
		// This path leads nowhere; let the general lowering report.
		return false, false
	}

	nbits := nexMap.PinCount()
	tmp := netlist.NewVector(nbits, netlist.V0)
	for bit := 0; bit < nbits; bit++ {
		nex := asig.Pin(bit).Nexus()
		if !nex.DriversConstant() {
			return false, false
		}
		tmp.Set(bit, nex.DrivenValue())
	}

	if !s.connectSetClrRange(c, nexFF, nbits, rst, tmp) {
		return false, false
	}

	return true, s.synthSync(scope, c.Else, nexFF, nexMap, nexOut, nil)
}

// connectSetClrRange wires a synchronous set or clear across every FF
// bank in the accounting run. Returns false when the collected value is
// not fully defined and the caller must fall back on general synthesis.
func (s *Synth) connectSetClrRange(c *netlist.Condit, nexFF []syncCell,
	bits int, rst *netlist.Net, val netlist.Vector) bool {
	if !val.IsDefined() {
		s.debugf(c.Loc(), "Give up on set/clr synthesis, since r-value = %s", val)
		return false
	}

	base := 0
	for base < bits {
		ff := nexFF[base].ff
		wid := ff.Width()
		if base+wid > bits {
			s.internalf(c.Loc(), "DFF bank at bit %d overruns the output set.", base)
			return false
		}

		tmp := netlist.NewVector(wid, netlist.V0)
		for idx := 0; idx < wid; idx++ {
			if nexFF[base+idx].ff != ff {
				s.internalf(c.Loc(), "Split DFF bank inside a set/clr range.")
				return false
			}
			tmp.Set(idx, val.Get(base+idx))
		}

		if tmp.IsZero() {
			netlist.Connect(ff.PinSclr(), rst.Pin(0))
		} else {
			netlist.Connect(ff.PinSset(), rst.Pin(0))
			ff.SetSsetValue(tmp)
		}
		s.debugf(c.Loc(), "Create a synchronous set for %d bit ff.", ff.Width())

		base += wid
	}

	return true
}

// connectEnableRange wires a clock enable across every FF bank in the
// accounting run. An already connected Enable, as caused by nested
// conditionals like "if (a) if (b) <statement>;", is combined with the
// new one through an AND gate.
func (s *Synth) connectEnableRange(scope *netlist.Scope, nexFF []syncCell,
	bits int, ce *netlist.Net) {
	base := 0
	for base < bits {
		ff := nexFF[base].ff
		wid := ff.Width()
		if base+wid > bits {
			s.internalf(ff.Loc(), "DFF bank at bit %d overruns the output set.", base)
			return
		}

		if ff.PinEnable().IsLinked() {
			ceAnd := netlist.NewLogic(scope, scope.LocalSymbol(), 3, netlist.LogicAND)
			s.des.AddNode(ceAnd)
			netlist.Connect(ff.PinEnable(), ceAnd.Pin(1))
			netlist.Connect(ce.Pin(0), ceAnd.Pin(2))

			ff.PinEnable().Unlink()
			netlist.Connect(ff.PinEnable(), ceAnd.Pin(0))

			tmp := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Implicit, 1)
			tmp.SetLocal(true)
			netlist.Connect(ff.PinEnable(), tmp.Pin(0))
		} else {
			netlist.Connect(ff.PinEnable(), ce.Pin(0))
		}

		base += wid
	}
}

// syncAssign feeds an assignment into the DFF bank. Plain targets are
// just the combinational path; an addressed target (bit select or memory
// word) with a dynamic address puts a decoder between the bank and the
// r-value, while a constant memory word index is wired directly.
func (s *Synth) syncAssign(scope *netlist.Scope, a *netlist.Assign,
	nexFF []syncCell, nexMap, nexOut *netlist.Net) bool {
	countLval := 0
	var demux *netlist.AssignLV

	for _, cur := range a.LVals {
		if cur.Bmux != nil {
			demux = cur
		}
		if cur.Mem != nil {
			demux = cur
		}
		countLval++
	}

	if demux != nil && countLval != 1 {
		s.errorf(a.Loc(), "Cannot synthesize assignments that mix memory and vector assignments.")
		return false
	}

	// No address at all: the r-value is the D input, synthesized
	// combinationally.
	if demux == nil {
		return s.synthAsyncNoaccum(scope, a, true, nexFF, nexMap, nexOut)
	}

	if demux.Bmux == nil {
		s.errorf(a.Loc(), "Cannot synthesize whole-memory assignment.")
		return false
	}

	rsig := a.RVal.Synthesize(s.des)
	if rsig == nil {
		s.errorf(a.Loc(), "Cannot synthesize r-value expression of assignment.")
		return false
	}
	if rsig.PinCount() != demux.LWidth() {
		s.internalf(a.Loc(), "R-value width %d does not match l-value width %d.",
			rsig.PinCount(), demux.LWidth())
		return false
	}

	// A constant memory word index needs no decoder; hook up the
	// pertinent bits directly.
	if ae, ok := demux.Bmux.(*netlist.EConst); ok && demux.Mem != nil {
		lmem := demux.Mem
		msig := lmem.ExplodeToReg()
		demux.Mem.IncrLref()

		adrS := int(ae.Value().AsUint64())
		if adrS >= lmem.Count() {
			s.errorf(a.Loc(), "Address %d is outside range of memory. Skipping assignment.", adrS)
			return false
		}
		adr := lmem.IndexToAddress(adrS) * lmem.Width()

		for idx := 0; idx < demux.LWidth(); idx++ {
			off := adr + idx
			ptr := findNexusInSet(nexMap, msig.Pin(off).Nexus())
			if ptr >= nexMap.PinCount() {
				s.internalf(a.Loc(), "Memory bit nexus missing from nex_map.")
				return false
			}
			netlist.Connect(nexOut.Pin(ptr), rsig.Pin(idx))
		}
		demux.MarkWireOnRelease()
		return true
	}

	// The address is dynamic; put a decoder between the bank and the
	// r-value and broadcast the r-value across the data inputs.
	adr := demux.Bmux.Synthesize(s.des)
	if adr == nil {
		s.errorf(a.Loc(), "Cannot synthesize address expression of assignment.")
		return false
	}

	dq := netlist.NewDecode(scope, scope.LocalSymbol(),
		nexFF[0].ff, adr.PinCount(), demux.LWidth())
	s.des.AddNode(dq)
	dq.SetLine(a.Where())

	for idx := 0; idx < adr.PinCount(); idx++ {
		netlist.Connect(dq.PinAddress(idx), adr.Pin(idx))
	}

	for idx := 0; idx < nexFF[0].ff.Width(); idx++ {
		netlist.Connect(nexFF[0].ff.PinData(idx), rsig.Pin(idx%demux.LWidth()))
	}

	if demux.Mem != nil {
		if demux.Mem.RegFromExplode() == nil {
			s.internalf(a.Loc(), "Memory was never exploded to reg bits.")
			return false
		}
		demux.Mem.IncrLref()
	}
	demux.MarkWireOnRelease()
	return true
}

// processSync lowers one synchronous process: one wide DFF bank between
// the process outputs and the outputs of the substatement, then the
// recursion fills in data, clock, enable and set/reset.
func (s *Synth) processSync(top *netlist.ProcTop) bool {
	scope := top.Scope()

	nexSet := &netlist.NexusSet{}
	top.Statement().NexOutput(nexSet)
	if nexSet.Count() == 0 {
		s.errorf(top.Loc(), "Synchronous process assigns no outputs.")
		return false
	}

	ff := netlist.NewFF(scope, scope.LocalSymbol(), nexSet.Count())
	ff.SetLine(top.Where())
	s.des.AddNode(ff)

	nexFF := make([]syncCell, ff.Width())
	for idx := range nexFF {
		nexFF[idx] = syncCell{ff: ff, pin: idx, proc: top.Statement()}
	}

	// The D inputs receive the outputs of the process statements.
	nexD := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexSet.Count())
	nexD.SetLocal(true)
	for idx := 0; idx < nexSet.Count(); idx++ {
		netlist.Connect(nexD.Pin(idx), ff.PinData(idx))
	}

	// The Q outputs connect to the actual outputs of the process, so
	// the DFF sits between the process outputs and the statement
	// outputs.
	nexQ := netlist.NewNet(scope, "tmpq", netlist.Wire, nexSet.Count())
	for idx := 0; idx < nexSet.Count(); idx++ {
		netlist.ConnectNexus(nexQ.Pin(idx), nexSet.At(idx))
		netlist.Connect(nexQ.Pin(idx), ff.PinQ(idx))
	}

	flag := s.synthSync(scope, top.Statement(), nexFF, nexQ, nexD, nil)

	nexQ.Release()

	return flag
}

// processAsync lowers one combinational process. The output set maps to
// itself: producers wire straight into the consuming nexa.
func (s *Synth) processAsync(top *netlist.ProcTop) bool {
	scope := top.Scope()

	nexSet := &netlist.NexusSet{}
	top.Statement().NexOutput(nexSet)

	nexOut := netlist.NewNet(scope, "tmp", netlist.Wire, nexSet.Count())
	for idx := 0; idx < nexOut.PinCount(); idx++ {
		netlist.ConnectNexus(nexOut.Pin(idx), nexSet.At(idx))
	}

	flag := s.synthAsyncNoaccum(scope, top.Statement(), false, nil, nexOut, nexOut)

	nexOut.Release()
	return flag
}

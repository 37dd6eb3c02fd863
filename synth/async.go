package synth

import "github.com/jmchacon/netsynth/netlist"

// Asynchronous lowering turns a statement tree into combinational logic.
//
// The nex_map net is the O-set for the statement: it identifies the output
// positions by nexus the way the caller wants results linked up. The
// nex_out net is the set of pins that actually receive the synthesized
// drivers. The accum net carries values driven by earlier statements of an
// enclosing block; unlinked accum pins mean no prior driver. syncFlag is
// true when the caller is the synchronous lowering, which permits DFF
// feedback (via nex_map) to cover outputs a clause leaves unwritten.

// synthAsyncNoaccum runs the asynchronous lowering with an unconnected
// stub for the accumulated input.
func (s *Synth) synthAsyncNoaccum(scope *netlist.Scope, st netlist.Proc, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut *netlist.Net) bool {
	stub := netlist.NewNet(scope, "tmp", netlist.Wire, nexOut.PinCount())
	flag := s.synthAsync(scope, st, syncFlag, nexFF, nexMap, nexOut, stub)
	stub.Release()
	return flag
}

// synthAsync dispatches on the statement variant.
func (s *Synth) synthAsync(scope *netlist.Scope, st netlist.Proc, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut, accum *netlist.Net) bool {
	switch st := st.(type) {
	case *netlist.Assign:
		return s.asyncAssign(scope, st, syncFlag, nexFF, nexMap, nexOut)
	case *netlist.Block:
		return s.asyncBlock(scope, st, syncFlag, nexFF, nexMap, nexOut)
	case *netlist.Condit:
		return s.asyncCondit(scope, st, syncFlag, nexFF, nexMap, nexOut, accum)
	case *netlist.Case:
		return s.asyncCase(scope, st, syncFlag, nexFF, nexMap, nexOut, accum)
	case *netlist.EvWait:
		// An event wait inside a combinational region is pure
		// sensitivity decoration; forward to the body.
		return s.synthAsync(scope, st.Stmt, syncFlag, nexFF, nexMap, nexOut, accum)
	case *netlist.While:
		s.errorf(st.Loc(), "Cannot synthesize for or while loops.")
		return false
	default:
		s.errorf(st.Loc(), "Statement cannot be synthesized to asynchronous logic.")
		return false
	}
}

// asyncAssign synthesizes the r-value expression and connects the l-value
// fragments directly to its output, routing bit positions through nex_map.
func (s *Synth) asyncAssign(scope *netlist.Scope, a *netlist.Assign, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut *netlist.Net) bool {
	rsig := a.RVal.Synthesize(s.des)
	if rsig == nil {
		s.errorf(a.Loc(), "Cannot synthesize r-value expression of assignment.")
		return false
	}

	roff := 0

	for _, cur := range a.LVals {
		if cur.Mem != nil && !syncFlag {
			s.errorf(a.Loc(), "Cannot synthesize memory assignment in asynchronous logic.")
			return false
		}

		// An assignment to a memory explodes the memory to an array
		// of reg bits. This is only workable on the asynchronous path
		// of a synchronous thread.
		if cur.Mem != nil {
			if !s.asyncMemAssign(scope, a, cur, rsig, &roff, nexMap, nexOut) {
				return false
			}
			continue
		}

		lsig := cur.Sig
		if lsig == nil {
			s.errorf(a.Loc(), "Assignment on unsupported l-value.")
			return false
		}

		if cur.Bmux != nil && !syncFlag {
			s.errorf(a.Loc(), "Assign to bit select not possible in asynchronous logic.")
			return false
		}

		// A bit select becomes a decoded enable: a demux whose
		// WriteData is the r-value and whose Data vector is the DFF
		// feedback, so unaddressed bits recycle their current value.
		if cur.Bmux != nil {
			adr := cur.Bmux.Synthesize(s.des)
			if adr == nil {
				s.errorf(a.Loc(), "Cannot synthesize bit select expression.")
				return false
			}

			if cur.LWidth() != 1 {
				s.errorf(a.Loc(), "Bit select l-value must be a single bit, not %d.", cur.LWidth())
				return false
			}

			dq := netlist.NewDemux(scope, scope.LocalSymbol(),
				lsig.PinCount(), adr.PinCount(), lsig.PinCount())
			s.des.AddNode(dq)
			dq.SetLine(a.Where())

			for idx := 0; idx < adr.PinCount(); idx++ {
				netlist.Connect(dq.PinAddress(idx), adr.Pin(idx))
			}

			if len(nexFF) == 0 || nexFF[0].ff.Width() < lsig.PinCount() {
				s.internalf(a.Loc(), "Bit select target wider than its DFF bank.")
				return false
			}

			// Cycle the FF Q outputs through the demux so only the
			// addressed bit takes the new value.
			for idx := 0; idx < lsig.PinCount(); idx++ {
				off := cur.Loff + idx
				netlist.Connect(nexFF[0].ff.PinQ(off), dq.PinData(idx))
			}

			for idx := 0; idx < lsig.PinCount(); idx++ {
				off := cur.Loff + idx
				ptr := findNexusInSet(nexMap, lsig.Pin(off).Nexus())
				if ptr >= nexOut.PinCount() {
					s.internalf(a.Loc(), "Bit select output nexus missing from nex_map.")
					return false
				}
				netlist.Connect(nexOut.Pin(ptr), dq.PinQ(idx))
			}

			netlist.Connect(dq.PinWriteData(0), rsig.Pin(roff))

			roff += cur.LWidth()
			cur.MarkWireOnRelease()
			continue
		}

		// Plain signal target. Bind the produced bits into nex_out,
		// using nex_map to translate l-value bit positions.
		for idx := 0; idx < cur.LWidth(); idx++ {
			off := cur.Loff + idx
			ptr := findNexusInSet(nexMap, lsig.Pin(off).Nexus())
			if ptr >= nexMap.PinCount() {
				s.internalf(a.Loc(), "L-value nexus missing from nex_map.")
				return false
			}
			netlist.Connect(nexOut.Pin(ptr), rsig.Pin(roff+idx))
		}

		roff += cur.LWidth()

		// The reg this l-value refers to is a wire in the synthesized
		// result. The conversion happens when the process is
		// released so pending synthesis can keep using it as a reg.
		cur.MarkWireOnRelease()
	}

	return true
}

// asyncMemAssign handles assignment to a memory word. The memory has
// already been exploded to reg bits; a constant index wires the word
// directly while a dynamic index goes through a demux.
func (s *Synth) asyncMemAssign(scope *netlist.Scope, a *netlist.Assign, cur *netlist.AssignLV,
	rsig *netlist.Net, roff *int, nexMap, nexOut *netlist.Net) bool {
	lmem := cur.Mem
	msig := lmem.ExplodeToReg()
	lmem.IncrLref()

	// A constant word index needs no demux; just hook up the bits of
	// the addressed word.
	if ae, ok := cur.Bmux.(*netlist.EConst); ok {
		adrS := int(ae.Value().AsUint64())
		if adrS >= lmem.Count() {
			s.errorf(a.Loc(), "Address %d is outside range of memory. Skipping assignment.", adrS)
			return false
		}

		adr := lmem.IndexToAddress(adrS) * lmem.Width()
		for idx := 0; idx < cur.LWidth(); idx++ {
			off := adr + idx
			ptr := findNexusInSet(nexMap, msig.Pin(off).Nexus())
			if ptr >= nexMap.PinCount() {
				s.internalf(a.Loc(), "Memory bit nexus missing from nex_map.")
				return false
			}
			netlist.Connect(nexOut.Pin(ptr), rsig.Pin(*roff+idx))
		}

		cur.MarkWireOnRelease()
		return true
	}

	if cur.Bmux == nil {
		s.errorf(a.Loc(), "Cannot synthesize memory assignment without a word index.")
		return false
	}

	adr := cur.Bmux.Synthesize(s.des)
	if adr == nil {
		s.errorf(a.Loc(), "Cannot synthesize memory index expression.")
		return false
	}

	dq := netlist.NewDemux(scope, scope.LocalSymbol(),
		msig.PinCount(), adr.PinCount(), msig.PinCount()/cur.LWidth())
	s.des.AddNode(dq)
	dq.SetLine(a.Where())

	for idx := 0; idx < adr.PinCount(); idx++ {
		netlist.Connect(dq.PinAddress(idx), adr.Pin(idx))
	}

	for idx := 0; idx < msig.PinCount(); idx++ {
		ptr := findNexusInSet(nexMap, msig.Pin(idx).Nexus())
		if ptr >= nexMap.PinCount() {
			s.internalf(a.Loc(), "Memory bit nexus missing from nex_map.")
			return false
		}
		netlist.Connect(nexOut.Pin(ptr), dq.PinQ(idx))
	}

	// The Data vector recycles the current memory contents.
	for idx := 0; idx < msig.PinCount(); idx++ {
		netlist.Connect(dq.PinData(idx), nexMap.Pin(*roff+idx))
	}

	for idx := 0; idx < cur.LWidth(); idx++ {
		netlist.Connect(dq.PinWriteData(idx), rsig.Pin(*roff+idx))
	}

	*roff += cur.LWidth()
	cur.MarkWireOnRelease()

	return true
}

// asyncBlock lowers an ordered sequence. Each statement is synthesized
// against its own narrow output set; the rolling accumulator reconciles
// the statements so the last driver of each bit wins.
func (s *Synth) asyncBlock(scope *netlist.Scope, b *netlist.Block, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut *netlist.Net) bool {
	if len(b.Stmts) == 0 {
		return true
	}

	if s.debug >= 1 {
		kind := "async"
		if syncFlag {
			kind = "sync"
		}
		s.debugf(b.Loc(), "%s synthesis of statement block.", kind)
	}

	accumOut := netlist.NewNet(scope, "tmp3", netlist.Wire, nexOut.PinCount())
	accumOut.SetLocal(true)

	flag := true
	for _, cur := range b.Stmts {
		// Build the narrow map/out pair for the substatement.
		tmpSet := &netlist.NexusSet{}
		cur.NexOutput(tmpSet)
		tmpMap := netlist.NewNet(scope, "tmp1", netlist.Wire, tmpSet.Count())
		for idx := 0; idx < tmpMap.PinCount(); idx++ {
			netlist.ConnectNexus(tmpMap.Pin(idx), tmpSet.At(idx))
		}

		tmpOut := netlist.NewNet(scope, "tmp2", netlist.Wire, tmpSet.Count())
		tmpOut.SetLine(b.Where())

		// Project the accumulated outputs down to the narrow set so
		// the substatement can use them for defaults. Bits with no
		// prior driver stay unlinked.
		newAccum := netlist.NewNet(scope, "tmp3", netlist.Wire, tmpSet.Count())
		for idx := 0; idx < tmpSet.Count(); idx++ {
			ptr := findNexusInSet(nexMap, tmpMap.Pin(idx).Nexus())
			if ptr < accumOut.PinCount() && accumOut.Pin(ptr).IsLinked() {
				netlist.Connect(newAccum.Pin(idx), accumOut.Pin(ptr))
			}
		}

		okFlag := s.synthAsync(scope, cur, syncFlag, nexFF, tmpMap, tmpOut, newAccum)
		flag = flag && okFlag

		newAccum.Release()

		// NOTE: tmpSet is stale from here on. The substatement's
		// synthesis connects pins, and connecting merges nexa.

		if !okFlag {
			tmpMap.Release()
			tmpOut.Release()
			continue
		}

		// Lift the narrow outputs back into a fresh full width
		// accumulator, then backfill anything the substatement did
		// not drive from the previous accumulator.
		newAccum = netlist.NewNet(scope, "tmp3", netlist.Wire, nexOut.PinCount())
		newAccum.SetLine(b.Where())

		for idx := 0; idx < tmpOut.PinCount(); idx++ {
			ptr := findNexusInSet(nexMap, tmpMap.Pin(idx).Nexus())
			if ptr >= nexMap.PinCount() {
				s.internalf(cur.Loc(), "Nexus isn't in nex_map?! idx=%d map width=%d tmp_map count=%d",
					idx, nexMap.PinCount(), tmpMap.PinCount())
				continue
			}
			netlist.Connect(newAccum.Pin(ptr), tmpOut.Pin(idx))
		}

		tmpMap.Release()
		tmpOut.Release()

		for idx := 0; idx < newAccum.PinCount(); idx++ {
			if newAccum.Pin(idx).IsLinked() {
				continue
			}
			netlist.Connect(newAccum.Pin(idx), accumOut.Pin(idx))
		}
		accumOut.Release()
		accumOut = newAccum
	}

	// Bind the accumulated values to the nex_out passed in. The pin
	// mapping already happened above, so connect position for position.
	for idx := 0; idx < accumOut.PinCount(); idx++ {
		netlist.Connect(nexOut.Pin(idx), accumOut.Pin(idx))
	}

	accumOut.Release()

	return flag
}

// Linkage classification bits for conditional lowering: which of the true
// clause, false clause and accumulator drive a given output bit.
const (
	linkIf    = 0x4
	linkElse  = 0x2
	linkAccum = 0x1
)

// asyncCondit lowers an if/else to a 2:1 mux selected by the condition.
func (s *Synth) asyncCondit(scope *netlist.Scope, c *netlist.Condit, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut, accum *netlist.Net) bool {
	s.debugEnter("Condit.synthAsync", c)

	ssig := c.Expr.Synthesize(s.des)
	if ssig == nil {
		s.errorf(c.Loc(), "Cannot synthesize condition expression.")
		return false
	}

	// Use the accumulated input as the default for a missing clause,
	// unless parts of it are unconnected.
	defaultSig := accum
	for idx := 0; idx < defaultSig.PinCount(); idx++ {
		if !defaultSig.Pin(idx).IsLinked() {
			defaultSig = nil
			break
		}
	}

	if c.If == nil && c.Else == nil {
		s.internalf(c.Loc(), "Condition with no clauses.")
		return false
	}

	// With no default and a fully asynchronous process both clauses
	// must be present; there is no DFF output to fall back on.
	if defaultSig == nil && !syncFlag {
		if c.If == nil {
			s.errorf(c.Loc(), "Asynchronous if statement is missing the if clause.")
			return false
		}
		if c.Else == nil {
			s.errorf(c.Loc(), "Asynchronous if statement is missing the else clause.")
			return false
		}
	}

	asig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
	asig.SetLocal(true)

	if c.If == nil {
		// Take the missing clause to be an assignment from the
		// defaults, or from the output when synchronous.
		src := defaultSig
		if src == nil {
			src = nexMap
		}
		for idx := 0; idx < asig.PinCount(); idx++ {
			netlist.Connect(asig.Pin(idx), src.Pin(idx))
		}
	} else {
		if !s.synthAsync(scope, c.If, syncFlag, nexFF, nexMap, asig, accum) {
			asig.Release()
			s.errorf(c.Loc(), "Asynchronous if statement true clause failed to synthesize.")
			return false
		}
	}

	bsig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
	bsig.SetLocal(true)

	if c.Else == nil {
		src := defaultSig
		if src == nil {
			src = nexMap
		}
		for idx := 0; idx < bsig.PinCount(); idx++ {
			netlist.Connect(bsig.Pin(idx), src.Pin(idx))
		}
	} else {
		if !s.synthAsync(scope, c.Else, syncFlag, nexFF, nexMap, bsig, accum) {
			asig.Release()
			bsig.Release()
			s.errorf(c.Loc(), "Asynchronous if statement else clause failed to synthesize.")
			return false
		}
	}

	bitFlag := func(idx int) int {
		flag := 0
		if asig.Pin(idx).IsLinked() {
			flag |= linkIf
		}
		if bsig.Pin(idx).IsLinked() {
			flag |= linkElse
		}
		if accum.Pin(idx).IsLinked() {
			flag |= linkAccum
		}
		return flag
	}

	// Count the mux bits needed. Bits driven from only one side in a
	// purely combinational context bypass the mux entirely.
	muxWidth := 0
	for idx := 0; idx < nexOut.PinCount(); idx++ {
		switch bitFlag(idx) {
		case linkIf | linkElse | linkAccum, linkIf | linkElse, linkIf | linkAccum:
			muxWidth++
		case linkIf, linkElse:
			if syncFlag {
				muxWidth++
			}
		case linkElse | linkAccum, linkAccum:
			muxWidth++
		case 0:
		}
	}

	mux := netlist.NewMux(scope, scope.LocalSymbol(), muxWidth, 2, 1)
	mux.SetLine(c.Where())

	netlist.Connect(mux.PinSel(0), ssig.Pin(0))

	// Wire the clauses to the mux data inputs bit by bit. Bits a clause
	// leaves unassigned come from the accumulator, or from nex_map (the
	// DFF output) when synchronous.
	warned := false
	wdx := 0
	for idx := 0; idx < nexOut.PinCount(); idx++ {
		switch bitFlag(idx) {
		case linkIf | linkElse | linkAccum, linkIf | linkElse:
			netlist.Connect(mux.PinData(wdx, 1), asig.Pin(idx))
			netlist.Connect(mux.PinData(wdx, 0), bsig.Pin(idx))
			netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
			wdx++
		case linkIf | linkAccum:
			netlist.Connect(mux.PinData(wdx, 1), asig.Pin(idx))
			netlist.Connect(mux.PinData(wdx, 0), accum.Pin(idx))
			netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
			wdx++
		case linkIf:
			if syncFlag {
				netlist.Connect(mux.PinData(wdx, 1), asig.Pin(idx))
				netlist.Connect(mux.PinData(wdx, 0), nexMap.Pin(idx))
				netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
				wdx++
			} else {
				// The false clause never drives this bit. With no
				// latch support, assume the value is internal to
				// the true clause and pass it straight through.
				if !warned {
					s.warnf(c.Loc(), "Condition clause drives bit %d unconditionally; no latch inferred.", idx)
					warned = true
				}
				netlist.Connect(nexOut.Pin(idx), asig.Pin(idx))
			}
		case linkElse | linkAccum:
			netlist.Connect(mux.PinData(wdx, 1), accum.Pin(idx))
			netlist.Connect(mux.PinData(wdx, 0), bsig.Pin(idx))
			netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
			wdx++
		case linkElse:
			if syncFlag {
				netlist.Connect(mux.PinData(wdx, 1), nexMap.Pin(idx))
				netlist.Connect(mux.PinData(wdx, 0), bsig.Pin(idx))
				netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
				wdx++
			} else {
				if !warned {
					s.warnf(c.Loc(), "Condition clause drives bit %d unconditionally; no latch inferred.", idx)
					warned = true
				}
				netlist.Connect(nexOut.Pin(idx), bsig.Pin(idx))
			}
		case linkAccum:
			// Constant pass-through still widens the mux so the
			// select load stays consistent.
			netlist.Connect(mux.PinData(wdx, 1), accum.Pin(idx))
			netlist.Connect(mux.PinData(wdx, 0), accum.Pin(idx))
			netlist.Connect(nexOut.Pin(idx), mux.PinResult(wdx))
			wdx++
		case 0:
			if syncFlag {
				netlist.Connect(nexOut.Pin(idx), nexMap.Pin(idx))
			} else {
				s.internalf(c.Loc(), "No driver at all for output bit %d of condition.", idx)
				s.debugExit("Condit.synthAsync", c, false)
				return false
			}
		}
	}

	if wdx != mux.Width() {
		s.internalf(c.Loc(), "Mux width accounting is off: wired %d of %d bits.", wdx, mux.Width())
		return false
	}

	s.des.AddNode(mux)

	s.debugExit("Condit.synthAsync", c, true)
	return true
}

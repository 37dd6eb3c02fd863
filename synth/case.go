package synth

import "github.com/jmchacon/netsynth/netlist"

// kMAX_SEL_PINS bounds the number of non-constant select bits a full case
// mux may decode. The mux grows as 2^sel_pins data inputs, so anything
// past this is a runaway synthesis, not a real design.
const kMAX_SEL_PINS = 16

// guardToSel compacts a full guard value down to a mux select code by
// dropping the constant select bits. The second return is false when the
// guard disagrees with a constant bit and is therefore unreachable.
func guardToSel(gval netlist.Vector, selMask, selRefBit []bool) (int, bool) {
	sel := 0
	pos := 0
	for idx := range selMask {
		bit := gval.Get(idx) == netlist.V1
		if selMask[idx] {
			if bit {
				sel |= 1 << uint(pos)
			}
			pos++
		} else if bit != selRefBit[idx] {
			return 0, false
		}
	}
	return sel, true
}

// asyncCase lowers a case statement to a wide mux indexed by the
// non-constant bits of the selector, or to a 1-hot mux when the live
// guards are sparse.
func (s *Synth) asyncCase(scope *netlist.Scope, c *netlist.Case, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut, accum *netlist.Net) bool {
	esig := c.Expr.Synthesize(s.des)
	if esig == nil {
		s.errorf(c.Loc(), "Cannot synthesize case select expression.")
		return false
	}

	// Scan the select vector for constant bits. Constant bits are
	// elided from the select connect, but their fixed values still
	// decide which guards are reachable.
	selPins := 0
	selMask := make([]bool, esig.PinCount())
	selRefBit := make([]bool, esig.PinCount())
	for idx := 0; idx < esig.PinCount(); idx++ {
		nex := esig.Pin(idx).Nexus()
		if nex.Driven() && nex.DriversConstant() {
			if nex.DrivenValue() == netlist.V1 {
				selRefBit[idx] = true
			}
		} else {
			selPins++
			selMask[idx] = true
		}
	}

	nondefaultItems := 0
	for _, item := range c.Items {
		if item.Guard != nil {
			nondefaultItems++
		}
	}

	// A sparse item list on a wide selector decodes much smaller as a
	// 1-hot mux.
	if nondefaultItems < selPins {
		return s.asyncCase1Hot(scope, c, syncFlag, nexFF, nexMap, nexOut, accum,
			esig, nondefaultItems)
	}

	if selPins > kMAX_SEL_PINS {
		s.errorf(c.Loc(), "Case select has too many non-constant bits (%d) to synthesize.", selPins)
		return false
	}

	mux := netlist.NewMux(scope, scope.LocalSymbol(),
		nexOut.PinCount(), 1<<uint(selPins), selPins)
	mux.SetLine(c.Where())

	// Only the non-constant select bits reach the mux.
	cur := 0
	for idx := 0; idx < esig.PinCount(); idx++ {
		if !selMask[idx] {
			continue
		}
		netlist.Connect(mux.PinSel(cur), esig.Pin(idx))
		cur++
	}

	for idx := 0; idx < mux.Width(); idx++ {
		netlist.Connect(nexOut.Pin(idx), mux.PinResult(idx))
	}

	statementMap := make([]netlist.Proc, 1<<uint(selPins))

	// Assign statements to mux inputs: compute each guard value, pass
	// it through the select compaction and save the statement. A
	// default arm is remembered for the misses.
	var defaultStatement netlist.Proc
	for _, item := range c.Items {
		if item.Guard == nil {
			defaultStatement = item.Stmt
			continue
		}

		ge, ok := item.Guard.(*netlist.EConst)
		if !ok {
			s.errorf(c.Loc(), "Case guard expression is not constant.")
			return false
		}

		if item.Stmt == nil {
			s.internalf(c.Loc(), "Case item with a guard but no statement.")
			return false
		}

		// A guard may have x/z values if this is a casex statement.
		// Replace such a number with two numbers, one with 0
		// substituted and one with 1, until only defined values
		// remain on the stack.
		gstack := []netlist.Vector{ge.Value()}
		for len(gstack) > 0 {
			tmp := gstack[0]
			gstack = gstack[1:]

			switch {
			case tmp.IsDefined() || c.Kind == netlist.CaseEQ:
				selIdx, reachable := guardToSel(tmp, selMask, selRefBit)
				if !reachable {
					continue
				}
				statementMap[selIdx] = item.Stmt

			case c.Kind == netlist.CaseEQX:
				sub := 0
				for sub < tmp.Len() {
					if v := tmp.Get(sub); v == netlist.Vx || v == netlist.Vz {
						break
					}
					sub++
				}
				tmp0 := tmp.Clone()
				tmp1 := tmp.Clone()
				tmp0.Set(sub, netlist.V0)
				tmp1.Set(sub, netlist.V1)
				gstack = append([]netlist.Vector{tmp0, tmp1}, gstack...)

			default:
				s.errorf(c.Loc(), "Cannot synthesize casez statement.")
				return false
			}
		}
	}

	// With no explicit default, a fully driven accumulator covers the
	// missing inputs.
	var defaultSig *netlist.Net
	if defaultStatement == nil {
		defaultSig = accum
		for idx := 0; idx < accum.PinCount(); idx++ {
			if !accum.Pin(idx).IsLinked() {
				defaultSig = nil
				break
			}
		}
	}

	returnFlag := true

	// Synthesize the statements onto their mux inputs. The first miss
	// materializes the default statement; subsequent misses share the
	// net it produced.
	for item := 0; item < 1<<uint(selPins); item++ {
		if statementMap[item] == nil && defaultSig != nil {
			for idx := 0; idx < mux.Width(); idx++ {
				netlist.Connect(mux.PinData(idx, item), defaultSig.Pin(idx))
			}
			continue
		}

		sig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
		sig.SetLocal(true)

		if statementMap[item] == nil && defaultStatement != nil {
			statementMap[item] = defaultStatement
			defaultStatement = nil
			defaultSig = sig
		}

		if statementMap[item] == nil && !syncFlag {
			// Missing case and no default; this could still be
			// synthesizable with synchronous logic, but not here.
			s.errorf(c.Loc(), "Case item %d is missing in combinational process.", item)
			s.hintf(c.Loc(), "Do you need a default case?")
			returnFlag = false
			continue
		}

		if statementMap[item] == nil {
			// Unspecified case in a synchronous process: recycle the
			// DFF output.
			for idx := 0; idx < mux.Width(); idx++ {
				netlist.Connect(mux.PinData(idx, item), nexMap.Pin(idx))
			}
			continue
		}

		if !s.synthAsync(scope, statementMap[item], syncFlag, nexFF, nexMap, sig, accum) {
			returnFlag = false
		}

		for idx := 0; idx < mux.Width(); idx++ {
			switch {
			case sig.Pin(idx).IsLinked():
				netlist.Connect(mux.PinData(idx, item), sig.Pin(idx))
			case accum.Pin(idx).IsLinked():
				netlist.Connect(mux.PinData(idx, item), accum.Pin(idx))
			case syncFlag:
				netlist.Connect(mux.PinData(idx, item), nexMap.Pin(idx))
			default:
				// No likely input for this bit. Leave it; the
				// connectivity test decides if it is an error.
			}
		}
	}

	// Input connectivity check.
	for wdx := 0; wdx < mux.Width(); wdx++ {
		linkedCount := 0
		lastLinked := 0
		for item := 0; item < 1<<uint(selPins); item++ {
			if mux.PinData(wdx, item).IsLinked() {
				linkedCount++
				lastLinked = item
			}
		}

		if linkedCount == 1<<uint(selPins) {
			continue
		}

		// A single connected input is probably an internal value that
		// is not really an output. Repeat the connection to every
		// input so the bit consistently follows the one expression
		// that feeds it, whatever the select.
		if linkedCount == 1 {
			for item := 0; item < 1<<uint(selPins); item++ {
				if item == lastLinked {
					continue
				}
				netlist.Connect(mux.PinData(wdx, item), mux.PinData(wdx, lastLinked))
			}
			continue
		}

		if returnFlag {
			s.errorf(c.Loc(), "Case %d statement does not assign expected outputs.", lastLinked)
			returnFlag = false
		}
	}

	s.des.AddNode(mux)

	return returnFlag
}

// asyncCase1Hot lowers a sparse case to a mux whose select bits are
// generated by independent guard comparators and whose data inputs sit at
// the true 1-hot codes.
func (s *Synth) asyncCase1Hot(scope *netlist.Scope, c *netlist.Case, syncFlag bool,
	nexFF []syncCell, nexMap, nexOut, accum *netlist.Net,
	esig *netlist.Net, hotItems int) bool {
	selPins := hotItems

	mux := netlist.NewMux(scope, scope.LocalSymbol(),
		nexOut.PinCount(), 1<<uint(selPins), selPins)
	mux.SetLine(c.Where())

	for idx := 0; idx < mux.Width(); idx++ {
		netlist.Connect(nexOut.Pin(idx), mux.PinResult(idx))
	}

	var defaultStatement netlist.Proc
	useItem := 0
	for _, item := range c.Items {
		if item.Guard == nil {
			defaultStatement = item.Stmt
			continue
		}

		gsig := item.Guard.Synthesize(s.des)
		if gsig == nil {
			s.errorf(c.Loc(), "Cannot synthesize case guard expression.")
			return false
		}

		if gsig.PinCount() != esig.PinCount() {
			s.internalf(c.Loc(), "Case guard width %d does not match select width %d.",
				gsig.PinCount(), esig.PinCount())
			return false
		}

		// Compare the guard to the selector bit by bit and AND-reduce
		// the comparisons into this item's select line.
		reduc := netlist.NewLogic(scope, scope.LocalSymbol(),
			1+esig.PinCount(), netlist.LogicAND)
		s.des.AddNode(reduc)

		for idx := 0; idx < gsig.PinCount(); idx++ {
			cmp := netlist.NewCaseCmp(scope, scope.LocalSymbol())
			s.des.AddNode(cmp)
			netlist.Connect(cmp.Pin(0), reduc.Pin(1+idx))
			netlist.Connect(cmp.Pin(1), esig.Pin(idx))
			netlist.Connect(cmp.Pin(2), gsig.Pin(idx))
		}

		netlist.Connect(mux.PinSel(useItem), reduc.Pin(0))

		itemSig := netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
		itemSig.SetLocal(true)
		if item.Stmt == nil {
			s.internalf(c.Loc(), "Case item with a guard but no statement.")
			return false
		}
		if !s.synthAsync(scope, item.Stmt, syncFlag, nexFF, nexMap, itemSig, accum) {
			return false
		}
		for idx := 0; idx < itemSig.PinCount(); idx++ {
			netlist.Connect(mux.PinData(idx, 1<<uint(useItem)), itemSig.Pin(idx))
		}

		useItem++
	}

	if useItem != hotItems {
		s.internalf(c.Loc(), "1-hot item accounting is off: %d of %d.", useItem, hotItems)
		return false
	}

	// Pick the default source: an explicit default statement, a fully
	// driven accumulator, or DFF feedback in a synchronous process.
	var defaultSig *netlist.Net
	if defaultStatement != nil {
		defaultSig = netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
		defaultSig.SetLocal(true)
		if !s.synthAsync(scope, defaultStatement, syncFlag, nexFF, nexMap, defaultSig, accum) {
			return false
		}
	}

	if defaultSig == nil && defaultStatement == nil {
		defaultSig = accum
		for idx := 0; idx < accum.PinCount(); idx++ {
			if !accum.Pin(idx).IsLinked() {
				defaultSig = nil
				break
			}
		}
	}

	if defaultSig == nil && syncFlag {
		defaultSig = netlist.NewNet(scope, scope.LocalSymbol(), netlist.Wire, nexMap.PinCount())
		defaultSig.SetLocal(true)
		for idx := 0; idx < defaultSig.PinCount(); idx++ {
			netlist.Connect(defaultSig.Pin(idx), nexMap.Pin(idx))
		}
	}

	// With nothing to supply the unreached codes the mux inputs stay
	// open. There is no latch support, so the value is assumed internal.
	if defaultSig == nil {
		s.warnf(c.Loc(), "Case has unreached select codes and no default; no latch inferred.")
		s.des.AddNode(mux)
		return true
	}

	// Every select code that is not exactly one hot takes the default.
	for item := 0; item < 1<<uint(selPins); item++ {
		countBits := 0
		for idx := 0; idx < selPins; idx++ {
			if item&(1<<uint(idx)) != 0 {
				countBits++
			}
		}

		if countBits == 1 {
			continue
		}

		for idx := 0; idx < mux.Width(); idx++ {
			netlist.Connect(mux.PinData(idx, item), defaultSig.Pin(idx))
		}
	}

	s.des.AddNode(mux)
	return true
}

package engine

import (
	"github.com/cmc-go/modelmachine/internal/alu"
	"github.com/cmc-go/modelmachine/internal/isa"
	"github.com/cmc-go/modelmachine/internal/word"
)

func (e *Engine) stageFromRAM(addr uint32, reg string) error {
	w, err := e.RAM.Fetch(addr, e.Desc.WordBits)
	if err != nil {
		return err
	}
	return e.RF.Set(reg, w)
}

func (e *Engine) storeToRAM(addr uint32, reg string) error {
	w, err := e.RF.Get(reg)
	if err != nil {
		return err
	}
	return e.RAM.Store(addr, w)
}

func (e *Engine) modAddr(regIdx int, a uint32) uint32 {
	if regIdx == 0 {
		return a & e.addrMask()
	}
	v, err := e.RF.GetAddressable(regIdx, e.Desc.AddressableRegs)
	if err != nil {
		return a & e.addrMask()
	}
	return (uint32(v.AsUnsigned()) + a) & e.addrMask()
}

func isDivide(op alu.Op) bool { return op == alu.OpSDiv || op == alu.OpUDiv }

func (e *Engine) execArithmetic(in isa.Instruction, dec isa.Decoded) error {
	if e.Desc.Writeback == isa.WritebackRegister {
		rx, ry := dec.Regs[0], dec.Regs[1]
		nameX := e.Desc.AddressableRegs[rx]
		nameY := e.Desc.AddressableRegs[ry]
		dst2 := ""
		if isDivide(in.ALUOp) {
			dst2 = e.Desc.AddressableRegs[(rx+1)%len(e.Desc.AddressableRegs)]
		}
		f, err := e.alu.Execute(e.RF, in.ALUOp, nameX, nameY, nameX, dst2, in.Signed)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil
	}

	switch e.Desc.Writeback {
	case isa.WritebackThreeAddress:
		a1, a2, a3 := dec.Addrs[0], dec.Addrs[1], dec.Addrs[2]
		if err := e.stageFromRAM(a1, "R1"); err != nil {
			return err
		}
		if err := e.stageFromRAM(a2, "R2"); err != nil {
			return err
		}
		f, err := e.alu.Execute(e.RF, in.ALUOp, "R1", "R2", "S", "", in.Signed)
		if err != nil {
			return err
		}
		e.setFlags(f)
		e.setAddr(a3)
		return e.storeToRAM(a3, "S")

	case isa.WritebackFirstAddress:
		a1, a2 := dec.Addrs[0], dec.Addrs[1]
		if err := e.stageFromRAM(a1, "R1"); err != nil {
			return err
		}
		if err := e.stageFromRAM(a2, "R2"); err != nil {
			return err
		}
		f, err := e.alu.Execute(e.RF, in.ALUOp, "R1", "R2", "S", "", in.Signed)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return e.storeToRAM(a1, "S")

	case isa.WritebackAccumulator:
		a := dec.Addrs[0]
		if err := e.stageFromRAM(a, "R2"); err != nil {
			return err
		}
		f, err := e.alu.Execute(e.RF, in.ALUOp, "S", "R2", "S", "", in.Signed)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil

	case isa.WritebackStackTop:
		sp := e.sp()
		bAddr, aAddr := sp, sp+e.wordCells
		if err := e.checkPop(sp + 2*e.wordCells); err != nil {
			return err
		}
		bw, err := e.RAM.Fetch(bAddr, e.Desc.WordBits)
		if err != nil {
			return err
		}
		aw, err := e.RAM.Fetch(aAddr, e.Desc.WordBits)
		if err != nil {
			return err
		}
		e.RF.Set("R1", aw)
		e.RF.Set("R2", bw)
		e.setSP(sp + 2*e.wordCells)
		f, err := e.alu.Execute(e.RF, in.ALUOp, "R1", "R2", "S", "", in.Signed)
		if err != nil {
			return err
		}
		e.setFlags(f)
		pushSP := e.sp() - e.wordCells
		if err := e.checkPush(pushSP); err != nil {
			return err
		}
		sres, _ := e.RF.Get("S")
		if err := e.RAM.Store(pushSP, sres); err != nil {
			return err
		}
		e.setSP(pushSP)
		return nil
	}
	return ErrInvalidOpcode
}

func (e *Engine) execCmp(in isa.Instruction, dec isa.Decoded) error {
	if e.Desc.Writeback == isa.WritebackRegister {
		nameX := e.Desc.AddressableRegs[dec.Regs[0]]
		nameY := e.Desc.AddressableRegs[dec.Regs[1]]
		f, err := e.alu.Execute(e.RF, alu.OpCmp, nameX, nameY, "", "", true)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil
	}

	switch e.Desc.Writeback {
	case isa.WritebackThreeAddress, isa.WritebackFirstAddress:
		a1, a2 := dec.Addrs[0], dec.Addrs[1]
		if err := e.stageFromRAM(a1, "R1"); err != nil {
			return err
		}
		if err := e.stageFromRAM(a2, "R2"); err != nil {
			return err
		}
		f, err := e.alu.Execute(e.RF, alu.OpCmp, "R1", "R2", "", "", true)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil

	case isa.WritebackAccumulator:
		a := dec.Addrs[0]
		if err := e.stageFromRAM(a, "R2"); err != nil {
			return err
		}
		f, err := e.alu.Execute(e.RF, alu.OpCmp, "S", "R2", "", "", true)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil

	case isa.WritebackStackTop:
		sp := e.sp()
		bAddr, aAddr := sp, sp+e.wordCells
		if err := e.checkPop(sp + 2*e.wordCells); err != nil {
			return err
		}
		bw, err := e.RAM.Fetch(bAddr, e.Desc.WordBits)
		if err != nil {
			return err
		}
		aw, err := e.RAM.Fetch(aAddr, e.Desc.WordBits)
		if err != nil {
			return err
		}
		e.RF.Set("R1", aw)
		e.RF.Set("R2", bw)
		e.setSP(sp + 2*e.wordCells)
		f, err := e.alu.Execute(e.RF, alu.OpCmp, "R1", "R2", "", "", true)
		if err != nil {
			return err
		}
		e.setFlags(f)
		return nil
	}
	return ErrInvalidOpcode
}

func (e *Engine) execMove(in isa.Instruction, dec isa.Decoded) error {
	switch in.Mnemonic {
	case "move":
		src, dst := dec.Addrs[0], dec.Addrs[1]
		w, err := e.RAM.Fetch(src, e.Desc.WordBits)
		if err != nil {
			return err
		}
		return e.RAM.Store(dst, w)

	case "load":
		if e.Desc.Writeback == isa.WritebackAccumulator {
			a := dec.Addrs[0]
			w, err := e.RAM.Fetch(a, e.Desc.WordBits)
			if err != nil {
				return err
			}
			return e.RF.Set("S", w)
		}
		rx := dec.Regs[0]
		a := dec.Addrs[0]
		if e.Desc.HasModifier {
			a = e.modAddr(dec.Regs[1], a)
		}
		e.setAddr(a)
		w, err := e.RAM.Fetch(a, e.Desc.WordBits)
		if err != nil {
			return err
		}
		return e.RF.SetAddressable(rx, e.Desc.AddressableRegs, w)

	case "store":
		if e.Desc.Writeback == isa.WritebackAccumulator {
			a := dec.Addrs[0]
			w, err := e.RF.Get("S")
			if err != nil {
				return err
			}
			return e.RAM.Store(a, w)
		}
		rx := dec.Regs[0]
		a := dec.Addrs[0]
		if e.Desc.HasModifier {
			a = e.modAddr(dec.Regs[1], a)
		}
		e.setAddr(a)
		w, err := e.RF.GetAddressable(rx, e.Desc.AddressableRegs)
		if err != nil {
			return err
		}
		return e.RAM.Store(a, w)
	}
	return ErrInvalidOpcode
}

func (e *Engine) execPush(in isa.Instruction, dec isa.Decoded) error {
	var w word.Word
	switch e.Desc.Stack {
	case isa.StackAddressed:
		var err error
		w, err = e.RAM.Fetch(dec.Addrs[0], e.Desc.WordBits)
		if err != nil {
			return err
		}
	case isa.StackAddressLess:
		val := signExtend(dec.Addrs[0], 16)
		var err error
		w, err = word.FromSigned(e.Desc.WordBits, val)
		if err != nil {
			return err
		}
	}
	newSP := e.sp() - e.wordCells
	if err := e.checkPush(newSP); err != nil {
		return err
	}
	if err := e.RAM.Store(newSP, w); err != nil {
		return err
	}
	e.setSP(newSP)
	return nil
}

func (e *Engine) execPop(in isa.Instruction, dec isa.Decoded) error {
	sp := e.sp()
	switch e.Desc.Stack {
	case isa.StackAddressed:
		w, err := e.RAM.Fetch(sp, e.Desc.WordBits)
		if err != nil {
			return err
		}
		newSP := sp + e.wordCells
		if err := e.checkPop(newSP); err != nil {
			return err
		}
		if err := e.RAM.Store(dec.Addrs[0], w); err != nil {
			return err
		}
		e.setSP(newSP)
	case isa.StackAddressLess:
		newSP := sp + dec.Addrs[0]
		if err := e.checkPop(newSP); err != nil {
			return err
		}
		e.setSP(newSP)
	}
	return nil
}

func (e *Engine) execDup() error {
	sp := e.sp()
	w, err := e.RAM.Fetch(sp, e.Desc.WordBits)
	if err != nil {
		return err
	}
	newSP := sp - e.wordCells
	if err := e.checkPush(newSP); err != nil {
		return err
	}
	if err := e.RAM.Store(newSP, w); err != nil {
		return err
	}
	e.setSP(newSP)
	return nil
}

func (e *Engine) execSwap(in isa.Instruction, dec isa.Decoded) error {
	if e.Desc.Writeback == isa.WritebackAccumulator {
		sv, err := e.RF.Get("S")
		if err != nil {
			return err
		}
		s1v, err := e.RF.Get("S1")
		if err != nil {
			return err
		}
		e.RF.Set("S", s1v)
		e.RF.Set("S1", sv)
		return nil
	}
	if e.Desc.Writeback == isa.WritebackRegister {
		ra, rb := dec.Regs[0], dec.Regs[1]
		va, err := e.RF.GetAddressable(ra, e.Desc.AddressableRegs)
		if err != nil {
			return err
		}
		vb, err := e.RF.GetAddressable(rb, e.Desc.AddressableRegs)
		if err != nil {
			return err
		}
		e.RF.SetAddressable(ra, e.Desc.AddressableRegs, vb)
		e.RF.SetAddressable(rb, e.Desc.AddressableRegs, va)
		return nil
	}

	sp := e.sp()
	var otherAddr uint32
	if e.Desc.Stack == isa.StackAddressLess {
		otherAddr = sp + dec.Addrs[0]*e.wordCells
	} else {
		otherAddr = sp + e.wordCells
	}
	a, err := e.RAM.Fetch(sp, e.Desc.WordBits)
	if err != nil {
		return err
	}
	b, err := e.RAM.Fetch(otherAddr, e.Desc.WordBits)
	if err != nil {
		return err
	}
	if err := e.RAM.Store(sp, b); err != nil {
		return err
	}
	return e.RAM.Store(otherAddr, a)
}

func (e *Engine) computeJumpTarget(dec isa.Decoded) uint32 {
	switch e.Desc.Jump {
	case isa.JumpModifierBase:
		return e.modAddr(dec.Regs[0], dec.Addrs[0])
	case isa.JumpPCRelative:
		pcw, _ := e.RF.Get("PC")
		pc := int64(pcw.AsUnsigned())
		disp := signExtend(dec.Addrs[0], 16)
		size := int64(e.addrMask()) + 1
		sum := pc + disp
		wrapped := ((sum % size) + size) % size
		return uint32(wrapped)
	default:
		return dec.Addrs[len(dec.Addrs)-1] & e.addrMask()
	}
}

func (e *Engine) execJump(in isa.Instruction, dec isa.Decoded, take bool) error {
	if !take {
		return nil
	}
	target := e.computeJumpTarget(dec)
	e.setAddr(target)
	return e.RF.Set("PC", word.MustNew(e.Desc.AddressBits, uint64(target)))
}

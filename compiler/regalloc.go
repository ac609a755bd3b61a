package compiler

import (
	"sort"

	"github.com/tunnelvisionlabs/nasmjit-sub000/asm"
)

// gpPool and xmmPool are the physical registers the allocator may hand to a
// Variable. RSP and RBP are reserved for the frame itself and never appear
// here (spec.md §4.4.4).
var gpPool = []asm.Reg{
	asm.RAX, asm.RCX, asm.RDX, asm.RBX, asm.RSI, asm.RDI,
	asm.R8, asm.R9, asm.R10, asm.R11, asm.R12, asm.R13, asm.R14, asm.R15,
}

var xmmPool = asm.XMM // all 16 are fair game; none are callee-saved on either ABI

// allocation is the result of running the register allocator over one
// function body: which callee-saved registers its body actually clobbers
// (so the prologue only pushes what it must), and how many bytes of spill
// slots its frame needs below the saved registers.
type allocation struct {
	clobberedCalleeSaved []asm.Reg
	frameSize            int
}

// liveInterval pairs a Variable with the bookkeeping the scan mutates as it
// runs; it does not duplicate firstUse/lastUse, which liveness.go already
// wrote onto the Variable itself.
type liveInterval struct {
	v *Variable
}

// allocateFunction runs a linear-scan allocator (spec.md §4.4.3) over the
// variables referenced between decl and its matching FunctionEnd,
// honoring argument registers already fixed by decl's calling convention,
// Pin()/Unpin() locks, and PreferRegister() hints.
func allocateFunction(decl *FunctionDecl, body []*Variable, conv CallingConvention) *allocation {
	alloc := &allocation{}

	intervals := make([]*liveInterval, 0, len(body))
	for _, v := range body {
		intervals = append(intervals, &liveInterval{v: v})
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].v.firstUse < intervals[j].v.firstUse
	})

	freeGP := append([]asm.Reg(nil), gpPool...)
	freeXMM := append([]asm.Reg(nil), xmmPool...)
	var activeGP, activeXMM []*liveInterval
	nextSlot := 0
	incomingSlot := 16 // above the saved return address and rbp

	bindArg := func(v *Variable, reg asm.Reg) {
		v.loc = location{placed: true, inRegister: true, reg: reg}
		removeReg(poolFor(v, &freeGP, &freeXMM), reg)
		markClobbered(alloc, conv, reg)
	}

	gi, fi := 0, 0
	for _, a := range decl.Args {
		if a.Kind.RegisterType() == RegisterTypeXMM {
			if fi < len(conv.FloatArgRegs) {
				bindArg(a, conv.FloatArgRegs[fi])
				fi++
				continue
			}
		} else {
			if gi < len(conv.IntArgRegs) {
				bindArg(a, conv.IntArgRegs[gi])
				gi++
				continue
			}
		}
		// Exhausted the convention's register slots: this argument
		// arrives on the incoming stack frame, addressed relative to
		// rbp by the prologue; regalloc treats it as pre-spilled.
		v := a
		v.loc = location{placed: true, inRegister: false, stackSlot: incomingSlot, incoming: true}
		incomingSlot += 8
	}

	for _, in := range intervals {
		v := in.v
		if v.loc.placed {
			continue // already placed as an incoming argument above
		}
		if v.firstUse == 0 && v.lastUse == 0 {
			continue // never referenced; no home needed
		}

		isXMM := v.Kind.RegisterType() == RegisterTypeXMM
		active := &activeGP
		free := &freeGP
		if isXMM {
			active = &activeXMM
			free = &freeXMM
		}

		expireOldIntervals(active, v.firstUse, free)

		if reg, ok := takePreferredOrFree(v, free); ok {
			v.loc = location{placed: true, inRegister: true, reg: reg}
			markClobbered(alloc, conv, reg)
			*active = insertActive(*active, in)
			continue
		}

		victim := chooseVictim(*active)
		if victim == nil {
			// Nothing evictable (every active interval pinned): fall
			// back to a stack slot directly rather than violate a pin.
			v.loc = location{placed: true, inRegister: false, stackSlot: nextSlot}
			nextSlot += 8
			continue
		}

		reg := victim.v.loc.reg
		spillSlot := nextSlot
		nextSlot += 8
		victim.v.loc = location{placed: true, inRegister: false, stackSlot: spillSlot}
		*active = removeActive(*active, victim)

		v.loc = location{placed: true, inRegister: true, reg: reg}
		*active = insertActive(*active, in)
	}

	alloc.frameSize = nextSlot
	return alloc
}

func poolFor(v *Variable, gp, xmm *[]asm.Reg) *[]asm.Reg {
	if v.Kind.RegisterType() == RegisterTypeXMM {
		return xmm
	}
	return gp
}

func removeReg(pool *[]asm.Reg, reg asm.Reg) {
	for i, r := range *pool {
		if r == reg {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return
		}
	}
}

func markClobbered(alloc *allocation, conv CallingConvention, reg asm.Reg) {
	for _, cs := range conv.CalleeSaved {
		if cs == reg {
			for _, already := range alloc.clobberedCalleeSaved {
				if already == reg {
					return
				}
			}
			alloc.clobberedCalleeSaved = append(alloc.clobberedCalleeSaved, reg)
			return
		}
	}
}

// expireOldIntervals removes active intervals whose lastUse has passed
// pos, returning their registers to free.
func expireOldIntervals(active *[]*liveInterval, pos int, free *[]asm.Reg) {
	kept := (*active)[:0]
	for _, in := range *active {
		if in.v.lastUse < pos {
			*free = append(*free, in.v.loc.reg)
			continue
		}
		kept = append(kept, in)
	}
	*active = kept
}

func takePreferredOrFree(v *Variable, free *[]asm.Reg) (asm.Reg, bool) {
	if v.preferredReg != nil {
		for i, r := range *free {
			if r == *v.preferredReg {
				*free = append((*free)[:i], (*free)[i+1:]...)
				return r, true
			}
		}
	}
	if len(*free) == 0 {
		return asm.Reg{}, false
	}
	r := (*free)[0]
	*free = (*free)[1:]
	return r, true
}

func insertActive(active []*liveInterval, in *liveInterval) []*liveInterval {
	i := sort.Search(len(active), func(i int) bool { return active[i].v.lastUse > in.v.lastUse })
	active = append(active, nil)
	copy(active[i+1:], active[i:])
	active[i] = in
	return active
}

func removeActive(active []*liveInterval, victim *liveInterval) []*liveInterval {
	for i, in := range active {
		if in == victim {
			return append(active[:i], active[i+1:]...)
		}
	}
	return active
}

// chooseVictim picks the active interval to spill when no register is free
// (spec.md §4.4.3): locked (pinned) variables are never candidates; among
// the rest, the one whose live interval ends farthest away (largest
// lastUse) is chosen; ties break toward the lower-Priority variable. Every
// active interval is in a register, so no candidate already holds a stack
// slot.
func chooseVictim(active []*liveInterval) *liveInterval {
	var best *liveInterval
	for _, in := range active {
		if in.v.pin {
			continue
		}
		if best == nil {
			best = in
			continue
		}
		if betterVictim(in, best) {
			best = in
		}
	}
	return best
}

func betterVictim(a, b *liveInterval) bool {
	if a.v.lastUse != b.v.lastUse {
		return a.v.lastUse > b.v.lastUse
	}
	return a.v.Priority < b.v.Priority
}

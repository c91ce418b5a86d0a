package remap

import (
	"fmt"

	"github.com/resopt/internal/dex"
	"github.com/resopt/pkg/collections"
	"github.com/resopt/pkg/resid"
)

// Group is one reconstructed constant-array declaration inside a
// static initializer: the const that defines the size, the new-array
// that allocates, the fill-array-data that populates, and optionally
// the sput-object that publishes the array.
type Group struct {
	SizeIndex  int // size-defining const
	AllocIndex int // new-array
	FillIndex  int // fill-array-data
	StoreIndex int // consuming sput-object, -1 if none

	SizeReg  dex.Register
	ArrayReg dex.Register

	// IDs is the decoded element sequence in payload order.
	IDs []resid.ID

	// Customized tags groups from app-specific holder classes; it only
	// affects diagnostics, never matching.
	Customized bool
}

// Skip records an array allocation that did not complete the holder
// idiom and was left untouched.
type Skip struct {
	AllocIndex int
	Reason     string
}

// ScanGroups reconstructs the constant-array groups of one straight-
// line static initializer. The idiom a compiler emits is
//
//	const vS, #len
//	new-array vA, vS
//	fill-array-data vA, <payload>
//	sput-object vA, <field>
//
// possibly interleaved with unrelated instructions. An allocation
// whose array register is clobbered or consumed by a non-store before
// its fill is not a resource array and is skipped. A missing size
// definer, an undecodable payload or a size/payload disagreement is a
// structural error that fails the whole class.
func ScanGroups(code *dex.MethodCode) ([]*Group, []Skip, error) {
	if code == nil {
		return nil, nil, nil
	}
	instrs := code.Instrs

	var groups []*Group
	var skips []Skip
	claimedFills := collections.NewBitset(len(instrs))

	for i, ins := range instrs {
		if ins.Op != dex.OpNewArray || len(ins.Srcs) == 0 {
			continue
		}
		sizeReg := ins.Srcs[0]
		arrayReg := ins.Dest

		sizeIdx, err := findSizeDefiner(instrs, i, sizeReg)
		if err != nil {
			return nil, nil, err
		}

		fillIdx, reason := findFill(instrs, i, arrayReg, claimedFills)
		if fillIdx < 0 {
			skips = append(skips, Skip{AllocIndex: i, Reason: reason})
			continue
		}

		ids, err := dex.DecodeResourcePayload(instrs[fillIdx].Payload)
		if err != nil {
			return nil, nil, err
		}
		if declared := instrs[sizeIdx].Literal; declared != int64(len(ids)) {
			return nil, nil, malformedInitializerf(
				"allocation at %d declares %d elements but payload holds %d", i, declared, len(ids))
		}

		claimedFills.Set(fillIdx)
		groups = append(groups, &Group{
			SizeIndex:  sizeIdx,
			AllocIndex: i,
			FillIndex:  fillIdx,
			StoreIndex: findStore(instrs, fillIdx, arrayReg),
			SizeReg:    sizeReg,
			ArrayReg:   arrayReg,
			IDs:        ids,
		})
	}
	return groups, skips, nil
}

// findSizeDefiner scans backward from the allocation for the most
// recent write to the size register, which must be a constant load.
func findSizeDefiner(instrs []*dex.Instruction, allocIdx int, sizeReg dex.Register) (int, error) {
	for j := allocIdx - 1; j >= 0; j-- {
		if !instrs[j].WritesTo(sizeReg) {
			continue
		}
		if instrs[j].Op != dex.OpConst {
			return 0, malformedInitializerf(
				"size register v%d of allocation at %d defined by %s, not a const", sizeReg, allocIdx, instrs[j].Op)
		}
		return j, nil
	}
	return 0, malformedInitializerf("no size definer for allocation at %d (v%d)", allocIdx, sizeReg)
}

// findFill scans forward from the allocation for the fill-array-data
// populating the array register. It returns -1 and a reason when the
// register is reassigned or consumed first, meaning the allocation is
// not part of the holder idiom.
func findFill(instrs []*dex.Instruction, allocIdx int, arrayReg dex.Register, claimed *collections.Bitset) (int, string) {
	for k := allocIdx + 1; k < len(instrs); k++ {
		ins := instrs[k]
		if ins.Op == dex.OpFillArrayData && ins.Reads(arrayReg) {
			if claimed.Test(k) {
				return -1, fmt.Sprintf("fill at %d already claimed by an earlier group", k)
			}
			return k, ""
		}
		if ins.WritesTo(arrayReg) {
			return -1, fmt.Sprintf("v%d reassigned at %d before fill", arrayReg, k)
		}
		if ins.Reads(arrayReg) && ins.Op != dex.OpSPutObject {
			return -1, fmt.Sprintf("v%d consumed by %s at %d before fill", arrayReg, ins.Op, k)
		}
	}
	return -1, "no fill before end of method"
}

// findStore locates the sput-object publishing the filled array, if
// the stream still holds one after the fill.
func findStore(instrs []*dex.Instruction, fillIdx int, arrayReg dex.Register) int {
	for k := fillIdx + 1; k < len(instrs); k++ {
		ins := instrs[k]
		if ins.Op == dex.OpSPutObject && ins.Reads(arrayReg) {
			return k
		}
		if ins.WritesTo(arrayReg) {
			break
		}
	}
	return -1
}

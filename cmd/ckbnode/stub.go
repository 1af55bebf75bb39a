package main

import (
	"github.com/nervosnetwork/ckb-go/types"
)

// noopExecutor is the integration seam for a real script VM
// (verify.ScriptExecutor). The VM itself is a stated black box; this
// stub lets the wiring in main.go compile and run end to end against
// scriptless transactions, the same way the teacher's backend wires an
// interface before a concrete engine exists.
type noopExecutor struct{}

func (noopExecutor) Execute(rtx *types.ResolvedTransaction) (uint64, error) {
	return 0, nil
}

// noopHeaderResolver resolves no header deps; a real node would back
// this with the chain store plus whatever pending-header map the
// compact-block path is reconstructing against (spec.md §4.3 step 4).
type noopHeaderResolver struct{}

func (noopHeaderResolver) ResolveHeaderDep(h types.Hash) (*types.Header, bool) {
	return nil, false
}

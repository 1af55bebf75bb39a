// Package diag provides operator-facing debug dumps; nothing here sits
// on the consensus or propagation path.
package diag

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/nervosnetwork/ckb-go/peer"
)

// PeerRow is one line of the peer-table dump.
type PeerRow struct {
	ID              string
	Outbound        bool
	State           peer.State
	BestKnownNumber uint64
	Score           uint64
	Protected       bool
}

// WritePeerTable renders rows as an ASCII table to w, for `--dump-peers`
// style operator tooling (spec.md §7 "surfaced to operator: repeated
// bans, IBD stalls").
func WritePeerTable(w io.Writer, rows []PeerRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Peer", "Outbound", "State", "Best#", "Score", "Protected"})
	for _, r := range rows {
		table.Append([]string{
			r.ID,
			fmt.Sprintf("%v", r.Outbound),
			stateName(r.State),
			fmt.Sprintf("%d", r.BestKnownNumber),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%v", r.Protected),
		})
	}
	table.Render()
}

func stateName(s peer.State) string {
	switch s {
	case peer.StateUnknown:
		return "unknown"
	case peer.StateHandshakeSent:
		return "handshake_sent"
	case peer.StateHeaders:
		return "headers"
	case peer.StateBlocks:
		return "blocks"
	case peer.StateStalled:
		return "stalled"
	case peer.StateBanned:
		return "banned"
	default:
		return "?"
	}
}

// WritePeerTableYAML renders rows as YAML, for operators scripting
// against `--dump-peers` output instead of reading the ASCII table.
func WritePeerTableYAML(w io.Writer, rows []PeerRow) error {
	return yaml.NewEncoder(w).Encode(rows)
}

// RowsFromRegistry snapshots a peer.Registry into PeerRow form.
func RowsFromRegistry(registry *peer.Registry) []PeerRow {
	rows := make([]PeerRow, 0, registry.Len())
	for _, id := range registry.IDs() {
		p, ok := registry.Get(id)
		if !ok {
			continue
		}
		_, number := p.BestKnownHeader()
		rows = append(rows, PeerRow{
			ID:              string(id),
			Outbound:        p.Outbound,
			State:           p.State(),
			BestKnownNumber: number,
			Score:           p.Score(),
			Protected:       p.Protected,
		})
	}
	return rows
}

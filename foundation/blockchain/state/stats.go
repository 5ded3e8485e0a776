package state

import "sync/atomic"

// MiningStats represents the outcome counters of the mining cycles run
// by this node.
type MiningStats struct {
	Mined     uint64 `json:"mined"`
	Exhausted uint64 `json:"exhausted"`
	Rejected  uint64 `json:"rejected"`
	Cancelled uint64 `json:"cancelled"`
	Proposed  uint64 `json:"proposed"`
}

type stats struct {
	mined     atomic.Uint64
	exhausted atomic.Uint64
	rejected  atomic.Uint64
	cancelled atomic.Uint64
	proposed  atomic.Uint64
}

func (st *stats) snapshot() MiningStats {
	return MiningStats{
		Mined:     st.mined.Load(),
		Exhausted: st.exhausted.Load(),
		Rejected:  st.rejected.Load(),
		Cancelled: st.cancelled.Load(),
		Proposed:  st.proposed.Load(),
	}
}

package sync

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/types"
)

// BlockDownloadWindow bounds how many heights beyond the current tip may
// be in flight at once (spec.md §4.2, §5 backpressure).
const BlockDownloadWindow = 8192

// Per-peer adaptive batch size bounds.
const (
	MinBatchSize = 16
	MaxBatchSize = 128
)

// Checkpoint is how often (in blocks) the scheduler re-evaluates a
// peer's batch size against the rolling time trace (spec.md §4.2).
const Checkpoint = 512

// Rolling-trace adaptive thresholds, preserved verbatim (spec.md §9 open
// question 2): fast, normal, low.
const (
	thresholdFast   = 1.0 / 3.0
	thresholdNormal = 4.0 / 5.0
	thresholdLow    = 9.0 / 10.0
)

// BlockFetchTimeout is the per-request deadline for an outstanding block
// download (spec.md §4.2).
const BlockFetchTimeout = 30 * time.Second

// SlowPeerThroughput and ExpectedHeaderRate are the throughput targets
// from spec.md §4.2 used to flag a peer as a disconnection candidate.
const (
	SlowPeerThroughput = 75 * 1024 // bytes/sec
	ExpectedHeaderRate = 1600      // headers/sec, global target
)

type inflightEntry struct {
	peerID  string
	started time.Time
}

// Scheduler assigns in-window heights to peers and adapts each peer's
// batch size from a 512-sample rolling arrival-time trace.
type Scheduler struct {
	mu        sync.Mutex
	inflight  map[uint64]inflightEntry
	batchSize map[string]int
	trace     map[string][]time.Duration // per-peer rolling sample of per-block arrival latency
	pending   *lru.Cache[types.Hash, *types.Block] // orphan blocks awaiting their parent
}

func NewScheduler(pendingCapacity int) (*Scheduler, error) {
	pending, err := lru.New[types.Hash, *types.Block](pendingCapacity)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		inflight:  make(map[uint64]inflightEntry),
		batchSize: make(map[string]int),
		trace:     make(map[string][]time.Duration),
		pending:   pending,
	}, nil
}

// BatchSizeFor returns a peer's current adaptive batch size, defaulting
// to the minimum for a peer never observed before.
func (s *Scheduler) BatchSizeFor(p *peer.Peer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := string(p.ID)
	if n, ok := s.batchSize[id]; ok {
		return n
	}
	s.batchSize[id] = MinBatchSize
	return MinBatchSize
}

// RequestBlock marks height as in flight to p, refusing if the global
// download window is already full.
func (s *Scheduler) RequestBlock(p *peer.Peer, height uint64, tip uint64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > tip+BlockDownloadWindow {
		return false
	}
	if _, inflight := s.inflight[height]; inflight {
		return false
	}
	s.inflight[height] = inflightEntry{peerID: string(p.ID), started: now}
	return true
}

// ReceiveBlock records a successful arrival, folding its latency into
// the peer's rolling trace and re-evaluating the batch size every
// Checkpoint blocks.
func (s *Scheduler) ReceiveBlock(p *peer.Peer, height uint64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.inflight[height]
	if !ok {
		return
	}
	delete(s.inflight, height)

	id := string(p.ID)
	latency := now.Sub(entry.started)
	trace := append(s.trace[id], latency)
	if len(trace) > Checkpoint {
		trace = trace[len(trace)-Checkpoint:]
	}
	s.trace[id] = trace

	if len(trace)%Checkpoint == 0 {
		s.batchSize[id] = adaptBatchSize(s.batchSize[id], trace)
		s.trace[id] = nil
	}
}

// Timeout reports whether the in-flight request for height has exceeded
// BlockFetchTimeout, so the caller can score the peer. Only an expired
// request is released back to the pool; one still within the timeout
// stays in flight.
func (s *Scheduler) Timeout(height uint64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.inflight[height]
	if !ok {
		return false
	}
	expired := now.Sub(entry.started) >= BlockFetchTimeout
	if expired {
		delete(s.inflight, height)
	}
	return expired
}

// AddPending stores an orphan block awaiting its parent, evicted by the
// bounded LRU's last-inserted-wins policy (spec.md §9).
func (s *Scheduler) AddPending(b *types.Block) {
	s.pending.Add(b.Hash(), b)
}

func (s *Scheduler) TakePending(hash types.Hash) (*types.Block, bool) {
	return s.pending.Get(hash)
}

// adaptBatchSize compares the trace's average latency against each named
// threshold fraction of the current batch window's expected duration and
// nudges the per-peer batch size within [MinBatchSize, MaxBatchSize].
func adaptBatchSize(current int, trace []time.Duration) int {
	if current == 0 {
		current = MinBatchSize
	}
	var total time.Duration
	for _, d := range trace {
		total += d
	}
	avg := total / time.Duration(len(trace))
	expected := time.Second / ExpectedHeaderRate * time.Duration(current)

	switch {
	case avg <= time.Duration(float64(expected)*thresholdFast):
		current += current / 2
	case avg <= time.Duration(float64(expected)*thresholdNormal):
		current += current / 8
	case avg >= time.Duration(float64(expected)*thresholdLow):
		current -= current / 4
	}

	if current < MinBatchSize {
		current = MinBatchSize
	}
	if current > MaxBatchSize {
		current = MaxBatchSize
	}
	return current
}

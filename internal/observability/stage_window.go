package observability

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Chat pipeline stages, in the order a turn runs them.
const (
	StageLookupProfile  = "lookup_profile"
	StageResolveSession = "resolve_session"
	StageLoadMemory     = "load_memory"
	StageGenerate       = "generate"
	StageRecordTurn     = "record_turn"
	StageTotal          = "turn_total"
)

var pipelineOrder = []string{
	StageLookupProfile,
	StageResolveSession,
	StageLoadMemory,
	StageGenerate,
	StageRecordTurn,
	StageTotal,
}

// stageBudgetMS is the p95 latency each stage is expected to stay under.
var stageBudgetMS = map[string]float64{
	StageLookupProfile:  50,
	StageResolveSession: 50,
	StageLoadMemory:     100,
	StageGenerate:       8000,
	StageRecordTurn:     150,
	StageTotal:          9000,
}

// StageStats summarizes the retained samples of one stage.
type StageStats struct {
	Stage      string  `json:"stage"`
	Samples    int     `json:"samples"`
	Failures   int     `json:"failures"`
	OverBudget int     `json:"over_budget"`
	LastMS     float64 `json:"last_ms"`
	AvgMS      float64 `json:"avg_ms"`
	P50MS      float64 `json:"p50_ms"`
	P95MS      float64 `json:"p95_ms"`
	MaxMS      float64 `json:"max_ms"`
	BudgetMS   float64 `json:"budget_ms,omitempty"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
}

type sample struct {
	ms     float64
	failed bool
}

// stageWindow retains the most recent samples per stage.
type stageWindow struct {
	mu      sync.Mutex
	size    int
	samples map[string][]sample
	last    map[string]float64
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	return &stageWindow{
		size:    size,
		samples: make(map[string][]sample),
		last:    make(map[string]float64),
	}
}

func (w *stageWindow) Observe(stage string, ms float64, failed bool) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := append(w.samples[stage], sample{ms: ms, failed: failed})
	if len(kept) > w.size {
		kept = slices.Clone(kept[len(kept)-w.size:])
	}
	w.samples[stage] = kept
	w.last[stage] = ms
}

func (w *stageWindow) Snapshot() StageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := make([]StageStats, 0, len(w.samples))
	for _, stage := range orderedStages(w.samples) {
		st := summarize(stage, w.samples[stage])
		st.LastMS = round2(w.last[stage])
		stats = append(stats, st)
	}
	return StageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Stages:      stats,
	}
}

// orderedStages lists known stages in pipeline order, then any others by name.
func orderedStages(seen map[string][]sample) []string {
	out := make([]string, 0, len(seen))
	for _, stage := range pipelineOrder {
		if len(seen[stage]) > 0 {
			out = append(out, stage)
		}
	}
	var extra []string
	for stage, s := range seen {
		if len(s) > 0 && !slices.Contains(pipelineOrder, stage) {
			extra = append(extra, stage)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func summarize(stage string, window []sample) StageStats {
	budget := stageBudgetMS[stage]
	values := make([]float64, 0, len(window))
	st := StageStats{Stage: stage, Samples: len(window), BudgetMS: budget}

	sum := 0.0
	for _, s := range window {
		values = append(values, s.ms)
		sum += s.ms
		if s.failed {
			st.Failures++
		}
		if budget > 0 && s.ms > budget {
			st.OverBudget++
		}
	}
	if len(values) == 0 {
		return st
	}
	slices.Sort(values)
	st.AvgMS = round2(sum / float64(len(values)))
	st.P50MS = round2(percentile(values, 50))
	st.P95MS = round2(percentile(values, 95))
	st.MaxMS = round2(values[len(values)-1])
	return st
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	rank = max(1, min(rank, len(sorted)))
	return sorted[rank-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

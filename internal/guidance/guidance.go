// Package guidance implements the Zest-style fuzzing loop: seed queue,
// saved-input scheduling, responsibility bookkeeping, failure
// deduplication, cycle accounting, and wall-clock termination.
//
// Grounded primarily on shwoo03-Project/smart web fuzzer's
// internal/coverage/feedback.go (FeedbackLoop.run's select-mutate-execute-
// record shape, FeedbackStats) and internal/coverage/corpus.go (the saved-
// entry metadata model), with the single-writer concurrency rule from the
// specification's resource model: everything in this file runs on the one
// fuzzing goroutine except the counters in stats.go and atomic.go.
package guidance

import (
	"context"
	"fmt"
	"time"

	"github.com/neu-se/covguide/internal/coverage"
	"github.com/neu-se/covguide/internal/index"
	"github.com/neu-se/covguide/internal/input"
	"github.com/neu-se/covguide/internal/trace"
	pguidance "github.com/neu-se/covguide/pkg/guidance"
)

// Persister is the subset of internal/persist's Store this package depends
// on, expressed as a local interface so internal/persist need not import
// internal/guidance.
type Persister interface {
	PurgeCorpusAndFailures() error
	SaveCorpusEntry(id uint64, data []byte) error
	SaveFailureEntry(seq uint64, data []byte) error
	WriteCurrentInput(data []byte) error
	AppendStatsLine(line string) error
}

// DuplicateChecker is the subset of internal/dedupe's Filter this package
// depends on.
type DuplicateChecker interface {
	IsDuplicate(data []byte) bool
	Observe(data []byte)
}

// timeoutPanic is raised from OnEvent when a per-run timeout is exceeded,
// and recovered around the synchronous call into the target executor: this
// is the idiomatic Go analogue of "raised from the trace callback; caught
// by the classifier" for a model where harness and guidance share one
// call stack (Non-goals excludes multi-threaded target execution).
type timeoutPanic struct{}

// Fuzzer drives the guidance loop described in section 4.5 of the design.
type Fuzzer struct {
	cfg Config
	rng *input.Rng
	log *Logger

	persist Persister
	dedupe  DuplicateChecker

	router  *trace.Router
	indexer *index.Indexer
	run     *coverage.RunCoverage

	cumulativeTotal *coverage.CumulativeCoverage
	cumulativeValid *coverage.CumulativeCoverage
	responsibleFor  map[coverage.EdgeID]*SavedInput
	locations       input.LocationMap

	seedQueue []*input.LinearInput
	saved     []*SavedInput
	failures  *FailureSet

	currentParentIdx  int
	childrenGenerated int
	cyclesDone        int

	nextSavedID   uint64
	nextFailureID uint64

	stats *Stats

	// per-run state
	currentParent *SavedInput
	currentLinear *input.LinearInput
	currentMapped *input.MappedInput
	linearCursor  int
	runStart      time.Time
	eventCount    int64

	startTime time.Time
}

// New constructs a Fuzzer. persist and dedupe may be nil for tests that do
// not need persistence or near-duplicate filtering.
func New(cfg Config, persist Persister, dedupe DuplicateChecker, log *Logger) *Fuzzer {
	input.EnableSubtreeSplice(cfg.SpliceSubtree)

	f := &Fuzzer{
		cfg:             cfg,
		rng:             input.NewRng(cfg.Seed),
		log:             log,
		persist:         persist,
		dedupe:          dedupe,
		indexer:         index.New(cfg.EnableExecutionIndexing),
		run:             coverage.NewRunCoverage(),
		cumulativeTotal: coverage.NewCumulativeCoverage(),
		cumulativeValid: coverage.NewCumulativeCoverage(),
		responsibleFor:  make(map[coverage.EdgeID]*SavedInput),
		locations:       make(input.LocationMap),
		failures:        NewFailureSet(),
		stats:           NewStats(),
		startTime:       time.Now(),
	}
	f.router = trace.NewRouter(f)
	return f
}

// Stats exposes the counters for internal/ui and internal/web.
func (f *Fuzzer) Stats() *Stats { return f.stats }

// GenerateCallback returns the per-target-thread trace callback, rejecting
// a second distinct thread per the concurrency model.
func (f *Fuzzer) GenerateCallback(thread uint64) trace.Callback {
	return f.router.GenerateCallback(thread)
}

// AddSeed inserts a seed input at the back of the FIFO seed queue.
func (f *Fuzzer) AddSeed(data []byte) {
	f.seedQueue = append(f.seedQueue, input.NewLinearInputFromBytes(f.cfg.inputLimits(), data))
}

// HasInput reports whether the loop should keep running: the global
// duration budget is checked at every call, per the spec's "global
// duration is checked at each has_input call."
func (f *Fuzzer) HasInput() bool {
	return time.Since(f.startTime) < f.cfg.MaxDuration
}

// GetInput selects the next input to run (seed, fresh, or a mutated child
// of the current parent) and prepares the per-run state, returning a
// ByteStream the harness drains.
func (f *Fuzzer) GetInput() (pguidance.ByteStream, error) {
	f.resetRunState()

	if len(f.seedQueue) > 0 {
		f.currentLinear = f.seedQueue[0]
		f.seedQueue = f.seedQueue[1:]
		f.currentParent = nil
		return f, nil
	}

	if len(f.saved) == 0 {
		if !f.cfg.TotallyRandom && f.stats.Trials() > NoCoverageTrialAbortAt {
			return nil, fmt.Errorf("guidance: no coverage after %d trials", NoCoverageTrialAbortAt)
		}
		if f.cfg.EnableExecutionIndexing {
			f.currentMapped = input.NewMappedInput(f.cfg.inputLimits())
		} else {
			f.currentLinear = input.NewLinearInput(f.cfg.inputLimits())
		}
		f.currentParent = nil
		return f, nil
	}

	maxCoverage := f.cumulativeTotal.NonZeroCount()
	parent := f.saved[f.currentParentIdx]
	if f.childrenGenerated >= parent.TargetChildren(maxCoverage) {
		f.currentParentIdx = (f.currentParentIdx + 1) % len(f.saved)
		f.childrenGenerated = 0
		if f.currentParentIdx == 0 {
			if err := f.completeCycle(); err != nil {
				return nil, err
			}
		}
		parent = f.saved[f.currentParentIdx]
	}
	f.stats.SetCurParentIdx(f.currentParentIdx)

	if parent.Linear != nil {
		f.currentLinear = parent.Linear.Fuzz(f.rng)
	} else {
		f.currentMapped = parent.Mapped.Fuzz(f.rng, f.locations)
	}
	f.currentParent = parent
	f.childrenGenerated++
	return f, nil
}

func (f *Fuzzer) resetRunState() {
	f.run.Clear()
	f.indexer.Reset()
	f.linearCursor = 0
	f.eventCount = 0
	f.runStart = time.Now()
	f.currentLinear = nil
	f.currentMapped = nil
}

// NextByte implements pkg/guidance.ByteStream, satisfied by the Fuzzer
// itself so GetInput need not allocate a separate stream wrapper.
func (f *Fuzzer) NextByte() (int, error) {
	if f.currentMapped != nil {
		ei := f.indexer.NextByteIndex()
		return f.currentMapped.GetOrGenerateFresh(ei, f.rng)
	}
	v, err := f.currentLinear.GetOrGenerateFresh(f.linearCursor, f.rng)
	if err != nil {
		return 0, err
	}
	f.linearCursor++
	return v, nil
}

// OnEvent implements trace.Sink. It updates run coverage and the indexer,
// then every TraceEventTimeoutPollEvery events checks the per-run timeout.
func (f *Fuzzer) OnEvent(ev trace.Event) {
	switch ev.Kind {
	case trace.Branch:
		f.run.OnBranchEvent(ev.IID, ev.Arm)
	case trace.Call:
		f.run.OnCallEvent(ev.IID)
		f.indexer.OnCall(ev.IID)
	case trace.Return:
		f.indexer.OnReturn()
	case trace.DirectLog:
		f.run.LogCoverage(ev.IID, ev.Arm)
	}

	f.eventCount++
	if f.cfg.PerRunTimeout > 0 && f.eventCount%TraceEventTimeoutPollEvery == 0 {
		if time.Since(f.runStart) > f.cfg.PerRunTimeout {
			panic(timeoutPanic{})
		}
	}
}

// RunOnce executes one trial against exec, recovering a timeoutPanic raised
// from OnEvent and classifying the result. This is the synchronous
// "execute, then classify" shape a caller's Run loop invokes each
// iteration.
func (f *Fuzzer) RunOnce(exec pguidance.Executor) error {
	if !f.HasInput() {
		return nil
	}
	stream, err := f.GetInput()
	if err != nil {
		return err
	}

	if f.persist != nil {
		var data []byte
		if f.currentMapped != nil {
			data = f.currentMapped.Bytes()
		} else {
			data = f.currentLinear.Bytes()
		}
		if err := f.persist.WriteCurrentInput(data); err != nil {
			f.log.Logf(1, "persist current input: %v", err)
		}
	}

	outcome, runErr := f.safeExecute(exec, stream)
	f.stats.IncTrials()
	return f.handleResult(outcome, runErr)
}

func (f *Fuzzer) safeExecute(exec pguidance.Executor, stream pguidance.ByteStream) (outcome pguidance.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(timeoutPanic); ok {
				outcome = pguidance.Timeout
				err = fmt.Errorf("per-run timeout exceeded after %s", f.cfg.PerRunTimeout)
				return
			}
			panic(r) // not ours: propagate (e.g. a genuine invariant panic)
		}
	}()
	return exec.Execute(stream)
}

// handleResult performs step 4 of the guidance loop: classification,
// responsibility computation/stealing, save decision, and failure dedup.
func (f *Fuzzer) handleResult(outcome pguidance.Outcome, runErr error) error {
	switch outcome {
	case pguidance.Success, pguidance.Invalid:
		return f.handleSuccessOrInvalid(outcome)
	case pguidance.Failure, pguidance.Timeout:
		return f.handleFailureOrTimeout(runErr)
	default:
		return fmt.Errorf("guidance: unknown outcome %v", outcome)
	}
}

func (f *Fuzzer) handleSuccessOrInvalid(outcome pguidance.Outcome) error {
	if f.currentMapped != nil {
		f.currentMapped.GC()
	} else {
		f.currentLinear.GC()
	}

	valid := outcome == pguidance.Success
	if valid {
		f.stats.IncValid()
	} else {
		f.stats.IncInvalid()
	}

	newVsTotal := f.run.ComputeNewCoverage(f.cumulativeTotal)
	var newVsValid []coverage.EdgeID
	if valid {
		newVsValid = f.run.ComputeNewCoverage(f.cumulativeValid)
	}

	stolen := map[coverage.EdgeID]*SavedInput{}
	if f.cfg.StealResponsibility {
		stolen = f.computeSteal()
	}

	totalChanged := f.cumulativeTotal.UpdateBits(f.run)
	validChanged := false
	if valid {
		validChanged = f.cumulativeValid.UpdateBits(f.run)
	}

	save := (totalChanged || validChanged) && !f.cfg.TotallyRandom
	if save {
		f.saveCurrentInput(valid, newVsTotal, newVsValid, stolen)
	}

	return nil
}

// computeSteal finds saved inputs strictly weaker than the current run
// whose full responsibility set is covered by the current run, per the
// steal-responsibility rule.
func (f *Fuzzer) computeSteal() map[coverage.EdgeID]*SavedInput {
	covered := map[coverage.EdgeID]struct{}{}
	f.run.ComputeCoveredInto(covered)

	stolen := map[coverage.EdgeID]*SavedInput{}
	curCoverage := f.run.NonZeroCount()
	curSize := f.currentSize()

	for _, cand := range f.saved {
		if len(cand.Responsibilities) == 0 {
			continue
		}
		weaker := cand.NonZeroCount < curCoverage || (cand.NonZeroCount == curCoverage && len(cand.Bytes()) > curSize)
		if !weaker {
			continue
		}
		subset := true
		for e := range cand.Responsibilities {
			if _, ok := covered[e]; !ok {
				subset = false
				break
			}
		}
		if !subset {
			continue
		}
		for e := range cand.Responsibilities {
			stolen[e] = cand
		}
	}
	return stolen
}

func (f *Fuzzer) currentSize() int {
	if f.currentMapped != nil {
		return f.currentMapped.Size()
	}
	return f.currentLinear.Size()
}

func (f *Fuzzer) saveCurrentInput(valid bool, newVsTotal, newVsValid []coverage.EdgeID, stolen map[coverage.EdgeID]*SavedInput) {
	id := f.nextSavedID
	f.nextSavedID++

	saved := &SavedInput{
		ID:               id,
		Filename:         fmt.Sprintf("id_%06d", id),
		CoverageSnapshot: f.run.Snapshot(),
		NonZeroCount:     f.run.NonZeroCount(),
		Valid:            valid,
		Linear:           f.currentLinear,
		Mapped:           f.currentMapped,
	}

	resp := make(map[coverage.EdgeID]struct{}, len(newVsTotal)+len(newVsValid)+len(stolen))
	for _, e := range newVsTotal {
		resp[e] = struct{}{}
	}
	for _, e := range newVsValid {
		resp[e] = struct{}{}
	}
	for e, owner := range stolen {
		resp[e] = struct{}{}
		owner.removeResponsibility(e)
	}
	saved.Responsibilities = resp
	for e := range resp {
		f.responsibleFor[e] = saved
	}

	if f.currentParent != nil {
		f.currentParent.OffspringCount++
	}

	// The save decision above is coverage-driven and already mutated
	// cumulativeTotal/cumulativeValid and f.responsibleFor for every edge in
	// resp, so saved must always join f.saved: completeCycle's
	// responsibility-sum invariant sums over f.saved and must match
	// cumulativeTotal.NonZeroCount() exactly. Near-duplicate detection only
	// gates the disk write, not corpus list membership.
	nearDuplicate := false
	if f.dedupe != nil {
		data := saved.Bytes()
		if f.dedupe.IsDuplicate(data) {
			nearDuplicate = true
		} else {
			f.dedupe.Observe(data)
		}
	}

	f.saved = append(f.saved, saved)
	f.stats.SetQueueSize(len(f.saved))

	if f.persist != nil && !nearDuplicate && !(f.cfg.SaveOnlyValid && !valid) {
		if err := f.persist.SaveCorpusEntry(id, saved.Bytes()); err != nil {
			f.log.Logf(1, "persist corpus entry %d: %v", id, err)
		}
	}

	if saved.Mapped != nil && f.indexer.Enabled() {
		f.indexMappedLocations(saved)
	}
}

// indexMappedLocations adds every unique key of a freshly saved mapped
// input into the ExecutionContext -> locations map, so it is immediately
// eligible as a splice source even before the next cycle rebuild. The
// per-cycle rebuild (completeCycle) later restricts this to favored
// inputs only.
func (f *Fuzzer) indexMappedLocations(saved *SavedInput) {
	seen := map[string]struct{}{}
	for _, k := range saved.Mapped.Keys() {
		key := k.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ctx := k.Context()
		f.locations[ctx] = append(f.locations[ctx], input.SpliceLocation{Source: saved.Mapped, Index: k})
	}
}

func (f *Fuzzer) handleFailureOrTimeout(runErr error) error {
	stack := captureStack(1, 32)
	sig := signatureFor(runErr, stack)

	if !f.failures.Observe(sig) {
		return nil
	}
	f.stats.IncUniqueFailures()

	seq := f.nextFailureID
	f.nextFailureID++
	if f.persist != nil {
		data := f.currentBytesForPersist()
		if err := f.persist.SaveFailureEntry(seq, data); err != nil {
			f.log.Logf(1, "persist failure entry %d: %v", seq, err)
		}
	}
	return nil
}

func (f *Fuzzer) currentBytesForPersist() []byte {
	if f.currentMapped != nil {
		f.currentMapped.GC()
		return f.currentMapped.Bytes()
	}
	f.currentLinear.GC()
	return f.currentLinear.Bytes()
}

// completeCycle performs step 5: cycle counter increment, the
// responsibility-partition invariant check, and the per-cycle
// ExecutionContext -> locations rebuild restricted to favored inputs.
func (f *Fuzzer) completeCycle() error {
	f.cyclesDone++
	f.stats.IncCyclesDone()

	total := 0
	for _, s := range f.saved {
		total += len(s.Responsibilities)
	}
	if total != f.cumulativeTotal.NonZeroCount() {
		return &pguidance.InvariantError{
			Reason: fmt.Sprintf("responsibility-sum mismatch: sum=%d cumulative=%d", total, f.cumulativeTotal.NonZeroCount()),
		}
	}

	rebuilt := make(input.LocationMap)
	for _, s := range f.saved {
		if !s.IsFavored() || s.Mapped == nil {
			continue
		}
		seen := map[string]struct{}{}
		for _, k := range s.Mapped.Keys() {
			key := k.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ctx := k.Context()
			rebuilt[ctx] = append(rebuilt[ctx], input.SpliceLocation{Source: s.Mapped, Index: k})
		}
	}
	f.locations = rebuilt
	return nil
}

// Run drives the loop to completion: while HasInput, run one trial against
// exec, periodically flushing stats through persist.
func (f *Fuzzer) Run(ctx context.Context, exec pguidance.Executor) error {
	ticker := time.NewTicker(StatsRefreshPeriod)
	defer ticker.Stop()

	for f.HasInput() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.flushStats()
		default:
		}

		if err := f.RunOnce(exec); err != nil {
			if inv, ok := err.(*pguidance.InvariantError); ok {
				return inv
			}
			return err
		}
	}
	f.flushStats()
	return nil
}

func (f *Fuzzer) flushStats() {
	f.stats.RefreshRate()
	if f.persist == nil {
		return
	}
	snap := f.stats.Snapshot()
	if err := f.persist.AppendStatsLine(snap.CSVLine()); err != nil {
		f.log.Logf(1, "append stats line: %v", err)
	}
}

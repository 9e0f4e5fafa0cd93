package input

import "github.com/neu-se/covguide/internal/index"

// DemandDrivenSpliceProbability is the probability that an absent key falls
// through to the demand-driven splice-source lookup instead of straight to
// random generation. It is zero, matching the upstream constant, and
// GetOrGenerateFresh does not read it: the demand-driven lookup there is
// unreachable in normal operation because demandSplice is never populated.
const DemandDrivenSpliceProbability = 0.0

// SpliceLocation names one byte position inside a previously saved input,
// indexed by the ExecutionContext its ExecutionIndex belongs to.
type SpliceLocation struct {
	Source *MappedInput
	Index  index.ExecutionIndex
}

// LocationMap is the ExecutionContext -> splice-location index rebuilt at
// the end of every cycle from favored inputs only.
type LocationMap map[index.ExecutionContext][]SpliceLocation

// MappedInput is an ordered mapping ExecutionIndex -> byte, plus the
// ordered list K of keys in the order they were first requested during the
// last run. Once executed, it is frozen: GetOrGenerateFresh becomes
// illegal and mutation only happens through Fuzz producing a new input.
type MappedInput struct {
	limits   Limits
	m        map[string]byte
	index    map[string]index.ExecutionIndex
	k        []index.ExecutionIndex
	executed bool

	// demandSplice optionally supplies a source index for a key whose
	// target-prefix is a prefix of the requested ExecutionIndex. Never
	// populated in the current build (see DemandDrivenSpliceProbability).
	demandSplice map[string]struct {
		source *MappedInput
		key    index.ExecutionIndex
	}
}

// NewMappedInput returns an empty MappedInput.
func NewMappedInput(limits Limits) *MappedInput {
	return &MappedInput{
		limits: limits,
		m:      make(map[string]byte),
		index:  make(map[string]index.ExecutionIndex),
	}
}

// GetOrGenerateFresh returns the byte at ei, generating and recording one
// if absent. Fails with ErrMutateAfterExecute if the input was already
// executed.
func (mi *MappedInput) GetOrGenerateFresh(ei index.ExecutionIndex, rng *Rng) (int, error) {
	if mi.executed {
		return 0, ErrMutateAfterExecute
	}
	if len(mi.k) >= mi.limits.MaxInputSize {
		mi.k = append(mi.k, ei)
		return EOF, nil
	}

	key := ei.Key()
	if v, ok := mi.m[key]; ok {
		mi.k = append(mi.k, ei)
		return int(v), nil
	}

	var b int
	if src, ok := mi.demandSplice[key]; ok {
		sv, found := src.source.m[src.key.Key()]
		if found {
			b = int(sv)
		} else if mi.limits.GenerateEOFOnOut {
			mi.k = append(mi.k, ei)
			return EOF, nil
		} else {
			b = int(rng.Byte())
		}
	} else if mi.limits.GenerateEOFOnOut {
		mi.k = append(mi.k, ei)
		return EOF, nil
	} else {
		b = int(rng.Byte())
	}

	mi.m[key] = byte(b)
	mi.index[key] = ei
	mi.k = append(mi.k, ei)
	return b, nil
}

// Size returns the number of unique keys materialized.
func (mi *MappedInput) Size() int { return len(mi.m) }

// Keys returns the ordered request list K (may contain duplicates).
func (mi *MappedInput) Keys() []index.ExecutionIndex {
	out := make([]index.ExecutionIndex, len(mi.k))
	copy(out, mi.k)
	return out
}

// Executed reports whether this input has been frozen by GC.
func (mi *MappedInput) Executed() bool { return mi.executed }

// GC rebuilds M from K, dropping any key never referenced in the last run,
// then freezes the input.
func (mi *MappedInput) GC() {
	kept := make(map[string]byte, len(mi.k))
	keptIdx := make(map[string]index.ExecutionIndex, len(mi.k))
	for _, ei := range mi.k {
		key := ei.Key()
		if v, ok := mi.m[key]; ok {
			kept[key] = v
			keptIdx[key] = ei
		}
	}
	mi.m = kept
	mi.index = keptIdx
	mi.executed = true
}

// Bytes returns the materialized values in K's request order, one byte per
// entry in K that still resolves to a value in M after dropping duplicates
// in favor of first occurrence. This is the representation persisted to
// disk and offered to consumers that want a flat byte view.
func (mi *MappedInput) Bytes() []byte {
	out := make([]byte, 0, len(mi.k))
	seen := make(map[string]struct{}, len(mi.k))
	for _, ei := range mi.k {
		key := ei.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if v, ok := mi.m[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// valueAt returns the byte stored for idx and whether it was present.
func (mi *MappedInput) valueAt(idx index.ExecutionIndex) (byte, bool) {
	v, ok := mi.m[idx.Key()]
	return v, ok
}

// setAt writes v under idx's key, used by splicing to re-key a source byte
// under a target's ExecutionIndex.
func (mi *MappedInput) setAt(idx index.ExecutionIndex, v byte) {
	mi.m[idx.Key()] = v
	mi.index[idx.Key()] = idx
}

// Fuzz returns a mutated clone of mi. With 50% probability when locations
// are available, attempts splicing first; havoc mutation runs if no splice
// occurred, or additionally with 50% probability even if one did.
func (mi *MappedInput) Fuzz(rng *Rng, locations LocationMap) *MappedInput {
	clone := mi.clone()

	spliced := false
	if len(locations) > 0 && rng.Float64() < 0.5 {
		spliced = clone.trySplice(rng, locations)
	}
	if !spliced || rng.Float64() < 0.5 {
		clone.havoc(rng)
	}
	return clone
}

func (mi *MappedInput) clone() *MappedInput {
	c := &MappedInput{
		limits: mi.limits,
		m:      make(map[string]byte, len(mi.m)),
		index:  make(map[string]index.ExecutionIndex, len(mi.index)),
		k:      append([]index.ExecutionIndex(nil), mi.k...),
	}
	for k, v := range mi.m {
		c.m[k] = v
	}
	for k, v := range mi.index {
		c.index[k] = v
	}
	return c
}

const (
	minSpliceAttempts = 3
	maxSpliceAttempts = 6
	maxSpliceCandidates = 10
	maxSpliceSpan       = 64
)

// trySplice attempts up to minSpliceAttempts..maxSpliceAttempts target
// picks, extending the budget by one (capped) whenever a pick has no
// candidate locations, and returns whether a splice actually happened.
func (mi *MappedInput) trySplice(rng *Rng, locations LocationMap) bool {
	if len(mi.k) == 0 {
		return false
	}

	budget := minSpliceAttempts
	for attempt := 0; attempt < budget; attempt++ {
		t := rng.Intn(len(mi.k))
		targetIdx := mi.k[t]
		ec := targetIdx.Context()

		candidates := locations[ec]
		if len(candidates) == 0 {
			if budget < maxSpliceAttempts {
				budget++
			}
			continue
		}

		if mi.tryCandidates(rng, targetIdx, candidates) {
			return true
		}
	}
	return false
}

func (mi *MappedInput) tryCandidates(rng *Rng, targetIdx index.ExecutionIndex, candidates []SpliceLocation) bool {
	targetByte, _ := mi.valueAt(targetIdx)

	tries := maxSpliceCandidates
	if tries > len(candidates) {
		tries = len(candidates)
	}
	order := rng.permutation(len(candidates))

	for i := 0; i < tries; i++ {
		cand := candidates[order[i]]
		if cand.Source == mi {
			continue // reject self-splices
		}
		srcByte, ok := cand.Source.valueAt(cand.Index)
		if !ok || srcByte == targetByte {
			continue
		}

		if mi.subtreeSpliceEnabled() {
			if mi.subtreeSplice(targetIdx, cand) {
				return true
			}
			continue
		}
		return mi.spanSplice(rng, targetIdx, cand)
	}
	return false
}

// globalSubtreeSplice is toggled by the guidance loop via EnableSubtreeSplice
// to reflect the SPLICE_SUBTREE configuration option (requires indexing).
var globalSubtreeSplice = false

// EnableSubtreeSplice sets whether subtree splicing is used in place of
// span splicing, process-wide, mirroring the SPLICE_SUBTREE startup option
// which is read once.
func EnableSubtreeSplice(enabled bool) { globalSubtreeSplice = enabled }

func (mi *MappedInput) subtreeSpliceEnabled() bool { return globalSubtreeSplice }

// subtreeSplice computes the common suffix of target and source indices; if
// empty, the candidate is rejected. Otherwise every source entry sharing
// the source's prefix (everything but the common suffix) is spliced in,
// re-keyed under the target's corresponding prefix.
func (mi *MappedInput) subtreeSplice(targetIdx index.ExecutionIndex, cand SpliceLocation) bool {
	commonLen := index.CommonSuffixLen(targetIdx, cand.Index)
	if commonLen == 0 {
		return false
	}

	srcPrefixLen := len(cand.Index.Stack) - commonLen
	srcPrefix := cand.Index.Prefix(srcPrefixLen)
	tgtPrefixLen := len(targetIdx.Stack) - commonLen
	tgtPrefix := targetIdx.Prefix(tgtPrefixLen)

	spliced := false
	for key, srcIdx := range cand.Source.index {
		if srcIdx.Prefix(srcPrefixLen).Key() != srcPrefix.Key() {
			continue
		}
		suffix := srcIdx.Suffix(srcPrefixLen)
		rekeyed := index.ExecutionIndex{
			Stack:  append(append([]index.Frame(nil), tgtPrefix.Stack...), suffix.Stack...),
			Offset: suffix.Offset,
		}
		if v, ok := cand.Source.m[key]; ok {
			mi.setAt(rekeyed, v)
			spliced = true
		}
	}
	return spliced
}

// spanSplice copies a uniform random span of length [1,64] byte-for-byte
// from the source into the target, keyed under the target's own keys
// starting at the target offset within K.
func (mi *MappedInput) spanSplice(rng *Rng, targetIdx index.ExecutionIndex, cand SpliceLocation) bool {
	length := 1 + rng.Intn(maxSpliceSpan)

	targetPos := -1
	for i, ei := range mi.k {
		if ei.Key() == targetIdx.Key() {
			targetPos = i
			break
		}
	}
	if targetPos < 0 {
		return false
	}

	sourceKeys := cand.Source.Keys()
	srcPos := -1
	for i, ei := range sourceKeys {
		if ei.Key() == cand.Index.Key() {
			srcPos = i
			break
		}
	}
	if srcPos < 0 {
		return false
	}

	copied := false
	for i := 0; i < length; i++ {
		ti := targetPos + i
		si := srcPos + i
		if ti >= len(mi.k) || si >= len(sourceKeys) {
			break
		}
		if v, ok := cand.Source.valueAt(sourceKeys[si]); ok {
			mi.setAt(mi.k[ti], v)
			copied = true
		}
	}
	return copied
}

// havoc mutates an order-preserving iteration of M restricted to the
// offset window, using the same geometric-round scheme as LinearInput.Fuzz.
func (mi *MappedInput) havoc(rng *Rng) {
	if len(mi.k) == 0 {
		return
	}

	rounds := rng.Geometric(8)
	zeroMode := rng.Float64() < 0.1

	for round := 0; round < rounds; round++ {
		offset := rng.Intn(len(mi.k))
		length := rng.Geometric(4)
		end := offset + length
		if end > len(mi.k) {
			end = len(mi.k)
		}
		for i := offset; i < end; i++ {
			if zeroMode {
				mi.setAt(mi.k[i], 0)
			} else {
				mi.setAt(mi.k[i], rng.Byte())
			}
		}
	}
}

package guidance

import (
	"github.com/neu-se/covguide/internal/coverage"
	"github.com/neu-se/covguide/internal/input"
)

// SavedInput is the metadata the corpus retains for a saved entry: a
// stable numeric id, the on-disk filename, the run-coverage snapshot taken
// when it was saved, offspring count, validity, and the responsibility set
// it currently owns.
type SavedInput struct {
	ID               uint64
	Filename         string
	CoverageSnapshot *coverage.RunCoverage
	NonZeroCount     int
	OffspringCount   int
	Valid            bool

	Responsibilities map[coverage.EdgeID]struct{}

	// Linear or Mapped, whichever is non-nil, holds the Input variant that
	// produced this entry, used for persistence and for further fuzzing.
	Linear *input.LinearInput
	Mapped *input.MappedInput

	childrenGenerated int
}

// IsFavored reports whether this input has a non-empty responsibility set.
func (s *SavedInput) IsFavored() bool { return len(s.Responsibilities) > 0 }

// Bytes returns the persisted byte content regardless of which input
// variant produced it.
func (s *SavedInput) Bytes() []byte {
	if s.Linear != nil {
		return s.Linear.Bytes()
	}
	if s.Mapped != nil {
		return s.Mapped.Bytes()
	}
	return nil
}

// TargetChildren computes the target child budget for this input against
// the overall cumulative non-zero edge count, applying the favored
// multiplier when applicable.
func (s *SavedInput) TargetChildren(maxCoverage int) int {
	t := NumChildrenBaseline
	if maxCoverage > 0 {
		t = (NumChildrenBaseline * s.NonZeroCount) / maxCoverage
		if t < 1 {
			t = 1
		}
	}
	if s.IsFavored() {
		t *= NumChildrenMultiplierFavor
	}
	return t
}

// addResponsibility grants edge to this input's responsibility set.
func (s *SavedInput) addResponsibility(edge coverage.EdgeID) {
	if s.Responsibilities == nil {
		s.Responsibilities = make(map[coverage.EdgeID]struct{})
	}
	s.Responsibilities[edge] = struct{}{}
}

// removeResponsibility revokes edge from this input's responsibility set.
func (s *SavedInput) removeResponsibility(edge coverage.EdgeID) {
	delete(s.Responsibilities, edge)
}

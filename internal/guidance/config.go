package guidance

import (
	"time"

	"github.com/neu-se/covguide/internal/input"
)

// Tunable constants fixed by the spec's external-interface table.
const (
	NumChildrenBaseline        = 50
	NumChildrenMultiplierFavor = 20
	MeanMutationCount          = 8
	MeanMutationSize           = 4
	MaxSpliceSpan              = 64
	DemandDrivenSpliceProb     = 0.0
	NoCoverageTrialAbortAt     = 100_000
	TraceEventTimeoutPollEvery = 10_000
	StatsRefreshPeriod         = 300 * time.Millisecond
)

// Config bundles the startup options recognized once by a guidance
// instance, per the external-interfaces option table.
type Config struct {
	EnableExecutionIndexing bool
	SaveOnlyValid           bool
	MaxInputSize            int
	GenerateEOFWhenOut      bool
	SpliceSubtree           bool
	StealResponsibility     bool
	TotallyRandom           bool
	PerRunTimeout           time.Duration // 0 disables

	MaxDuration time.Duration // global wall-clock budget
	SeedDir     string
	OutputDir   string
	Seed        int64 // PRNG seed
}

// DefaultConfig mirrors the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxInputSize: 10240,
		MaxDuration:  time.Hour,
	}
}

// inputLimits derives the internal/input.Limits this config implies.
func (c Config) inputLimits() input.Limits {
	return input.Limits{MaxInputSize: c.MaxInputSize, GenerateEOFOnOut: c.GenerateEOFWhenOut}
}

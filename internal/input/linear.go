package input

// LinearInput is an ordered vector of bytes plus a request cursor: the i-th
// read returns V[i] if i < len(V), else draws (or refuses to draw) a fresh
// byte and appends it.
type LinearInput struct {
	limits    Limits
	v         []byte
	requested int
}

// NewLinearInput returns an empty LinearInput.
func NewLinearInput(limits Limits) *LinearInput {
	return &LinearInput{limits: limits}
}

// NewLinearInputFromBytes returns a LinearInput pre-populated from seed
// data. Reads beyond len(data) still fall through to fresh generation,
// matching "seed inputs are a Linear variant whose fresh-byte generator
// reads from a file and falls through to random only at EOF."
func NewLinearInputFromBytes(limits Limits, data []byte) *LinearInput {
	v := make([]byte, len(data))
	copy(v, data)
	return &LinearInput{limits: limits, v: v}
}

// GetOrGenerateFresh returns the i-th consecutive byte. i must equal the
// number of bytes requested so far, or this is an out-of-order-read
// invariant violation.
func (l *LinearInput) GetOrGenerateFresh(i int, rng *Rng) (int, error) {
	if i != l.requested {
		return 0, ErrOutOfOrderRead
	}
	if i >= l.limits.MaxInputSize {
		l.requested++
		return EOF, nil
	}
	if i < len(l.v) {
		l.requested++
		return int(l.v[i]), nil
	}
	if l.limits.GenerateEOFOnOut {
		l.requested++
		return EOF, nil
	}
	b := rng.Byte()
	l.v = append(l.v, b)
	l.requested++
	return int(b), nil
}

// Size returns the number of bytes currently materialized.
func (l *LinearInput) Size() int { return len(l.v) }

// Requested returns the number of bytes requested so far this run.
func (l *LinearInput) Requested() int { return l.requested }

// GC truncates V to the number of bytes actually requested in the last run.
func (l *LinearInput) GC() {
	if l.requested < len(l.v) {
		l.v = l.v[:l.requested]
	}
}

// Bytes returns the materialized content.
func (l *LinearInput) Bytes() []byte {
	out := make([]byte, len(l.v))
	copy(out, l.v)
	return out
}

// Fuzz returns a mutated clone of l: draws M ~ Geometric(mean=8) havoc
// rounds, and with probability 0.1 mutates every touched byte to zero
// instead of a fresh random value for the whole call.
func (l *LinearInput) Fuzz(rng *Rng) *LinearInput {
	clone := &LinearInput{limits: l.limits, v: append([]byte(nil), l.v...)}
	if len(clone.v) == 0 {
		return clone
	}

	rounds := rng.Geometric(8)
	zeroMode := rng.Float64() < 0.1

	for round := 0; round < rounds; round++ {
		offset := rng.Intn(len(clone.v))
		length := rng.Geometric(4)
		end := offset + length
		if end > len(clone.v) {
			end = len(clone.v)
		}
		for i := offset; i < end; i++ {
			if zeroMode {
				clone.v[i] = 0
			} else {
				clone.v[i] = rng.Byte()
			}
		}
	}
	return clone
}

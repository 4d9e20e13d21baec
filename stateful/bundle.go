package stateful

// Bundle is the append-only history of step results for one operation within
// a single scenario.
type Bundle struct {
	results []*StepResult
}

// Append records a step result.
func (b *Bundle) Append(r *StepResult) {
	b.results = append(b.results, r)
}

// Results returns the recorded results in execution order.
func (b *Bundle) Results() []*StepResult {
	if b == nil {
		return nil
	}
	return b.results
}

// Len returns the number of recorded results.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.results)
}

// Bundles groups bundles by operation. Scoped to exactly one scenario
// execution and never shared across concurrent scenarios.
type Bundles struct {
	byOperation map[string]*Bundle
}

// NewBundles creates an empty bundle set.
func NewBundles() *Bundles {
	return &Bundles{byOperation: map[string]*Bundle{}}
}

// For returns the operation's bundle, creating it on first use.
func (bs *Bundles) For(operation string) *Bundle {
	b, ok := bs.byOperation[operation]
	if !ok {
		b = &Bundle{}
		bs.byOperation[operation] = b
	}
	return b
}

// Reset clears all recorded history, ready for a new scenario.
func (bs *Bundles) Reset() {
	bs.byOperation = map[string]*Bundle{}
}

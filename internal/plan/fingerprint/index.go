package fingerprint

// Outcome classifies a lookup against an Index.
type Outcome int

const (
	// NoMatch means no equivalent entity exists.
	NoMatch Outcome = iota
	// UniqueMatch means exactly one equivalent exists and may be linked automatically.
	UniqueMatch
	// AmbiguousMatch means several equivalents exist; the caller must choose.
	AmbiguousMatch
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "none"
	case UniqueMatch:
		return "unique"
	case AmbiguousMatch:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Match is the result of resolving a candidate.
type Match[T Hashable] struct {
	Outcome Outcome
	Matches []T
}

// Unique returns the single match when the outcome is UniqueMatch.
func (m Match[T]) Unique() (T, bool) {
	if m.Outcome != UniqueMatch {
		var zero T
		return zero, false
	}
	return m.Matches[0], true
}

// Index groups entities by content hash.
type Index[T Hashable] struct {
	buckets map[Hash][]T
	size    int
}

// BuildIndex hashes every item once.
func BuildIndex[T Hashable](items []T) *Index[T] {
	idx := &Index[T]{buckets: make(map[Hash][]T, len(items))}
	for _, item := range items {
		idx.Add(item)
	}
	return idx
}

// Add inserts one more item.
func (i *Index[T]) Add(item T) {
	h := Of(item)
	i.buckets[h] = append(i.buckets[h], item)
	i.size++
}

// Len returns the number of indexed items.
func (i *Index[T]) Len() int { return i.size }

// Lookup returns the items stored under h.
func (i *Index[T]) Lookup(h Hash) []T {
	return append([]T(nil), i.buckets[h]...)
}

// FindMatches returns every indexed item whose hash equals the candidate's.
func (i *Index[T]) FindMatches(candidate T) []T {
	return i.Lookup(Of(candidate))
}

// Resolve classifies the matches for candidate. Ambiguity is never resolved here.
func (i *Index[T]) Resolve(candidate T) Match[T] {
	matches := i.FindMatches(candidate)
	switch len(matches) {
	case 0:
		return Match[T]{Outcome: NoMatch}
	case 1:
		return Match[T]{Outcome: UniqueMatch, Matches: matches}
	default:
		return Match[T]{Outcome: AmbiguousMatch, Matches: matches}
	}
}

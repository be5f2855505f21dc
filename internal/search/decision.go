package search

// Kind tags how a keyword's count was obtained.
type Kind int

const (
	// KindNone means neither exact nor fuzzy matching found the keyword.
	KindNone Kind = iota
	// KindExact means the exact matcher found at least one occurrence.
	KindExact
	// KindFuzzy means the exact matcher found nothing and the fuzzy scanner found at least one window.
	KindFuzzy
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Decision is the outcome of matching one keyword against one document.
type Decision struct {
	Kind  Kind
	Count int
}

// Decide runs exact first and only falls back to fuzzy when exact found nothing.
// The fuzzy func is never called when exact returns a positive count.
func Decide(exact, fuzzy func() (int, error)) (Decision, error) {
	n, err := exact()
	if err != nil {
		return Decision{}, err
	}
	if n > 0 {
		return Decision{Kind: KindExact, Count: n}, nil
	}
	n, err = fuzzy()
	if err != nil {
		return Decision{}, err
	}
	if n > 0 {
		return Decision{Kind: KindFuzzy, Count: n}, nil
	}
	return Decision{Kind: KindNone}, nil
}

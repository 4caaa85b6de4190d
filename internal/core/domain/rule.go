package domain

// ObjectFunc maps one raw item to a fact's object label.
// Returning ok=false skips the item; this is not an error.
type ObjectFunc func(item map[string]any) (object string, ok bool)

// EvidenceFunc maps one raw item to an evidence URL. Empty means none.
type EvidenceFunc func(item map[string]any) string

// TripletRule is one declarative extraction rule for a platform.
// A rule applies to every data endpoint whose name contains Match.
type TripletRule struct {
	// Match is the endpoint-name substring this rule applies to.
	Match string

	// Predicate is the fact predicate label to emit.
	Predicate string

	// Object maps an item to the fact's object label.
	Object ObjectFunc

	// Evidence optionally maps an item to a supporting URL.
	Evidence EvidenceFunc

	// ItemsPath optionally names a nested array to descend into before
	// iterating items (e.g. "artists.items"), overriding the platform's
	// default response shape for this endpoint.
	ItemsPath string
}

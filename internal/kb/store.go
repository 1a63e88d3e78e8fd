package kb

import "fmt"

// Store accumulates candidate records while the builder runs. It is an
// explicit value passed between stages so construction stays testable;
// nothing in this package keeps process-wide state.
type Store struct {
	Products []ProductCandidate
	FAQs     []QAPair
	Policies []Policy
	Sources  []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// AddProduct appends a product candidate.
func (s *Store) AddProduct(p ProductCandidate) {
	s.Products = append(s.Products, p)
}

// AddFAQ appends a QA pair, assigning an id when the record has none.
func (s *Store) AddFAQ(q QAPair) {
	if q.ID == "" {
		q.ID = FAQID("F", len(s.FAQs))
	}
	if q.Frequency < 1 {
		q.Frequency = 1
	}
	s.FAQs = append(s.FAQs, q)
}

// AddPolicy appends a policy record.
func (s *Store) AddPolicy(p Policy) {
	s.Policies = append(s.Policies, p)
}

// AddSource records a contributing input, tagged by kind ("products",
// "orders", "chats").
func (s *Store) AddSource(kind, path string) {
	s.Sources = append(s.Sources, fmt.Sprintf("%s:%s", kind, path))
}

// FAQID derives the id for the next FAQ from the number of existing
// entries: prefix "F" and count 4 yield "F005". A pure function so id
// assignment carries no hidden state.
func FAQID(prefix string, existing int) string {
	return fmt.Sprintf("%s%03d", prefix, existing+1)
}

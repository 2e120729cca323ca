package memory

import (
	"sync"
	"time"
)

// Fact is one stored aggregate data value with the metadata the detector
// filters and reports on. Value is the raw stored text.
type Fact struct {
	DataElementID            string
	DataElementName          string
	ValueType                string
	OrgUnitID                string
	OrgUnitName              string
	OrgUnitPath              string
	CategoryOptionComboID    string
	CategoryOptionComboName  string
	AttributeOptionComboID   string
	AttributeOptionComboName string
	PeriodType               string
	PeriodStart              time.Time
	PeriodEnd                time.Time
	Value                    string
	FollowUp                 bool
	Deleted                  bool
}

// MinMax is a configured value range of one data element, org unit and
// category option combo.
type MinMax struct {
	DataElementID         string
	OrgUnitID             string
	CategoryOptionComboID string
	Min                   float64
	Max                   float64
}

type minMaxKey struct {
	de, ou, coc string
}

// Store holds facts and min-max ranges. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	facts  []Fact
	ranges map[minMaxKey]MinMax
}

func NewStore() *Store {
	return &Store{ranges: make(map[minMaxKey]MinMax)}
}

// AddFacts appends facts to the store.
func (s *Store) AddFacts(facts ...Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append(s.facts, facts...)
}

// SetMinMax adds or replaces ranges.
func (s *Store) SetMinMax(ranges ...MinMax) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range ranges {
		s.ranges[minMaxKey{r.DataElementID, r.OrgUnitID, r.CategoryOptionComboID}] = r
	}
}

// Len returns the number of stored facts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}

// snapshot returns a consistent view for one detection run.
func (s *Store) snapshot() ([]Fact, map[minMaxKey]MinMax) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facts := make([]Fact, len(s.facts))
	copy(facts, s.facts)
	ranges := make(map[minMaxKey]MinMax, len(s.ranges))
	for k, v := range s.ranges {
		ranges[k] = v
	}
	return facts, ranges
}

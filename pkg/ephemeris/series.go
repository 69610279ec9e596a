package ephemeris

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

// DefaultRadiusAU is the radius reported when no physical data was parsed
const DefaultRadiusAU = 0.001

// KmPerAU converts kilometres to astronomical units
const KmPerAU = 149597870.7

var (
	// ErrEmptySeries marks a body whose ephemeris could not be obtained
	ErrEmptySeries = errors.New("empty ephemeris series")
	// ErrUnordered marks samples that are not strictly ascending in time
	ErrUnordered = errors.New("samples not strictly ascending")
)

// Sample is one tabulated position, sun-centered ecliptic AU
type Sample struct {
	Time     time.Time         `json:"date"`
	Position astromath.Vector3 `json:"position"`
}

// Series is the immutable ephemeris for one body
type Series struct {
	MeanRadiusAU float64
	Samples      []Sample
}

// Empty returns the sentinel series recorded for failed fetches
func Empty() Series {
	return Series{MeanRadiusAU: DefaultRadiusAU}
}

// Valid reports whether the series can be interpolated at all
func (s Series) Valid() bool {
	return len(s.Samples) >= 2
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Samples)
}

// Span returns the first and last sample times
func (s Series) Span() (time.Time, time.Time, bool) {
	if len(s.Samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.Samples[0].Time, s.Samples[len(s.Samples)-1].Time, true
}

// Index returns the first sample index whose time is >= t, or Len() when
// every sample precedes t. Matches an ascending linear scan.
func (s Series) Index(t time.Time) int {
	return sort.Search(len(s.Samples), func(i int) bool {
		return !s.Samples[i].Time.Before(t)
	})
}

// Every returns every nth sample, starting with the first
func (s Series) Every(n int) []Sample {
	if n < 1 {
		n = 1
	}
	out := make([]Sample, 0, len(s.Samples)/n+1)
	for i := 0; i < len(s.Samples); i += n {
		out = append(out, s.Samples[i])
	}
	return out
}

// Validate checks the ordering invariant
func (s Series) Validate() error {
	for i := 1; i < len(s.Samples); i++ {
		if !s.Samples[i].Time.After(s.Samples[i-1].Time) {
			return fmt.Errorf("sample %d at %s: %w", i, s.Samples[i].Time.Format(time.RFC3339), ErrUnordered)
		}
	}
	return nil
}

// MarshalJSON writes the [radius, samples] pair used by the ephemeris cache
func (s Series) MarshalJSON() ([]byte, error) {
	samples := s.Samples
	if samples == nil {
		samples = []Sample{}
	}
	return json.Marshal([]interface{}{s.MeanRadiusAU, samples})
}

// UnmarshalJSON reads the [radius, samples] pair
func (s *Series) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [radius, samples], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.MeanRadiusAU); err != nil {
		return fmt.Errorf("invalid radius: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Samples); err != nil {
		return fmt.Errorf("invalid samples: %w", err)
	}
	return nil
}

// Store maps body ids to their ephemeris. It is filled once at startup
// and read-only afterwards.
type Store struct {
	mu     sync.RWMutex
	series map[string]Series
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{series: make(map[string]Series)}
}

// Set records the series for id. Series violating the ordering invariant
// are replaced by an empty series so the body is skipped instead of
// interpolated from bad data.
func (st *Store) Set(id string, s Series) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.Validate(); err != nil {
		st.series[id] = Series{MeanRadiusAU: s.MeanRadiusAU}
		return fmt.Errorf("body %s: %w", id, err)
	}
	st.series[id] = s
	return nil
}

// Get returns the series for id
func (st *Store) Get(id string) (Series, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.series[id]
	return s, ok
}

// Has reports whether id has a usable series
func (st *Store) Has(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.series[id]
	return ok && s.Valid()
}

// IDs returns the stored ids, sorted
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.series))
	for id := range st.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns how many bodies have an entry
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.series)
}

// Complete reports whether every id has an entry, usable or not
func (st *Store) Complete(ids []string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, id := range ids {
		if _, ok := st.series[id]; !ok {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned box enclosing every stored sample
func (st *Store) Bounds() (astromath.Vector3, astromath.Vector3, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var lo, hi astromath.Vector3
	found := false
	for _, s := range st.series {
		for _, sample := range s.Samples {
			p := sample.Position
			if !found {
				lo, hi, found = p, p, true
				continue
			}
			lo = astromath.Vector3{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
			hi = astromath.Vector3{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
		}
	}
	return lo, hi, found
}

// MarshalJSON writes the {id: [radius, samples]} mapping
func (st *Store) MarshalJSON() ([]byte, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return json.Marshal(st.series)
}

// UnmarshalJSON reads the {id: [radius, samples]} mapping
func (st *Store) UnmarshalJSON(data []byte) error {
	raw := make(map[string]Series)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st.mu.Lock()
	st.series = make(map[string]Series, len(raw))
	st.mu.Unlock()
	for id, s := range raw {
		if err := st.Set(id, s); err != nil {
			log.Printf("Warning: dropping cached samples: %v", err)
		}
	}
	return nil
}

package loadprofile

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProfileNotFound is returned when no profile is registered for a key.
	ErrProfileNotFound = errors.New("load profile not found")
	// ErrSealed is returned when adding to a stock after setup finished.
	ErrSealed = errors.New("load profile stock is sealed")
)

// Key identifies the profile of one technology in one end-use and sector.
type Key struct {
	EndUse     string
	Sector     string
	Technology string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.EndUse, k.Sector, k.Technology)
}

// Stock registers load profiles by key. Several keys may alias one profile.
// Profiles are added during setup; once sealed the stock is read-only and
// safe for concurrent use.
type Stock struct {
	mu       sync.RWMutex
	name     string
	profiles map[string]*LoadProfile
	keys     map[Key]string
	sealed   bool
}

// NewStock returns an empty stock.
func NewStock(name string) *Stock {
	return &Stock{
		name:     name,
		profiles: make(map[string]*LoadProfile),
		keys:     make(map[Key]string),
	}
}

// Add registers p for every combination of end-use, sector and technology.
// A key can only be registered once.
func (s *Stock) Add(p *LoadProfile, enduses, sectors, techs []string) error {
	if p == nil {
		return fmt.Errorf("nil load profile")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return ErrSealed
	}
	if existing, ok := s.profiles[p.id]; ok && existing != p {
		return fmt.Errorf("profile id %s already registered", p.id)
	}
	var keys []Key
	for _, e := range enduses {
		for _, sec := range sectors {
			for _, t := range techs {
				k := Key{EndUse: e, Sector: sec, Technology: t}
				if _, ok := s.keys[k]; ok {
					return fmt.Errorf("load profile already registered for %s", k)
				}
				keys = append(keys, k)
			}
		}
	}
	s.profiles[p.id] = p
	for _, k := range keys {
		s.keys[k] = p.id
	}
	return nil
}

// Seal ends setup. Further calls to Add fail with ErrSealed.
func (s *Stock) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Get returns the profile registered for the key.
func (s *Stock) Get(enduse, sector, tech string) (*LoadProfile, error) {
	k := Key{EndUse: enduse, Sector: sector, Technology: tech}
	s.mu.RLock()
	id, ok := s.keys[k]
	var p *LoadProfile
	if ok {
		p = s.profiles[id]
	}
	s.mu.RUnlock()
	if p == nil {
		return nil, fmt.Errorf("%s: %w", k, ErrProfileNotFound)
	}
	return p, nil
}

// EndUses returns the sorted end-uses with at least one registered profile.
func (s *Stock) EndUses() []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for k := range s.keys {
		seen[k.EndUse] = struct{}{}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Profiles returns every distinct profile sorted by id.
func (s *Stock) Profiles() []*LoadProfile {
	s.mu.RLock()
	out := make([]*LoadProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Name returns the stock name.
func (s *Stock) Name() string { return s.name }

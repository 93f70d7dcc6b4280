package venue

import (
	"fmt"

	"github.com/hxuan190/split-swapper/internal/domain"
)

// Set dispatches a leg's venue selector to its adapter. VenueAuto maps to the
// configured default venue.
type Set struct {
	adapters     map[domain.VenueSelector]Adapter
	defaultVenue domain.VenueSelector
}

func NewSet(defaultVenue domain.VenueSelector, adapters ...Adapter) (*Set, error) {
	s := &Set{adapters: make(map[domain.VenueSelector]Adapter, len(adapters))}
	for _, a := range adapters {
		s.adapters[a.Kind()] = a
	}
	if defaultVenue == domain.VenueAuto {
		return nil, fmt.Errorf("default venue must be concrete")
	}
	if _, ok := s.adapters[defaultVenue]; !ok {
		return nil, fmt.Errorf("default venue %s has no adapter", defaultVenue)
	}
	s.defaultVenue = defaultVenue
	return s, nil
}

func (s *Set) Default() domain.VenueSelector {
	return s.defaultVenue
}

func (s *Set) Resolve(sel domain.VenueSelector) (Adapter, error) {
	if sel == domain.VenueAuto {
		sel = s.defaultVenue
	}
	a, ok := s.adapters[sel]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for venue %s", domain.ErrVenueNotFound, sel)
	}
	return a, nil
}

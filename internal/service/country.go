package service

import "github.com/joeblew999/plat-inset/internal/world"

// CountryService serves the country picker.
type CountryService struct {
	world     *world.Handle
	preferred string
}

// NewCountryService preselects preferred when it is in the dataset.
func NewCountryService(w *world.Handle, preferred string) *CountryService {
	return &CountryService{world: w, preferred: preferred}
}

// List returns all country names and the preselected one.
func (s *CountryService) List() (CountryList, error) {
	ds, err := s.world.Load()
	if err != nil {
		return CountryList{}, err
	}
	def := ds.Default()
	if _, ok := ds.Country(s.preferred); ok {
		def = s.preferred
	}
	return CountryList{Names: ds.Names(), Default: def}, nil
}

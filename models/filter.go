package models

// FilterState is the three-level phase > category > size cascade. Category is
// modeled as a map keyed by category name with a single active entry, and
// sizes as boolean flags, matching the option lists the portal renders.
// Changing a higher level always resets everything below it.
type FilterState struct {
	Phase      string          `json:"phase"`
	Categories map[string]bool `json:"categories"`
	Sizes      map[string]bool `json:"sizes"`
}

// NewFilterState returns an empty cascade
func NewFilterState() FilterState {
	return FilterState{
		Categories: make(map[string]bool),
		Sizes:      make(map[string]bool),
	}
}

// SetPhase selects a phase and clears category and size state
func (f *FilterState) SetPhase(phase string) {
	f.Phase = phase
	f.Categories = make(map[string]bool)
	f.Sizes = make(map[string]bool)
}

// SetCategory selects a single active category and clears size state
func (f *FilterState) SetCategory(category string) {
	f.Categories = map[string]bool{category: true}
	f.Sizes = make(map[string]bool)
}

// ToggleSize flips one size flag, leaving the rest of the cascade intact
func (f *FilterState) ToggleSize(size string) {
	if f.Sizes == nil {
		f.Sizes = make(map[string]bool)
	}
	f.Sizes[size] = !f.Sizes[size]
}

// ActiveCategory returns the single selected category, or empty
func (f *FilterState) ActiveCategory() string {
	for category, active := range f.Categories {
		if active {
			return category
		}
	}
	return ""
}

// ActiveSizes returns the enabled size flags
func (f *FilterState) ActiveSizes() []string {
	var sizes []string
	for size, active := range f.Sizes {
		if active {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Matches reports whether a plot passes the size flags. Phase and category
// are applied upstream by the filtered-plots query; size is the one level
// filtered locally against the already loaded list.
func (f *FilterState) Matches(plot *Plot) bool {
	active := f.ActiveSizes()
	if len(active) == 0 {
		return true
	}
	for _, size := range active {
		if plot.Size == size {
			return true
		}
	}
	return false
}

// FilterOptions is an option list for one cascade level, fetched upstream
// conditioned on the levels above it
type FilterOptions struct {
	Values []string `json:"values"`
}

// Package filter decides which collectors run and which tagged resources
// make it into the inventory.
package filter

// Filter controls which resource families are collected and which resources
// are kept, based on their tags.
// A nil *Filter keeps everything.
type Filter struct {
	excludeTypes map[string]bool
	includeTags  map[string]string
	excludeTags  map[string]string
}

// New creates a new Filter from the provided configuration.
func New(excludeTypes []string, includeTags, excludeTags map[string]string) *Filter {
	excludeMap := make(map[string]bool)
	for _, t := range excludeTypes {
		excludeMap[t] = true
	}

	return &Filter{
		excludeTypes: excludeMap,
		includeTags:  includeTags,
		excludeTags:  excludeTags,
	}
}

// ShouldCollect returns true if the given collector ("ec2", "asg", "rds") should run.
func (f *Filter) ShouldCollect(typ string) bool {
	if f == nil {
		return true
	}
	return !f.excludeTypes[typ]
}

// ShouldInclude returns true if a resource with the given tags passes the tag filters.
func (f *Filter) ShouldInclude(tags map[string]string) bool {
	if f == nil {
		return true
	}

	// Include tags: ALL must match
	for k, v := range f.includeTags {
		if tags[k] != v {
			return false
		}
	}

	// Exclude tags: ANY match excludes
	for k, v := range f.excludeTags {
		if got, ok := tags[k]; ok && got == v {
			return false
		}
	}

	return true
}

// HasTagFilters returns true if any include or exclude tag is configured.
func (f *Filter) HasTagFilters() bool {
	return f != nil && (len(f.includeTags) > 0 || len(f.excludeTags) > 0)
}

// IsEmpty returns true if no filters are configured.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.excludeTypes) == 0 && !f.HasTagFilters())
}

package filters

import (
	"fmt"
	"regexp"

	"agendrr/internal/config"
	"agendrr/internal/models"
)

// Filter decides whether an event is left out of the agenda.
type Filter interface {
	Exclude(event models.Event) bool
}

// Chain excludes an event if any of its filters does.
type Chain []Filter

// Exclude returns true as soon as one filter excludes the event.
func (c Chain) Exclude(event models.Event) bool {
	for _, f := range c {
		if f.Exclude(event) {
			return true
		}
	}
	return false
}

// Default builds the filters described by the configuration.
// An invalid ignore pattern is returned as an error.
func Default(cfg *config.Config) (Chain, error) {
	nameFilter, err := NewNameFilter(cfg.IgnoredRegex)
	if err != nil {
		return nil, err
	}
	return Chain{
		NewColorFilter(cfg.IgnoredColours),
		nameFilter,
	}, nil
}

// ColorFilter drops events whose color is in the ignored set.
type ColorFilter struct {
	ignored map[string]struct{}
}

// NewColorFilter creates a ColorFilter for the given color ids.
func NewColorFilter(colors []string) *ColorFilter {
	ignored := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		ignored[c] = struct{}{}
	}
	return &ColorFilter{ignored: ignored}
}

func (f *ColorFilter) Exclude(event models.Event) bool {
	_, ok := f.ignored[event.Color]
	return ok
}

// NameFilter drops events whose name matches any of its patterns.
type NameFilter struct {
	patterns []*regexp.Regexp
}

// NewNameFilter compiles the given patterns into a NameFilter.
func NewNameFilter(patterns []string) (*NameFilter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignored-regex %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &NameFilter{patterns: compiled}, nil
}

func (f *NameFilter) Exclude(event models.Event) bool {
	for _, re := range f.patterns {
		if re.MatchString(event.Name) {
			return true
		}
	}
	return false
}

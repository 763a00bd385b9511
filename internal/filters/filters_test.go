package filters

import (
	"testing"

	"agendrr/internal/config"
	"agendrr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFilter(t *testing.T) {
	f := NewColorFilter([]string{"8", "none"})

	assert.True(t, f.Exclude(models.Event{Color: "8"}))
	assert.True(t, f.Exclude(models.Event{Color: "none"}))
	assert.False(t, f.Exclude(models.Event{Color: "80"}))
	assert.False(t, f.Exclude(models.Event{Color: "None"}))
}

func TestNameFilter(t *testing.T) {
	f, err := NewNameFilter([]string{"^Focus", "Lunch"})
	require.NoError(t, err)

	assert.True(t, f.Exclude(models.Event{Name: "Focus time"}))
	assert.True(t, f.Exclude(models.Event{Name: "Team Lunch outing"}))
	assert.False(t, f.Exclude(models.Event{Name: "No Focus"}))
	assert.False(t, f.Exclude(models.Event{Name: "lunch"}))
}

func TestNameFilter_InvalidPattern(t *testing.T) {
	_, err := NewNameFilter([]string{"ok", "(unclosed"})
	assert.Error(t, err)
}

type countingFilter struct {
	exclude bool
	calls   int
}

func (f *countingFilter) Exclude(models.Event) bool {
	f.calls++
	return f.exclude
}

func TestChain_ShortCircuits(t *testing.T) {
	first := &countingFilter{exclude: true}
	second := &countingFilter{}

	assert.True(t, Chain{first, second}.Exclude(models.Event{}))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChain_IsUnionOfFilters(t *testing.T) {
	colors := NewColorFilter([]string{"8"})
	names, err := NewNameFilter([]string{"^Focus"})
	require.NoError(t, err)

	events := []models.Event{
		{Name: "Focus", Color: "8"},
		{Name: "Focus", Color: "1"},
		{Name: "Sync", Color: "8"},
		{Name: "Sync", Color: "1"},
	}

	for _, ev := range events {
		want := colors.Exclude(ev) || names.Exclude(ev)
		assert.Equal(t, want, Chain{colors, names}.Exclude(ev), ev.Name+"/"+ev.Color)
		assert.Equal(t, want, Chain{names, colors}.Exclude(ev), ev.Name+"/"+ev.Color)
	}
}

func TestChain_Empty(t *testing.T) {
	assert.False(t, Chain{}.Exclude(models.Event{Name: "anything"}))
}

func TestDefault(t *testing.T) {
	chain, err := Default(&config.Config{
		IgnoredColours: []string{"11"},
		IgnoredRegex:   []string{"(?i)out of office"},
	})
	require.NoError(t, err)

	assert.True(t, chain.Exclude(models.Event{Color: "11"}))
	assert.True(t, chain.Exclude(models.Event{Name: "Out Of Office", Color: "1"}))
	assert.False(t, chain.Exclude(models.Event{Name: "Standup", Color: "1"}))

	_, err = Default(&config.Config{IgnoredRegex: []string{"["}})
	assert.Error(t, err)
}

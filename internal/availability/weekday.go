package availability

import (
	"fmt"
	"salonbook/pkg/model"
	"salonbook/pkg/sanitizer"
	"time"

	"github.com/BurntSushi/toml"
)

// DayNames maps stored schedule keys onto weekdays. Keys are compared after
// case and accent folding, so "Terça-Feira", "terca-feira" and "TERÇA-FEIRA"
// resolve to the same day.
type DayNames struct {
	byKey map[string]time.Weekday
}

var defaultAliases = map[time.Weekday][]string{
	time.Monday:    {"mon", "segunda", "segunda-feira", "seg"},
	time.Tuesday:   {"tue", "tues", "terça", "terça-feira", "ter"},
	time.Wednesday: {"wed", "quarta", "quarta-feira", "qua"},
	time.Thursday:  {"thu", "thurs", "quinta", "quinta-feira", "qui"},
	time.Friday:    {"fri", "sexta", "sexta-feira", "sex"},
	time.Saturday:  {"sat", "sábado", "sab"},
	time.Sunday:    {"sun", "domingo", "dom"},
}

// DefaultDayNames returns the English and Portuguese table. Every call
// returns a fresh value.
func DefaultDayNames() *DayNames {
	names, _ := NewDayNames(defaultAliases)
	return names
}

// NewDayNames builds a table from aliases. The canonical English key of
// every weekday is always present.
func NewDayNames(aliases map[time.Weekday][]string) (*DayNames, error) {
	n := &DayNames{byKey: make(map[string]time.Weekday, 7*5)}
	for d, key := range model.WeekdayKeys {
		n.byKey[key] = time.Weekday(d)
	}
	return n.With(aliases)
}

// With returns a copy of n extended with aliases. An alias already bound to
// a different weekday is an error.
func (n *DayNames) With(aliases map[time.Weekday][]string) (*DayNames, error) {
	out := &DayNames{byKey: make(map[string]time.Weekday, len(n.byKey))}
	for k, v := range n.byKey {
		out.byKey[k] = v
	}
	for day, list := range aliases {
		for _, alias := range list {
			key := sanitizer.FoldKey(alias)
			if key == "" {
				continue
			}
			if prev, ok := out.byKey[key]; ok && prev != day {
				return nil, fmt.Errorf("alias %q maps to both %s and %s", alias, prev, day)
			}
			out.byKey[key] = day
		}
	}
	return out, nil
}

func (n *DayNames) Weekday(key string) (time.Weekday, bool) {
	d, ok := n.byKey[sanitizer.FoldKey(key)]
	return d, ok
}

func (n *DayNames) Len() int {
	return len(n.byKey)
}

type dayNamesFile struct {
	Aliases map[string][]string `toml:"aliases"`
}

// LoadDayNames reads a TOML table of extra aliases and merges it over the
// default table:
//
//	[aliases]
//	monday = ["segunda", "2a"]
func LoadDayNames(path string) (*DayNames, error) {
	var f dayNamesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to decode weekday table %s: %w", path, err)
	}

	base := DefaultDayNames()
	extra := make(map[time.Weekday][]string, len(f.Aliases))
	for key, aliases := range f.Aliases {
		d, ok := base.Weekday(key)
		if !ok || model.WeekdayKey(d) != sanitizer.FoldKey(key) {
			return nil, fmt.Errorf("weekday table %s: %q is not an English weekday name", path, key)
		}
		extra[d] = append(extra[d], aliases...)
	}

	names, err := base.With(extra)
	if err != nil {
		return nil, fmt.Errorf("weekday table %s: %w", path, err)
	}
	return names, nil
}

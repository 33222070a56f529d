package filters

import (
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v2"
)

// ComputeOptions returns the distinct trimmed, non-empty values of a
// dimension across rows, sorted ascending. Rows lacking the dimension
// contribute nothing.
func ComputeOptions[R any](rows []R, value func(R) string) []string {
	seen := set.New[string](0)
	for _, r := range rows {
		if v := strings.TrimSpace(value(r)); v != "" {
			seen.Insert(v)
		}
	}
	out := seen.Slice()
	slices.Sort(out)
	return out
}

// ResolveFilter coerces current to a member of options.
//
// With no options nothing can be coerced and current is returned as is. A
// current value that is already an option is kept. Otherwise preferred wins
// when it is an option, else the first option. Applying it twice gives the
// same result as applying it once.
func ResolveFilter(options []string, current, preferred string) string {
	if len(options) == 0 {
		return current
	}
	if slices.Contains(options, current) {
		return current
	}
	if preferred != "" && slices.Contains(options, preferred) {
		return preferred
	}
	return options[0]
}

// Dimension describes one filterable categorical field of R.
type Dimension[R any] struct {
	// Name is the query parameter the page uses for this dimension.
	Name  string
	Value func(R) string
	// Required dimensions always hold an option once rows exist; they are
	// coerced with ResolveFilter towards Preferred. Optional dimensions
	// accept "" as "All" and reset to it when the chosen value disappears.
	Required  bool
	Preferred string
}

// Set owns the option sets and active values for a group of dimensions.
// Options always come from the unfiltered rows, so dimensions do not cascade.
type Set[R any] struct {
	dims    []Dimension[R]
	options map[string][]string
	active  map[string]string
}

// NewSet returns a filter set over dims with nothing selected.
func NewSet[R any](dims ...Dimension[R]) *Set[R] {
	return &Set[R]{
		dims:    dims,
		options: make(map[string][]string, len(dims)),
		active:  make(map[string]string, len(dims)),
	}
}

// Select records the user's choice for a dimension. It is coerced the next
// time Refresh runs.
func (s *Set[R]) Select(name, value string) {
	s.active[name] = strings.TrimSpace(value)
}

// Refresh recomputes every option set from rows and re-resolves the active
// values against them.
func (s *Set[R]) Refresh(rows []R) {
	for _, d := range s.dims {
		opts := ComputeOptions(rows, d.Value)
		s.options[d.Name] = opts
		cur := s.active[d.Name]
		if d.Required {
			s.active[d.Name] = ResolveFilter(opts, cur, d.Preferred)
			continue
		}
		if cur != "" && !slices.Contains(opts, cur) {
			s.active[d.Name] = ""
		}
	}
}

// Options returns the option set for a dimension.
func (s *Set[R]) Options(name string) []string {
	return s.options[name]
}

// Active returns the active value for a dimension; "" means no constraint.
func (s *Set[R]) Active(name string) string {
	return s.active[name]
}

// Match reports whether r satisfies every active value.
func (s *Set[R]) Match(r R) bool {
	for _, d := range s.dims {
		want := s.active[d.Name]
		if want == "" {
			continue
		}
		if strings.TrimSpace(d.Value(r)) != want {
			return false
		}
	}
	return true
}

// Apply returns the rows that satisfy every active value, preserving order.
func (s *Set[R]) Apply(rows []R) []R {
	var out []R
	for _, r := range rows {
		if s.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

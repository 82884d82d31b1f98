package grid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Selection is an immutable set of cell indices kept in ascending order.
// The zero value is the empty selection, which exports every cell.
type Selection struct {
	idx []int
}

// NewSelection builds a selection from indices in any order; duplicates
// collapse.
func NewSelection(indices ...int) Selection {
	if len(indices) == 0 {
		return Selection{}
	}
	idx := slices.Clone(indices)
	slices.Sort(idx)
	return Selection{idx: slices.Compact(idx)}
}

// ParseSelection reads a comma separated index list such as "0,3,4" for a
// grid of the given number of cells. Ranges like "2-5" are expanded; an
// index outside the grid is an error.
func ParseSelection(s string, cells int) (Selection, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return Selection{}, fmt.Errorf("%w: selection %q", ErrInvalidSettings, part)
		}
		b := a
		if isRange {
			b, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || b < a {
				return Selection{}, fmt.Errorf("%w: selection range %q", ErrInvalidSettings, part)
			}
		}
		if a < 0 || b >= cells {
			return Selection{}, fmt.Errorf("%w: selection %q outside %d cells", ErrInvalidSettings, part, cells)
		}
		for i := a; i <= b; i++ {
			out = append(out, i)
		}
	}
	return NewSelection(out...), nil
}

func (s Selection) Len() int { return len(s.idx) }

func (s Selection) Empty() bool { return len(s.idx) == 0 }

func (s Selection) Contains(i int) bool {
	_, ok := slices.BinarySearch(s.idx, i)
	return ok
}

// Indices returns a copy of the selected indices in ascending order.
func (s Selection) Indices() []int {
	return slices.Clone(s.idx)
}

func (s Selection) With(i int) Selection {
	if s.Contains(i) {
		return s
	}
	return NewSelection(append(s.Indices(), i)...)
}

func (s Selection) Without(i int) Selection {
	pos, ok := slices.BinarySearch(s.idx, i)
	if !ok {
		return s
	}
	return Selection{idx: slices.Delete(s.Indices(), pos, pos+1)}
}

func (s Selection) Toggle(i int) Selection {
	if s.Contains(i) {
		return s.Without(i)
	}
	return s.With(i)
}

// Prune drops indices outside [0, cells).
func (s Selection) Prune(cells int) Selection {
	var kept []int
	for _, i := range s.idx {
		if i >= 0 && i < cells {
			kept = append(kept, i)
		}
	}
	return Selection{idx: kept}
}

// Resolve returns the ordered export set for a grid of cells cells. An
// empty selection means all cells; indices outside the grid are an error.
func (s Selection) Resolve(cells int) ([]int, error) {
	if s.Empty() {
		all := make([]int, cells)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range s.idx {
		if i < 0 || i >= cells {
			return nil, fmt.Errorf("%w: cell %d outside grid of %d", ErrInvalidSettings, i, cells)
		}
	}
	return s.Indices(), nil
}

func (s Selection) String() string {
	parts := make([]string, len(s.idx))
	for i, v := range s.idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

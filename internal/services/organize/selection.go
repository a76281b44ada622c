// Package organize holds the page order and selection a user builds before
// saving a reorganized copy of a document.
//
// Pages are identified by their 0-based index in the source document. The
// display order can be rearranged by dragging one page onto another, and
// each page can be toggled in or out of the selection. Saving keeps the
// selected pages in display order.
package organize

import (
	"errors"
	"fmt"
)

var (
	ErrPageOutOfRange = errors.New("page index out of range")
	ErrInvalidState   = errors.New("invalid organize state")
)

// Selection is not safe for concurrent use. Handlers load one per request.
type Selection struct {
	order    []int
	selected map[int]bool
}

// NewSelection starts with every page in natural order and selected.
func NewSelection(pageCount int) *Selection {
	s := &Selection{
		order:    make([]int, pageCount),
		selected: make(map[int]bool, pageCount),
	}
	for i := range s.order {
		s.order[i] = i
		s.selected[i] = true
	}
	return s
}

// Restore rebuilds a selection from a stored order and selected set. order
// must be a permutation of 0..pageCount-1.
func Restore(pageCount int, order, selected []int) (*Selection, error) {
	if len(order) != pageCount {
		return nil, fmt.Errorf("%w: order has %d pages, document has %d", ErrInvalidState, len(order), pageCount)
	}

	s := &Selection{
		order:    make([]int, pageCount),
		selected: make(map[int]bool, len(selected)),
	}
	seen := make(map[int]bool, pageCount)
	for i, p := range order {
		if p < 0 || p >= pageCount || seen[p] {
			return nil, fmt.Errorf("%w: bad page %d in order", ErrInvalidState, p)
		}
		seen[p] = true
		s.order[i] = p
	}
	for _, p := range selected {
		if !seen[p] {
			return nil, fmt.Errorf("%w: selected page %d not in order", ErrInvalidState, p)
		}
		s.selected[p] = true
	}
	return s, nil
}

// Len is the number of pages in the document.
func (s *Selection) Len() int { return len(s.order) }

func (s *Selection) check(page int) error {
	if page < 0 || page >= len(s.order) {
		return fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, page, len(s.order))
	}
	return nil
}

// Toggle flips whether page is selected and reports the new state.
func (s *Selection) Toggle(page int) (bool, error) {
	if err := s.check(page); err != nil {
		return false, err
	}
	if s.selected[page] {
		delete(s.selected, page)
		return false, nil
	}
	s.selected[page] = true
	return true, nil
}

// IsSelected reports whether page is currently selected.
func (s *Selection) IsSelected(page int) bool { return s.selected[page] }

// Move drags page from onto page to. The dragged page lands immediately
// after the drop target. Dropping a page on itself does nothing.
func (s *Selection) Move(from, to int) error {
	if err := s.check(from); err != nil {
		return err
	}
	if err := s.check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	rest := make([]int, 0, len(s.order))
	for _, p := range s.order {
		if p != from {
			rest = append(rest, p)
		}
	}

	order := make([]int, 0, len(s.order))
	for _, p := range rest {
		order = append(order, p)
		if p == to {
			order = append(order, from)
		}
	}
	s.order = order
	return nil
}

// SelectAll selects every page without changing the order.
func (s *Selection) SelectAll() {
	for _, p := range s.order {
		s.selected[p] = true
	}
}

// Clear deselects every page.
func (s *Selection) Clear() {
	s.selected = make(map[int]bool, len(s.order))
}

// Order returns the display order.
func (s *Selection) Order() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Selected returns the selected pages in display order.
func (s *Selection) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for _, p := range s.order {
		if s.selected[p] {
			out = append(out, p)
		}
	}
	return out
}

// Count is the number of selected pages.
func (s *Selection) Count() int { return len(s.selected) }

// CanSave reports whether at least one page is selected.
func (s *Selection) CanSave() bool { return len(s.selected) > 0 }

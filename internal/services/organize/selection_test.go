package organize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelection(t *testing.T) {
	s := NewSelection(4)
	assert.Equal(t, []int{0, 1, 2, 3}, s.Order())
	assert.Equal(t, []int{0, 1, 2, 3}, s.Selected())
	assert.Equal(t, 4, s.Count())
	assert.True(t, s.CanSave())
}

func TestToggle(t *testing.T) {
	s := NewSelection(3)

	on, err := s.Toggle(1)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []int{0, 2}, s.Selected())

	on, err = s.Toggle(1)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []int{0, 1, 2}, s.Selected())

	_, err = s.Toggle(3)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []int
	}{
		{"forward lands after target", 0, 2, []int{1, 2, 0, 3, 4}},
		{"backward lands after target", 4, 1, []int{0, 1, 4, 2, 3}},
		{"onto last page", 1, 4, []int{0, 2, 3, 4, 1}},
		{"onto first page", 3, 0, []int{0, 3, 1, 2, 4}},
		{"onto itself", 2, 2, []int{0, 1, 2, 3, 4}},
		{"onto its predecessor", 2, 1, []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection(5)
			require.NoError(t, s.Move(tt.from, tt.to))
			assert.Equal(t, tt.want, s.Order())
		})
	}
}

func TestMove_OutOfRange(t *testing.T) {
	s := NewSelection(2)
	assert.ErrorIs(t, s.Move(0, 2), ErrPageOutOfRange)
	assert.ErrorIs(t, s.Move(-1, 0), ErrPageOutOfRange)
}

func TestSelected_FollowsDisplayOrder(t *testing.T) {
	s := NewSelection(4)
	require.NoError(t, s.Move(3, 0)) // 0 3 1 2
	_, err := s.Toggle(1)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 2}, s.Selected())
}

func TestClearAndSelectAll(t *testing.T) {
	s := NewSelection(3)
	require.NoError(t, s.Move(2, 0))

	s.Clear()
	assert.Empty(t, s.Selected())
	assert.False(t, s.CanSave())

	s.SelectAll()
	assert.Equal(t, []int{0, 2, 1}, s.Selected())
}

func TestRestore(t *testing.T) {
	s, err := Restore(3, []int{2, 0, 1}, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, s.Order())
	assert.Equal(t, []int{2, 1}, s.Selected())
	assert.False(t, s.IsSelected(0))
}

func TestRestore_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		order    []int
		selected []int
	}{
		{"wrong length", 3, []int{0, 1}, nil},
		{"duplicate page", 3, []int{0, 1, 1}, nil},
		{"page out of range", 2, []int{0, 2}, nil},
		{"unknown selected page", 2, []int{0, 1}, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.count, tt.order, tt.selected)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

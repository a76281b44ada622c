package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/organize"
)

func TestSessionResponse(t *testing.T) {
	sel := organize.NewSelection(3)
	require.NoError(t, sel.Move(0, 2)) // order 1 2 0
	_, err := sel.Toggle(2)
	require.NoError(t, err)

	s := &models.OrganizeSession{ID: "sess-1", DocumentID: "doc-1"}
	resp := sessionResponse(s, sel)

	assert.Equal(t, []int{1, 2, 0}, resp.PageOrder)
	assert.Equal(t, []int{1, 0}, resp.Selected)
	assert.Equal(t, []models.OrganizePage{
		{Index: 1, Selected: true},
		{Index: 2, Selected: false},
		{Index: 0, Selected: true},
	}, resp.Pages)
	assert.Equal(t, 2, resp.SelectedCount)
	assert.True(t, resp.CanSave)

	sel.Clear()
	resp = sessionResponse(s, sel)
	assert.False(t, resp.CanSave)
	for _, p := range resp.Pages {
		assert.False(t, p.Selected)
	}
}

package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusPaid, true},
		{StatusDraft, StatusOverdue, true},
		{StatusDraft, StatusCancelled, true},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusCancelled, true},
		{StatusSent, StatusOverdue, true},
		{StatusSent, StatusDraft, false},
		{StatusOverdue, StatusPaid, true},
		{StatusOverdue, StatusCancelled, true},
		{StatusOverdue, StatusSent, false},
		{StatusOverdue, StatusDraft, false},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusDraft, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusSent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCanTransitionSelf(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, CanTransition(s, s), "self transition for %s", s)
	}
}

func TestFinalStatesAreTerminal(t *testing.T) {
	for _, from := range Statuses() {
		if !from.IsFinal() {
			continue
		}
		for _, to := range Statuses() {
			if to == from {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusPaid.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
	assert.False(t, StatusOverdue.IsFinal())
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("ARCHIVED", StatusPaid))
	assert.False(t, CanTransition(StatusDraft, "ARCHIVED"))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" paid ")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, st)

	_, err = ParseStatus("settled")
	assert.Error(t, err)
}

func TestStatusesOrder(t *testing.T) {
	assert.Equal(t,
		[]Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled},
		Statuses())
}

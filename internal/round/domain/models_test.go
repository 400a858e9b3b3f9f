package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	cases := []struct {
		name    string
		rounds  []Round
		wantID  int64
		wantNum int
		wantErr error
	}{
		{
			name:    "no rounds",
			wantErr: ErrNoRound,
		},
		{
			name: "live round wins over newer closed round",
			rounds: []Round{
				{ID: 3, RoundNumber: 3, Status: StatusClosed},
				{ID: 2, RoundNumber: 2, Status: StatusLive},
				{ID: 1, RoundNumber: 1, Status: StatusClosed},
			},
			wantID:  2,
			wantNum: 2,
		},
		{
			name: "highest live round when several are live",
			rounds: []Round{
				{ID: 1, RoundNumber: 1, Status: StatusLive},
				{ID: 4, RoundNumber: 4, Status: StatusLive},
				{ID: 2, RoundNumber: 2, Status: StatusClosed},
			},
			wantID:  4,
			wantNum: 4,
		},
		{
			name: "latest round when none is live",
			rounds: []Round{
				{ID: 1, RoundNumber: 1, Status: StatusClosed},
				{ID: 5, RoundNumber: 2, Status: StatusDraft},
			},
			wantID:  5,
			wantNum: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := Current(tc.rounds)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantID, int64(ref.ID))
			assert.Equal(t, tc.wantNum, ref.Number)
			assert.True(t, ref.NumberKnown)
		})
	}
}

func TestScopeValid(t *testing.T) {
	assert.True(t, ScopeAll.Valid())
	assert.True(t, ScopeUnsold.Valid())
	assert.True(t, ScopeCustom.Valid())
	assert.False(t, Scope("everything").Valid())
}

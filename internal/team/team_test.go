package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignPairsStrongestWithWeakest(t *testing.T) {
	got := Assign([4]Member{
		{PlayerID: "p1", Rating: 1800},
		{PlayerID: "p2", Rating: 1600},
		{PlayerID: "p3", Rating: 1500},
		{PlayerID: "p4", Rating: 1000},
	})

	assert.Equal(t, [2]string{"p1", "p4"}, got.Team1)
	assert.Equal(t, [2]string{"p2", "p3"}, got.Team2)
	assert.Equal(t, 1400, got.Team1Avg)
	assert.Equal(t, 1550, got.Team2Avg)
}

func TestAssignBreaksTiesByJoinOrder(t *testing.T) {
	// Two players at 1000: the earlier joiner takes the weaker seat and pairs
	// with the top player on team 1.
	got := Assign([4]Member{
		{PlayerID: "early", Rating: 1000},
		{PlayerID: "late", Rating: 1000},
		{PlayerID: "mid", Rating: 1200},
		{PlayerID: "top", Rating: 1400},
	})

	assert.Equal(t, [2]string{"top", "early"}, got.Team1)
	assert.Equal(t, [2]string{"mid", "late"}, got.Team2)
}

func TestAssignFloorsAverages(t *testing.T) {
	got := Assign([4]Member{
		{PlayerID: "a", Rating: 1001},
		{PlayerID: "b", Rating: 1000},
		{PlayerID: "c", Rating: 1000},
		{PlayerID: "d", Rating: 1000},
	})

	// 1001 and 1000 average to 1000 with integer division.
	assert.Equal(t, 1000, got.Team1Avg)
	assert.Equal(t, 1000, got.Team2Avg)
}

func TestAssignEqualRatingsKeepJoinOrder(t *testing.T) {
	got := Assign([4]Member{
		{PlayerID: "a", Rating: 1000},
		{PlayerID: "b", Rating: 1000},
		{PlayerID: "c", Rating: 1000},
		{PlayerID: "d", Rating: 1000},
	})

	assert.Equal(t, [2]string{"d", "a"}, got.Team1)
	assert.Equal(t, [2]string{"c", "b"}, got.Team2)
}

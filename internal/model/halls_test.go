package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHallForTable(t *testing.T) {
	cases := []struct {
		table uint
		hall  Hall
	}{
		{1, GreatHall},
		{43, GreatHall},
		{44, LeftHall},
		{65, LeftHall},
		{66, RightHall},
		{83, RightHall},
		{84, SecondFloor},
		{113, SecondFloor},
	}
	for _, c := range cases {
		assert.Equal(t, c.hall, HallForTable(c.table), "table %d", c.table)
	}
}

func TestValidTable(t *testing.T) {
	assert.False(t, ValidTable(0))
	assert.True(t, ValidTable(1))
	assert.True(t, ValidTable(113))
	assert.False(t, ValidTable(114))
}

func TestDisplayTableRenumbersSecondFloor(t *testing.T) {
	assert.Equal(t, uint(43), DisplayTable(43))
	assert.Equal(t, uint(83), DisplayTable(83))
	assert.Equal(t, uint(1), DisplayTable(84))
	assert.Equal(t, uint(30), DisplayTable(113))
}

func TestTableLabel(t *testing.T) {
	assert.Equal(t, "table 12 (Great Hall)", TableLabel(12))
	assert.Equal(t, "table 5 (Second Floor)", TableLabel(88))
}

func TestParsePickupPlace(t *testing.T) {
	assert.Equal(t, PickupOffice, ParsePickupPlace("office"))
	assert.Equal(t, PickupIdeon, ParsePickupPlace("ideon"))
	assert.Equal(t, PickupUnspecified, ParsePickupPlace(""))
	assert.Equal(t, PickupUnspecified, ParsePickupPlace("somewhere"))
}

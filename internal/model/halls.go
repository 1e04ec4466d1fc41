package model

import "fmt"

// Hall names the physical area a numbered table belongs to. The table id
// space is partitioned statically; the mapping is used for display and
// grouping only and carries no allocation semantics.
type Hall string

const (
	GreatHall   Hall = "Great Hall"
	LeftHall    Hall = "Left Hall"
	RightHall   Hall = "Right Hall"
	SecondFloor Hall = "Second Floor"
)

// Table id boundaries of the venue. Tables 1-43 stand in the Great Hall,
// 44-65 in the Left Hall, 66-83 in the Right Hall and 84-113 on the
// Second Floor, where tables are displayed renumbered from 1.
const (
	FirstTable            uint = 1
	LastGreatHallTable    uint = 43
	LastLeftHallTable     uint = 65
	LastRightHallTable    uint = 83
	LastTable             uint = 113
	secondFloorTableShift uint = 83
)

// ValidTable reports whether id falls inside the venue's table id space.
func ValidTable(id uint) bool {
	return id >= FirstTable && id <= LastTable
}

// HallForTable returns the hall a table belongs to. The id must be valid.
func HallForTable(id uint) Hall {
	switch {
	case id <= LastGreatHallTable:
		return GreatHall
	case id <= LastLeftHallTable:
		return LeftHall
	case id <= LastRightHallTable:
		return RightHall
	default:
		return SecondFloor
	}
}

// DisplayTable returns the table number as shown to guests. Second Floor
// tables are renumbered from 1 (raw id minus 83); all others keep their
// raw id.
func DisplayTable(id uint) uint {
	if id > LastRightHallTable {
		return id - secondFloorTableShift
	}
	return id
}

// TableLabel renders a table reference for reports and mails, e.g.
// "table 12 (Great Hall)" or "table 5 (Second Floor)".
func TableLabel(id uint) string {
	return fmt.Sprintf("table %d (%s)", DisplayTable(id), HallForTable(id))
}

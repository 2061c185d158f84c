package entity

// Outcome is the result of a 3x3 grid: still open, won by one side, or drawn.
type Outcome string

const (
	OutcomeNone  Outcome = ""
	OutcomeX     Outcome = "X"
	OutcomeO     Outcome = "O"
	OutcomeDrawn Outcome = "-"
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// IsWin reports whether the outcome names a winner.
func (that Outcome) IsWin() bool {
	return that == OutcomeX || that == OutcomeO
}

// Evaluate - computes the outcome of a 3x3 state map.
// Only X and O lines win; a line of drawn entries does not. With no line and no open entry left
// the grid is drawn.
func Evaluate(states [3][3]Outcome) Outcome {
	var flat [9]Outcome
	for row := range states {
		for col := range states[row] {
			flat[row*3+col] = states[row][col]
		}
	}

	for _, combo := range WinCombos {
		a, b, c := flat[combo[0]], flat[combo[1]], flat[combo[2]]
		if a.IsWin() && a == b && b == c {
			return a
		}
	}

	for _, state := range flat {
		if state == OutcomeNone {
			return OutcomeNone
		}
	}

	return OutcomeDrawn
}

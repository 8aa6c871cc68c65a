package models

import "fmt"

// Level is the difficulty of an exercise.
type Level int

const (
	Easy Level = iota
	Medium
	Hard
)

// Levels lists the difficulty levels in menu order.
var Levels = []Level{Easy, Medium, Hard}

func (l Level) String() string {
	switch l {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if l.String() == s {
			return l, nil
		}
	}
	return Easy, fmt.Errorf("unknown level %q", s)
}

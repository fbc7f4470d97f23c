package model

// Levels returns, for every step of order, the length of the longest path
// reaching it. order must be topological and upstream lists the direct
// dependencies of a step.
func Levels(order []string, upstream func(name string) []string) map[string]int {
	level := make(map[string]int, len(order))

	for _, name := range order {
		lvl := 0

		for _, up := range upstream(name) {
			if level[up]+1 > lvl {
				lvl = level[up] + 1
			}
		}

		level[name] = lvl
	}

	return level
}

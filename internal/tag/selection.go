package tag

// Selection helpers. Each returns a new slice and leaves the input intact;
// order encodes priority, first is highest. None of them touch a grid.

// Toggle appends name if absent, removes it if present.
func Toggle(selected []string, name string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, s := range selected {
		if s == name {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, name)
	}
	return out
}

// MoveUp swaps name with its predecessor. At the top, or when name is not
// selected, the order is unchanged.
func MoveUp(selected []string, name string) []string {
	out := append([]string{}, selected...)
	i := indexOf(out, name)
	if i > 0 {
		out[i-1], out[i] = out[i], out[i-1]
	}
	return out
}

// MoveDown swaps name with its successor. At the bottom, or when name is not
// selected, the order is unchanged.
func MoveDown(selected []string, name string) []string {
	out := append([]string{}, selected...)
	i := indexOf(out, name)
	if i >= 0 && i < len(out)-1 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

// Contains reports whether name is in selected.
func Contains(selected []string, name string) bool {
	return indexOf(selected, name) >= 0
}

func indexOf(list []string, name string) int {
	for i, s := range list {
		if s == name {
			return i
		}
	}
	return -1
}

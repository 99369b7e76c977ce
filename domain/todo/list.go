package todo

// The functions below never modify their input slice; each returns a new collection.

// Append returns the collection with t added at the end.
func Append(list []Todo, t Todo) []Todo {
	out := make([]Todo, 0, len(list)+1)
	out = append(out, list...)
	return append(out, t)
}

// Toggle flips the completed flag of the todo with the given id.
// The second result is false when no todo matched; the returned collection is then an unchanged copy.
func Toggle(list []Todo, id string) ([]Todo, bool) {
	out := Clone(list)
	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
			return out, true
		}
	}
	return out, false
}

// Remove drops the todo with the given id, keeping the order of the rest.
func Remove(list []Todo, id string) ([]Todo, bool) {
	out := make([]Todo, 0, len(list))
	found := false
	for _, t := range list {
		if !found && t.ID == id {
			found = true
			continue
		}
		out = append(out, t)
	}
	return out, found
}

// ClearCompleted drops every completed todo and reports how many were removed.
func ClearCompleted(list []Todo) ([]Todo, int) {
	out := make([]Todo, 0, len(list))
	for _, t := range list {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out, len(list) - len(out)
}

// Apply returns the view of list selected by f.
func Apply(list []Todo, f Filter) []Todo {
	out := make([]Todo, 0, len(list))
	for _, t := range list {
		switch f {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Count derives total, active and completed counts.
func Count(list []Todo) Counts {
	c := Counts{Total: len(list)}
	for _, t := range list {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// Find returns the todo with the given id.
func Find(list []Todo, id string) (Todo, bool) {
	for _, t := range list {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}

// Clone returns a copy that shares no backing array with list. A nil list clones to an empty one.
func Clone(list []Todo) []Todo {
	out := make([]Todo, len(list))
	copy(out, list)
	return out
}

package model

// Requirement is one gathered requirement. IsCompleted is only ever flipped
// locally; the backend is not told about it.
type Requirement struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
}

// RequirementList is the wire envelope for GET /api/requirements.
type RequirementList struct {
	Requirements []Requirement `json:"requirements"`
}

// Toggle flips IsCompleted on the requirement with the given id.
func (l *RequirementList) Toggle(id ID) bool {
	for i := range l.Requirements {
		if l.Requirements[i].ID.Equal(id) {
			l.Requirements[i].IsCompleted = !l.Requirements[i].IsCompleted
			return true
		}
	}
	return false
}

// Stats counts completed and pending requirements.
func (l RequirementList) Stats() (done, pending int) {
	for _, r := range l.Requirements {
		if r.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}

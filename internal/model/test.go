package model

import "strings"

// Test is a test record written against a specification.
type Test struct {
	ID          ID     `json:"id,omitzero"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (t Test) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(t.Title) == "" {
		fe["title"] = "Title is required."
	}
	if strings.TrimSpace(t.Description) == "" {
		fe["description"] = "Description is required."
	}
	if len(fe) == 0 {
		return nil
	}
	fe[MessageKey] = "Title and description are required."
	return fe
}

package model

import "strings"

// Specification is a business specification record.
type Specification struct {
	ID          ID     `json:"id,omitzero"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s Specification) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(s.Name) == "" {
		fe["name"] = "Name is required."
	}
	if strings.TrimSpace(s.Description) == "" {
		fe["description"] = "Description is required."
	}
	if len(fe) == 0 {
		return nil
	}
	fe[MessageKey] = "Name and description are required."
	return fe
}

// SpecificationList is the collection envelope returned by the backend.
type SpecificationList struct {
	Specifications []Specification `json:"specifications"`
}

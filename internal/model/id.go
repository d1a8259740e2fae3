package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a resource within its collection. The backend may hand out
// numbers or strings; both round-trip unchanged.
type ID struct {
	raw     string
	numeric bool
}

func NumericID(n int64) ID { return ID{raw: strconv.FormatInt(n, 10), numeric: true} }

func StringID(s string) ID { return ID{raw: s} }

// ParseID reads an id typed by a user: all-digit input becomes numeric.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, fmt.Errorf("empty id")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ID{raw: s, numeric: true}, nil
	}
	return ID{raw: s}, nil
}

func (id ID) String() string { return id.raw }

// IsZero reports whether the backend has not assigned an id yet.
func (id ID) IsZero() bool { return id.raw == "" }

func (id ID) Equal(other ID) bool { return id.raw == other.raw }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID{raw: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or a string: %w", err)
	}
	*id = ID{raw: n.String(), numeric: true}
	return nil
}

package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNestedNotObject = errors.New("expected a JSON object")

// NestedField holds one nested alumni section exactly as the client sent it:
// either a JSON object, or a string containing a JSON object (multipart forms
// and some older clients send the latter).
type NestedField struct {
	raw     []byte
	present bool
}

// NestedFromString wraps a form value; blank values count as absent
func NestedFromString(s string) NestedField {
	if strings.TrimSpace(s) == "" {
		return NestedField{}
	}
	return NestedField{raw: []byte(s), present: true}
}

// NestedFromValue marshals v into a NestedField
func NestedFromValue(v interface{}) NestedField {
	b, err := json.Marshal(v)
	if err != nil {
		return NestedField{}
	}
	return NestedField{raw: b, present: true}
}

// UnmarshalJSON implements json.Unmarshaler; null counts as absent
func (n *NestedField) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NestedField{}
		return nil
	}
	n.raw = append([]byte(nil), b...)
	n.present = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (n NestedField) MarshalJSON() ([]byte, error) {
	if !n.present {
		return []byte("null"), nil
	}
	data := bytes.TrimSpace(n.raw)
	if json.Valid(data) {
		return data, nil
	}
	return json.Marshal(string(n.raw))
}

// Present reports whether the client sent the field at all
func (n NestedField) Present() bool {
	return n.present
}

// Decode parses the section into v. It returns false when the section is
// absent or empty, and an error when it is present but not a JSON object.
func (n NestedField) Decode(v interface{}) (bool, error) {
	if !n.present {
		return false, nil
	}

	data := bytes.TrimSpace(n.raw)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return false, err
		}
		data = bytes.TrimSpace([]byte(s))
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if data[0] != '{' {
		return false, errNestedNotObject
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// AlumniRequest is the create/update payload. Every field is optional at the
// binding level; the service enforces the create-time requirements.
type AlumniRequest struct {
	Name               *string     `json:"name" example:"Jane Doe"`
	AcademicUnit       *string     `json:"academicUnit" example:"School of Engineering"`
	Program            *string     `json:"program" example:"B.Tech CS"`
	PassingYear        *string     `json:"passingYear" example:"2019-20"`
	RegistrationNumber *string     `json:"registrationNumber" example:"REG-001"`
	ContactDetails     NestedField `json:"contactDetails" swaggertype:"object"`
	QualifiedExams     NestedField `json:"qualifiedExams" swaggertype:"object"`
	Employment         NestedField `json:"employment" swaggertype:"object"`
	HigherEducation    NestedField `json:"higherEducation" swaggertype:"object"`
}

// AlumniListQuery holds the list/search query string
type AlumniListQuery struct {
	Q            string `form:"q"`
	AcademicUnit string `form:"academicUnit"`
	PassingYear  string `form:"passingYear"`
	Program      string `form:"program"`
}

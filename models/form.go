package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or an array of strings, which
// is how checkbox groups arrive from form posts. Blank entries are dropped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = cleanList([]string{s})
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = cleanList(items)
	return nil
}

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = cleanList([]string{value.Value})
		return nil
	default:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = cleanList(items)
		return nil
	}
}

func cleanList(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FormValue is a free-text form field that may be posted as a JSON string
// or number. It is kept as text so validation can report what was typed.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(strings.TrimSpace(s))
		return nil
	}
	*v = FormValue(data)
	return nil
}

// UnmarshalYAML keeps any scalar as text. Lists and maps are not numbers
// and decode as blank.
func (v *FormValue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = FormValue(strings.TrimSpace(value.Value))
	return nil
}

func (v FormValue) String() string {
	return strings.TrimSpace(string(v))
}

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// Int reads the whole number at the start of the value, so "12.5" and
// "12 miles" give 12. ok is false for blanks and anything that does not
// start with digits, so callers fall back to their default.
func (v FormValue) Int() (n int, ok bool) {
	digits := leadingInt.FindString(v.String())
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// OptionalInt is Int as a pointer; nil means "absent".
func (v FormValue) OptionalInt() *int {
	n, ok := v.Int()
	if !ok {
		return nil
	}
	return &n
}

// Numeric criteria fields are read through FormValue so that a number
// typed as text, or text that is not a number, never fails the decode.
// Unparseable values become absent (nil or 0) and the estimator applies
// its default. Fields missing from the input keep their current value.

type ageSelectionFields struct {
	Mode *string    `json:"mode" yaml:"mode"`
	Min  *FormValue `json:"min" yaml:"min"`
	Max  *FormValue `json:"max" yaml:"max"`
}

func (a *AgeSelection) apply(f ageSelectionFields) {
	if f.Mode != nil {
		a.Mode = *f.Mode
	}
	if f.Min != nil {
		a.Min = f.Min.OptionalInt()
	}
	if f.Max != nil {
		a.Max = f.Max.OptionalInt()
	}
}

func (a *AgeSelection) UnmarshalJSON(data []byte) error {
	var f ageSelectionFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	a.apply(f)
	return nil
}

func (a *AgeSelection) UnmarshalYAML(value *yaml.Node) error {
	var f ageSelectionFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	a.apply(f)
	return nil
}

type siteCoverageFields struct {
	List          *[]Site    `json:"list" yaml:"list"`
	DefaultRadius *FormValue `json:"defaultRadius" yaml:"defaultRadius"`
}

func (s *SiteCoverage) apply(f siteCoverageFields) {
	if f.List != nil {
		s.List = *f.List
	}
	if f.DefaultRadius != nil {
		s.DefaultRadius, _ = f.DefaultRadius.Int()
	}
}

func (s *SiteCoverage) UnmarshalJSON(data []byte) error {
	var f siteCoverageFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	s.apply(f)
	return nil
}

func (s *SiteCoverage) UnmarshalYAML(value *yaml.Node) error {
	var f siteCoverageFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	s.apply(f)
	return nil
}

type coverageFields struct {
	Type      *string    `json:"type" yaml:"type"`
	Miles     *FormValue `json:"miles" yaml:"miles"`
	Districts *[]string  `json:"districts" yaml:"districts"`
}

func (c *Coverage) apply(f coverageFields) {
	if f.Type != nil {
		c.Type = *f.Type
	}
	if f.Miles != nil {
		c.Miles, _ = f.Miles.Int()
	}
	if f.Districts != nil {
		c.Districts = *f.Districts
	}
}

func (c *Coverage) UnmarshalJSON(data []byte) error {
	var f coverageFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.apply(f)
	return nil
}

func (c *Coverage) UnmarshalYAML(value *yaml.Node) error {
	var f coverageFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	c.apply(f)
	return nil
}

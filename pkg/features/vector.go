package features

import "fmt"

// Vector is an ordered, fixed-length numeric feature vector. Field order and
// count always mirror the schema it was encoded against.
type Vector struct {
	Fields []string
	Values []float64
}

// Value returns the encoded value for a field name.
func (v Vector) Value(field string) (float64, bool) {
	for i, name := range v.Fields {
		if name == field {
			return v.Values[i], true
		}
	}
	return 0, false
}

// MatchesSchema verifies length and exact field order against a bundle
// schema. Any disagreement is reported, never silently coerced.
func (v Vector) MatchesSchema(schema []string) error {
	if len(v.Fields) != len(schema) {
		return fmt.Errorf("vector has %d fields, schema expects %d", len(v.Fields), len(schema))
	}
	for i, name := range schema {
		if v.Fields[i] != name {
			return fmt.Errorf("field %d is %q, schema expects %q", i, v.Fields[i], name)
		}
	}
	return nil
}

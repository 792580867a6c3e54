package models

import "fmt"

// Complexity is the five-level ordered difficulty label of a prompt
type Complexity int

const (
	ComplexityVerySimple Complexity = iota + 1
	ComplexitySimple
	ComplexityModerate
	ComplexityComplex
	ComplexityVeryComplex
)

// AllComplexities lists the labels from least to most complex
var AllComplexities = []Complexity{
	ComplexityVerySimple,
	ComplexitySimple,
	ComplexityModerate,
	ComplexityComplex,
	ComplexityVeryComplex,
}

var complexityNames = map[Complexity]string{
	ComplexityVerySimple:  "Very Simple",
	ComplexitySimple:      "Simple",
	ComplexityModerate:    "Moderate",
	ComplexityComplex:     "Complex",
	ComplexityVeryComplex: "Very Complex",
}

// String returns the label as used on the wire
func (c Complexity) String() string {
	if name, ok := complexityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Complexity(%d)", int(c))
}

// Valid reports whether c is one of the five labels
func (c Complexity) Valid() bool {
	_, ok := complexityNames[c]
	return ok
}

// ParseComplexity maps a wire label to a Complexity. Matching is exact.
func ParseComplexity(label string) (Complexity, error) {
	for _, c := range AllComplexities {
		if complexityNames[c] == label {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid complexity level %q", label)
}

// MarshalText implements encoding.TextMarshaler
func (c Complexity) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid complexity %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Complexity) UnmarshalText(text []byte) error {
	parsed, err := ParseComplexity(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ComplexityClassification is the validated answer of the classifier.
// Rationale is advisory text and is never parsed.
type ComplexityClassification struct {
	Label     Complexity
	Rationale string
}

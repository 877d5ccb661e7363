package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// UnmarshalJSON fills Label from Column when absent.
func (s *Series) UnmarshalJSON(data []byte) error {
	type plain Series
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = p.Column
	}
	*s = Series(p)
	return nil
}

// UnmarshalJSON applies row/col defaults and the yaxis_color aliases.
func (s *Subplot) UnmarshalJSON(data []byte) error {
	type plain Subplot
	aux := struct {
		plain
		Row                 *float64 `json:"row"`
		Col                 *float64 `json:"col"`
		YAxisColor          string   `json:"yaxis_color"`
		SecondaryYAxisColor string   `json:"secondary_yaxis_color"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p := aux.plain
	var err error
	if p.Row, err = gridIndex("row", aux.Row); err != nil {
		return err
	}
	if p.Col, err = gridIndex("col", aux.Col); err != nil {
		return err
	}
	if p.YLabelColor == "" {
		p.YLabelColor = aux.YAxisColor
	}
	if p.SecondaryYLabelColor == "" {
		p.SecondaryYLabelColor = aux.SecondaryYAxisColor
	}
	*s = Subplot(p)
	return nil
}

// gridIndex accepts integral JSON numbers such as 2 or 2.0 and defaults to 1.
func gridIndex(name string, v *float64) (int, error) {
	if v == nil {
		return 1, nil
	}
	if *v != math.Trunc(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("subplot %s must be a whole number, got %v", name, *v)
	}
	return int(*v), nil
}

// UnmarshalJSON applies the type default and the yaxis_color aliases.
func (f *Figure) UnmarshalJSON(data []byte) error {
	type plain Figure
	aux := struct {
		plain
		YAxisColor          string `json:"yaxis_color"`
		SecondaryYAxisColor string `json:"secondary_yaxis_color"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p := aux.plain
	if p.Type == "" {
		p.Type = TypeSingle
	}
	if p.YLabelColor == "" {
		p.YLabelColor = aux.YAxisColor
	}
	if p.SecondaryYLabelColor == "" {
		p.SecondaryYLabelColor = aux.SecondaryYAxisColor
	}
	*f = Figure(p)
	return nil
}

// Parse decodes a JSON array of figures. Unknown keys are ignored.
func Parse(data []byte) ([]Figure, error) {
	var figures []Figure
	if err := json.Unmarshal(data, &figures); err != nil {
		return nil, fmt.Errorf("failed to decode spec: %w", err)
	}
	return figures, nil
}

// Load reads a spec file.
func Load(path string) ([]Figure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", path, err)
	}
	figures, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return figures, nil
}

// Marshal encodes figures as an indented JSON array with a trailing newline.
// An empty list encodes as [].
func Marshal(figures []Figure) ([]byte, error) {
	if figures == nil {
		figures = []Figure{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(figures); err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	return buf.Bytes(), nil
}

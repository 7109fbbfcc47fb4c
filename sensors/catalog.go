package sensors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrSensorTypeNotFound = errors.New("sensor type not found")

type SpecKind string

const (
	SpecRange      SpecKind = "range"
	SpecThresholds SpecKind = "thresholds"
	SpecNone       SpecKind = "none"
)

type Threshold struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Spec is the declared specification of a sensor type. Kind selects which of
// the other fields are meaningful: Min and Max for SpecRange, Entries for
// SpecThresholds and none of them for SpecNone.
type Spec struct {
	Kind    SpecKind    `json:"kind"`
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
	Entries []Threshold `json:"entries,omitempty"`
}

type Type struct {
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	SpecLabel string `json:"specLabel,omitempty"`
	Spec      Spec   `json:"spec"`
}

func (t Type) validate() error {
	if t.Name == "" {
		return errors.New("sensor type name cannot be empty")
	}
	switch t.Spec.Kind {
	case SpecRange:
		if t.Spec.Min > t.Spec.Max {
			return fmt.Errorf("sensor type %q: spec min %g is greater than max %g", t.Name, t.Spec.Min, t.Spec.Max)
		}
	case SpecThresholds:
		if len(t.Spec.Entries) == 0 {
			return fmt.Errorf("sensor type %q: thresholds spec needs at least 1 entry", t.Name)
		}
	case SpecNone:
	default:
		return fmt.Errorf("sensor type %q: unknown spec kind %q", t.Name, t.Spec.Kind)
	}
	return nil
}

var defaultTypes = []Type{
	{
		Name:      "temperature",
		Unit:      "°C",
		SpecLabel: "Comfort range",
		Spec:      Spec{Kind: SpecRange, Min: 18, Max: 24},
	},
	{
		Name:      "humidity",
		Unit:      "%",
		SpecLabel: "Recommended",
		Spec:      Spec{Kind: SpecRange, Min: 40, Max: 60},
	},
	{
		Name:      "co2",
		Unit:      "ppm",
		SpecLabel: "CO2",
		Spec: Spec{Kind: SpecThresholds, Entries: []Threshold{
			{Key: " (moderate)", Value: 1000},
			{Key: " (poor)", Value: 1400},
		}},
	},
	{
		Name:      "noise",
		Unit:      "dB",
		SpecLabel: "Limit",
		Spec: Spec{Kind: SpecThresholds, Entries: []Threshold{
			{Key: " (night)", Value: 40},
			{Key: " (day)", Value: 55},
		}},
	},
	{
		Name:      "light",
		Unit:      "lx",
		SpecLabel: "Workplace",
		Spec:      Spec{Kind: SpecRange, Min: 300, Max: 500},
	},
	{
		Name: "pressure",
		Unit: "hPa",
		Spec: Spec{Kind: SpecNone},
	},
}

// Catalog is the set of sensor types known to the service. It is immutable once
// built and safe for concurrent use.
type Catalog struct {
	types map[string]Type
	order []string
}

func NewCatalog(types ...Type) (*Catalog, error) {
	c := &Catalog{types: map[string]Type{}}
	for _, t := range types {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, ok := c.types[t.Name]; !ok {
			c.order = append(c.order, t.Name)
		}
		c.types[t.Name] = t
	}
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultTypes...)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a JSON array of sensor types from path. The types in the
// file are added to the default ones, replacing those with the same name.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading sensor catalog: %w", err)
	}
	var fileTypes []Type
	if err := json.Unmarshal(raw, &fileTypes); err != nil {
		return nil, fmt.Errorf("error parsing sensor catalog %q: %w", path, err)
	}

	types := append(append([]Type{}, defaultTypes...), fileTypes...)
	return NewCatalog(types...)
}

func (c *Catalog) Get(name string) (Type, error) {
	t, ok := c.types[name]
	if !ok {
		return Type{}, fmt.Errorf("%w: %q", ErrSensorTypeNotFound, name)
	}
	return t, nil
}

func (c *Catalog) List() []Type {
	types := make([]Type, len(c.order))
	for i, name := range c.order {
		types[i] = c.types[name]
	}
	return types
}

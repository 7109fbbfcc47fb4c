package sensors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	require := require.New(t)

	catalog := DefaultCatalog()
	types := catalog.List()
	require.Len(types, len(defaultTypes))
	require.Equal("temperature", types[0].Name)

	co2, err := catalog.Get("co2")
	require.NoError(err)
	require.Equal(SpecThresholds, co2.Spec.Kind)

	_, err = catalog.Get("radiation")
	require.ErrorIs(err, ErrSensorTypeNotFound)
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name   string
		typ    Type
		expErr string
	}{
		{
			name:   "no name",
			typ:    Type{Spec: Spec{Kind: SpecNone}},
			expErr: "name cannot be empty",
		},
		{
			name:   "reversed range",
			typ:    Type{Name: "t", Spec: Spec{Kind: SpecRange, Min: 10, Max: 1}},
			expErr: "greater than max",
		},
		{
			name:   "thresholds without entries",
			typ:    Type{Name: "t", Spec: Spec{Kind: SpecThresholds}},
			expErr: "at least 1 entry",
		},
		{
			name:   "unknown kind",
			typ:    Type{Name: "t", Spec: Spec{Kind: "polygon"}},
			expErr: "unknown spec kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.typ)
			require.ErrorContains(t, err, tt.expErr)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	require := require.New(t)

	// given
	path := filepath.Join(t.TempDir(), "sensors.json")
	err := os.WriteFile(path, []byte(`[
		{"name": "humidity", "unit": "%", "specLabel": "Museum", "spec": {"kind": "range", "min": 45, "max": 55}},
		{"name": "voc", "unit": "ppb", "spec": {"kind": "none"}}
	]`), 0644)
	require.NoError(err)

	// when
	catalog, err := LoadCatalog(path)

	// then
	require.NoError(err)
	humidity, err := catalog.Get("humidity")
	require.NoError(err)
	require.Equal(Spec{Kind: SpecRange, Min: 45, Max: 55}, humidity.Spec)
	require.Equal("Museum", humidity.SpecLabel)

	types := catalog.List()
	require.Len(types, len(defaultTypes)+1)
	require.Equal("humidity", types[1].Name)
	require.Equal("voc", types[len(types)-1].Name)
}

func TestLoadCatalogErrors(t *testing.T) {
	require := require.New(t)

	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(err, "error reading sensor catalog")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(os.WriteFile(path, []byte(`{"name": "x"}`), 0644))
	_, err = LoadCatalog(path)
	require.ErrorContains(err, "error parsing sensor catalog")
}

func TestTypeJSONKeepsZeroBounds(t *testing.T) {
	require := require.New(t)

	raw, err := json.Marshal(Type{Name: "temperature", Spec: Spec{Kind: SpecRange, Min: 0, Max: 5}})
	require.NoError(err)
	require.JSONEq(`{"name": "temperature", "spec": {"kind": "range", "min": 0, "max": 5}}`, string(raw))
}

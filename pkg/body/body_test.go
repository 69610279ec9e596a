package body

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#4169e1", RGB(65, 105, 225)},
		{"rgb(160, 82, 45)", RGB(160, 82, 45)},
		{"RGB(0,255,255)", RGB(0, 255, 255)},
		{"rgba(255, 255, 255, 0.1)", Color{R: 255, G: 255, B: 255, A: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "blue", "rgb(1,2)", "rgb(1,2,300)", "rgba(1,2,3,2)", "#zzzzzz"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#4169e1", RGB(65, 105, 225).Hex())
	assert.Equal(t, 0.1, RGB(1, 2, 3).WithAlpha(0.1).A)
}

func TestWindowContainsInclusive(t *testing.T) {
	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	w := Window{Start: d1, End: d2}

	assert.False(t, w.Contains(d1.Add(-time.Second)))
	assert.True(t, w.Contains(d1))
	assert.True(t, w.Contains(d2))
	assert.False(t, w.Contains(d2.Add(time.Second)))
	assert.True(t, Window{}.Contains(d1))
}

func TestRotationAngle(t *testing.T) {
	earth := Body{RotationPeriod: 1}
	assert.InDelta(t, 90, earth.RotationAngle(0.25), 1e-9)
	assert.InDelta(t, 0, earth.RotationAngle(3), 1e-9)

	venus := Body{RotationPeriod: -4}
	assert.InDelta(t, 270, venus.RotationAngle(1), 1e-9)

	assert.Equal(t, 0.0, Body{}.RotationAngle(10))
}

func TestDefaultCatalog(t *testing.T) {
	c, err := NewCatalog(DefaultBodies(), DefaultGroups())
	require.NoError(t, err)

	assert.Equal(t, []string{MoonID}, c.Siblings(EarthID))
	assert.Equal(t, []string{EarthID}, c.Siblings(MoonID))
	assert.Empty(t, c.Siblings(MarsID))
	assert.Equal(t, []string{MoonID}, c.Children(EarthID))

	saturn, ok := c.Get(SaturnID)
	require.True(t, ok)
	require.NotNil(t, saturn.Ring)
}

func TestCatalogImplicitSingletonGroups(t *testing.T) {
	c, err := NewCatalog([]Body{{ID: "1"}, {ID: "2"}, {ID: "3"}}, []Group{{Name: "pair", Members: []string{"1", "2"}}})
	require.NoError(t, err)

	require.Len(t, c.Groups(), 2)
	assert.Equal(t, []string{"3"}, c.Groups()[1].Members)
	assert.Empty(t, c.Siblings("3"))
}

func TestCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]Body{{ID: "1"}, {ID: "1"}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog([]Body{{ID: "1"}}, []Group{{Name: "g", Members: []string{"2"}}})
	assert.ErrorIs(t, err, ErrUnknownBody)

	_, err = NewCatalog([]Body{{ID: "1"}}, []Group{{Name: "a", Members: []string{"1"}}, {Name: "b", Members: []string{"1"}}})
	assert.Error(t, err)

	_, err = NewCatalog([]Body{{ID: "1", Parent: "9"}}, nil)
	assert.ErrorIs(t, err, ErrUnknownBody)
}

func TestCatalogNextCycles(t *testing.T) {
	c, err := NewCatalog([]Body{{ID: "a"}, {ID: "b"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "a", c.Next(""))
	assert.Equal(t, "b", c.Next("a"))
	assert.Equal(t, "", c.Next("b"))
}

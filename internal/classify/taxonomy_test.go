package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tax := Default()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"apartments", "apartments", true},
		{"  Apartments ", "apartments", true},
		{"Квартиры секции 1", "apartments", true},
		{"ЛИФТ пассажирский", "elevators", true},
		{"Рабочее освещение", "lighting", true},
		{"Chiller plant", "cooling", true},
		{"Насосная станция", "pumps", true},
		{"", "", false},
		{"Server room", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := tax.Resolve(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_ExactTagWinsOverKeyword(t *testing.T) {
	tax := New([]Rule{
		{Tag: "lighting", Keywords: []string{"light"}},
		{Tag: "light industry", Keywords: []string{"workshop"}},
	}, nil, nil)

	tag, ok := tax.Resolve("Light Industry")
	assert.True(t, ok)
	assert.Equal(t, "light industry", tag)
}

func TestDistributed(t *testing.T) {
	tax := Default()

	assert.True(t, tax.Distributed("Аварийное ОСВЕЩЕНИЕ"))
	assert.True(t, tax.Distributed("Ramp heating cable"))
	assert.False(t, tax.Distributed("Насос"))
}

func TestElevatorAndTags(t *testing.T) {
	tax := Default()

	assert.True(t, tax.Elevator("elevators"))
	assert.False(t, tax.Elevator("lighting"))
	assert.Equal(t, []string{"apartments", "cooling", "elevators", "heating", "lighting", "pumps", "ventilation"}, tax.Tags())
}

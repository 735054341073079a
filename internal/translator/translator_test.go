package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_Translate(t *testing.T) {
	tr := New(nil)

	tests := []struct {
		name     string
		service  string
		expected string
	}{
		{"bus-service", "bus-service", "We're having trouble accessing bus information. Please check back soon."},
		{"user-service", "user-service", "We're unable to process user requests at the moment. Please try again later."},
		{"unknown service", "payments", DefaultMessage},
		{"empty name", "", DefaultMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tr.Translate(tt.service))
		})
	}
}

func TestTranslator_Overrides(t *testing.T) {
	tr := New(map[string]string{
		"bus-service":  "Buses are resting.",
		"payments":     "Payments are down.",
		"default":      "Something broke.",
		"user-service": "",
	})

	assert.Equal(t, "Buses are resting.", tr.Translate("bus-service"))
	assert.Equal(t, "Payments are down.", tr.Translate("payments"))
	assert.Equal(t, "Something broke.", tr.Translate("nope"))
	assert.Equal(t, builtinMessages["user-service"], tr.Translate("user-service"))
}

func TestTranslator_Stable(t *testing.T) {
	tr := New(nil)
	first := tr.Translate("bus-booking")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tr.Translate("bus-booking"))
	}
}

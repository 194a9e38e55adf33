package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDEA(t *testing.T) {
	tests := []struct {
		name    string
		dea     string
		wantErr bool
	}{
		{"valid", "AB1234563", false},
		{"lowercase and padded", " ab1234563 ", false},
		{"bad check digit", "AB1234564", true},
		{"too short", "AB123456", true},
		{"digit prefix", "1B1234563", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDEA(tt.dea)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Dr. Alpha", SanitizeString("Dr.\x00 Alpha\x7f"))
}

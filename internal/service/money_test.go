package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/cobill/internal/apperr"
)

func TestCheckMoney(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"12.5", true},
		{"999999999999.9999", true},
		{"2.50000000000", true},
		{"-0.01", false},
		{"1000000000000", false},
		{"0.00001", false},
		{"1e50000000", false},
		{"1e-50000000", false},
		{"0e50000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := checkMoney("amount", dec(tt.value))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), "amount")
		})
	}
}

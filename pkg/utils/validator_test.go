package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCaseNumber(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"DMM-20240115-007", false},
		{"DMM-2024011-007", true},
		{"DMM-20240115-7", true},
		{"dmm-20240115-007", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCaseNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSourceURL(t *testing.T) {
	assert.NoError(t, ValidateSourceURL(""))
	assert.NoError(t, ValidateSourceURL("https://x.com/post/1"))
	assert.Error(t, ValidateSourceURL("ftp://x.com/file"))
	assert.Error(t, ValidateSourceURL("not a url"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "line one\nline two", SanitizeString("  line one\x00\nline two\x7f "))
}

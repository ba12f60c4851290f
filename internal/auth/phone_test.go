package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "canonical domestic", in: "09351234567", want: "09351234567"},
		{name: "international prefix", in: "+98 935 123 4567", want: "09351234567"},
		{name: "bare international digits", in: "989351234567", want: "09351234567"},
		{name: "dashes and spaces", in: "0935-123-45 67", want: "09351234567"},
		{name: "too short", in: "0935123456", wantErr: true},
		{name: "too long", in: "093512345678", wantErr: true},
		{name: "wrong prefix", in: "08351234567", wantErr: true},
		{name: "no digits", in: "hello", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeOTP(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "exact six digits", in: "123456", want: "123456"},
		{name: "spaced digits", in: "12 34 56", want: "123456"},
		{name: "surrounding text", in: "code: 123456 thanks", want: "123456"},
		{name: "extra digits truncated", in: "1234567", want: "123456"},
		{name: "too short", in: "12345", wantErr: true},
		{name: "no digits", in: "abcdef", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOTP(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

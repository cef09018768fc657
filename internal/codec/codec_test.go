package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "plain base64", input: "JVBERi0xLjM=", want: []byte("%PDF-1.3")},
		{name: "data url", input: "data:application/pdf;base64,JVBERi0xLjM=", want: []byte("%PDF-1.3")},
		{name: "unpadded", input: "JVBERi0xLjM", want: []byte("%PDF-1.3")},
		{name: "empty", input: "", want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, input := range []string{"%%%not base64", "data:application/pdf;base64", "data:image/png;base64,@@@"} {
		_, err := Decode(input)
		assert.ErrorIs(t, err, ErrDecode, input)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 0; n < 64; n++ {
		b := make([]byte, n*13)
		rng.Read(b)

		got, err := Decode(Encode(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)

		got, err = Decode(EncodeDataURL("application/pdf", b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
}

func TestIsValidPDF(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  bool
	}{
		{name: "nil", input: nil, want: false},
		{name: "empty", input: []byte{}, want: false},
		{name: "short prefix", input: []byte("%PD"), want: false},
		{name: "exact magic", input: []byte{0x25, 0x50, 0x44, 0x46}, want: true},
		{name: "full header", input: []byte("%PDF-1.7\n"), want: true},
		{name: "png", input: []byte{0x89, 'P', 'N', 'G'}, want: false},
		{name: "lowercase", input: []byte("%pdf-1.7"), want: false},
		{name: "leading whitespace", input: []byte(" %PDF"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPDF(tt.input))
		})
	}
}

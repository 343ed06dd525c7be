// File: internal/services/contact/contact_test.go
package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"local format with trunk digit", "01711112222", "+8801711112222"},
		{"country code without plus", "8801711112222", "+8801711112222"},
		{"already canonical", "+8801711112222", "+8801711112222"},
		{"formatted with spaces and dashes", "+880 1711-112 222", "+8801711112222"},
		{"free-form title passes through", "John Doe", "John Doe"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNumber(tt.in))
		})
	}
}

func TestResolveSwapSwappedHeader(t *testing.T) {
	id := ResolveSwap("+880 1711-112222", "~Rahim")

	assert.Equal(t, "~Rahim", id.Name)
	require.NotNil(t, id.Number)
	assert.Equal(t, "+8801711112222", *id.Number)
}

func TestResolveSwapSavedContact(t *testing.T) {
	id := ResolveSwap("Karim", "01711112222")

	assert.Equal(t, "Karim", id.Name)
	require.NotNil(t, id.Number)
	assert.Equal(t, "+8801711112222", *id.Number)
}

func TestResolveSwapUnsavedContact(t *testing.T) {
	// No details row; the header itself is the number.
	id := ResolveSwap("+8801711112222", "")

	assert.Equal(t, "+8801711112222", id.Name)
	require.NotNil(t, id.Number)
	assert.Equal(t, "+8801711112222", *id.Number)
	assert.Equal(t, "+8801711112222", id.Key())
}

func TestResolveSwapGroup(t *testing.T) {
	id := ResolveSwap("Family Group", "")

	assert.Equal(t, "Family Group", id.Name)
	assert.Nil(t, id.Number)
	assert.Equal(t, "Family Group", id.Key())
}

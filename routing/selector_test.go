package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     Selector
	}{
		{
			name:     "class and method",
			selector: "Example.SayHello",
			want:     Selector{Namespace: "", Class: "Example", Method: "SayHello"},
		},
		{
			name:     "single namespace",
			selector: "example.Example.SayHello",
			want:     Selector{Namespace: "example", Class: "Example", Method: "SayHello"},
		},
		{
			name:     "nested namespace",
			selector: "com.acme.wallet.v1.Wallets.GetBalance",
			want:     Selector{Namespace: "com.acme.wallet.v1", Class: "Wallets", Method: "GetBalance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelector(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	for _, selector := range []string{"", "SayHello"} {
		_, err := ParseSelector(selector)
		assert.ErrorIs(t, err, ErrInvalidSelector, selector)
	}
}

func TestSelector_Service(t *testing.T) {
	s, err := ParseSelector("example.v1.Example.SayHello")
	require.NoError(t, err)
	assert.Equal(t, "example.v1.Example", s.Service())
	assert.Equal(t, "example.v1.Example.SayHello", s.String())

	s, err = ParseSelector("Example.SayHello")
	require.NoError(t, err)
	assert.Equal(t, "Example", s.Service())
}

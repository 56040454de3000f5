package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/v1.1/wallets/{asset}", "/v1.1/wallets/:asset"},
		{"/v1.1/{wallets}/{asset}", "/v1.1/:wallets/:asset"},
		{"/v1.1/wallets/asset", "/v1.1/wallets/asset"},
		{"/v1.1/:wallets/asset", "/v1.1/:wallets/asset"},
		{"/{a}/{b}/{c}", "/:a/:b/:c"},
		{"/users/{id}/orders/{order_id}/items", "/users/:id/orders/:order_id/items"},
		{"/", "/"},
		{"", ""},
		{"/prefix{id}", "/prefix{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}

func TestNormalizePath_Idempotent(t *testing.T) {
	paths := []string{
		"/v1.1/wallets/{asset}",
		"/v1.1/{wallets}/{asset}",
		"/v1.1/:wallets/asset",
		"/{{a}}",
		"/{a}{b}/{c}",
		"/x/{}/y",
	}
	for _, p := range paths {
		once := NormalizePath(p)
		assert.Equal(t, once, NormalizePath(once), p)
	}
}

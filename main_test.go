package main

import (
	"net/http/httptest"
	"testing"

	svc "github.com/mindhaven/backend/services"
	"github.com/spf13/viper"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins string
		requestOrigin  string
		expected       bool
	}{
		{
			name:           "exact match",
			allowedOrigins: "http://localhost,https://app.mindhaven.io",
			requestOrigin:  "http://localhost",
			expected:       true,
		},
		{
			name:           "second entry in list",
			allowedOrigins: "http://localhost,https://app.mindhaven.io",
			requestOrigin:  "https://app.mindhaven.io",
			expected:       true,
		},
		{
			name:           "unknown origin denied",
			allowedOrigins: "http://localhost,https://app.mindhaven.io",
			requestOrigin:  "http://evil.example.com",
			expected:       false,
		},
		{
			name:           "empty allow list denies everything",
			allowedOrigins: "",
			requestOrigin:  "http://localhost",
			expected:       false,
		},
		{
			name:           "whitespace around entries is trimmed",
			allowedOrigins: "http://localhost, https://app.mindhaven.io",
			requestOrigin:  "https://app.mindhaven.io",
			expected:       true,
		},
		{
			name:           "port must match",
			allowedOrigins: "http://localhost:5173",
			requestOrigin:  "http://localhost:8080",
			expected:       false,
		},
		{
			name:           "scheme must match",
			allowedOrigins: "https://app.mindhaven.io",
			requestOrigin:  "http://app.mindhaven.io",
			expected:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.Set("websocket.allowed_origins", tt.allowedOrigins)

			req := httptest.NewRequest("GET", "/api/v1/ws", nil)
			req.Header.Set("Origin", tt.requestOrigin)

			allowed := viper.GetString("websocket.allowed_origins")
			if got := svc.CheckOrigin(req, allowed); got != tt.expected {
				t.Errorf("CheckOrigin() = %v, expected %v for origin %s with allowed origins %q",
					got, tt.expected, tt.requestOrigin, tt.allowedOrigins)
			}
		})
	}
}

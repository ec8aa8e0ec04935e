package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", DefaultURL},
		{"   ", DefaultURL},
		{"http://localhost:8080/ws", "ws://localhost:8080/ws"},
		{"https://desk.example.com/ws", "wss://desk.example.com/ws"},
		{"HTTPS://desk.example.com/ws", "wss://desk.example.com/ws"},
		{"ws://10.0.0.2:8080/ws", "ws://10.0.0.2:8080/ws"},
		{"wss://desk.example.com/ws", "wss://desk.example.com/ws"},
		{"localhost:8080/ws", "ws://localhost:8080/ws"},
		{"100.64.0.7:8080", "ws://100.64.0.7:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveURL(tt.in))
		})
	}
}

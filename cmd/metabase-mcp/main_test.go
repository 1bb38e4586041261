package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCmdLine(t *testing.T) {
	t.Setenv("METABASE_URL", "")
	t.Setenv("METABASE_API_KEY", "")

	p := parseCmdLine([]string{"-base-url", "http://mb.example.com", "-api-key", "k"})
	assert.Equal(t, "http://mb.example.com", p.BaseURL)
	assert.Equal(t, "k", p.APIKey)
	assert.Equal(t, "stdio", p.transport)
	assert.Equal(t, "127.0.0.1:8486", p.listenAddr)
}

func TestParseCmdLine_env(t *testing.T) {
	t.Setenv("METABASE_URL", "http://env.example.com")
	t.Setenv("METABASE_USER_EMAIL", "bob@example.com")
	t.Setenv("METABASE_PASSWORD", "hunter2")

	p := parseCmdLine(nil)
	assert.Equal(t, "http://env.example.com", p.BaseURL)
	assert.Equal(t, "bob@example.com", p.Username)
	assert.Equal(t, "hunter2", p.Password)
}

func TestRun_invalidConfig(t *testing.T) {
	tests := []struct {
		name string
		p    params
	}{
		{"no url", params{APIKey: "k"}},
		{"bad url", params{BaseURL: "not a url", APIKey: "k"}},
		{"no auth", params{BaseURL: "http://mb.example.com"}},
		{"both auth modes", params{BaseURL: "http://mb.example.com", APIKey: "k", Username: "u", Password: "p"}},
		{"partial user/pass", params{BaseURL: "http://mb.example.com", Username: "u"}},
		{"bad transport", params{BaseURL: "http://mb.example.com", APIKey: "k", transport: "carrier-pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t.Context(), tt.p)
			require.Error(t, err)
		})
	}
}

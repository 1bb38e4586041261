package metabase

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCards_filter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"default", "", "all"},
		{"explicit", "archived", "archived"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter string
			cl, _ := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotFilter = r.URL.Query().Get("f")
				w.Write([]byte(`[]`))
			}))
			_, err := cl.ListCards(t.Context(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotFilter)
		})
	}
}

func TestArchiveCard(t *testing.T) {
	var body []byte
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/card/7", func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":7,"archived":true}`))
	})
	cl, rl := testServer(t, mux)

	_, err := cl.ArchiveCard(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT /api/card/7"}, rl.all())
	assert.JSONEq(t, `{"archived":true}`, string(body))
}

func TestExecuteCard(t *testing.T) {
	tests := []struct {
		name       string
		parameters []any
		wantBody   string
	}{
		{"no parameters", nil, `{"parameters":[]}`},
		{"with parameters", []any{map[string]any{"value": "widget"}}, `{"parameters":[{"value":"widget"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/card/7/query", func(w http.ResponseWriter, r *http.Request) {
				body, _ = io.ReadAll(r.Body)
				w.Write([]byte(`{"data":{"rows":[]}}`))
			})
			cl, _ := testServer(t, mux)

			_, err := cl.ExecuteCard(t.Context(), 7, tt.parameters)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantBody, string(body))
		})
	}
}

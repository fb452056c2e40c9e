package db

import (
	"testing"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

func TestScrollQuery_MatchesText(t *testing.T) {
	payload := metadata.Metadata{
		"title":  metadata.String("Test Song"),
		"artist": metadata.String("The Band"),
	}
	tests := []struct {
		name   string
		text   string
		fields []string
		want   bool
	}{
		{"lower phrase", "test", []string{"title"}, true},
		{"upper phrase", "BAND", []string{"title", "artist"}, true},
		{"inside a word", "ong", []string{"title"}, true},
		{"field not scanned", "band", []string{"title"}, false},
		{"no match", "jazz", []string{"title", "artist"}, false},
		{"no text", "", []string{"title"}, true},
		{"no fields", "test", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &ScrollQuery{Text: tt.text, TextFields: tt.fields}
			if got := q.MatchesText(payload); got != tt.want {
				t.Errorf("MatchesText() = %v, want %v", got, tt.want)
			}
		})
	}
}

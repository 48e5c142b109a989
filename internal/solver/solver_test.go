package solver

import (
	"testing"

	"github.com/courtlens/casestatus-api/internal/court"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
		kind  court.Kind
	}{
		{"bare number", "11", "11", ""},
		{"negative number", "-3", "-3", ""},
		{"surrounding whitespace", "  42\n", "42", ""},
		{"prose around answer", "The answer is 11.", "11", ""},
		{"answer with punctuation", "8.", "8", ""},
		{"first number wins", "5 + 3 = 8", "5", ""},
		{"negative in prose", "The result is -17", "-17", ""},
		{"no number at all", "I cannot determine this", "", court.KindAmbiguousAnswer},
		{"empty reply", "", "", court.KindAmbiguousAnswer},
		{"refusal", "Sorry, I can't help with that.", "", court.KindAmbiguousAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.reply)
			if tt.kind != "" {
				if court.KindOf(err) != tt.kind {
					t.Fatalf("ParseAnswer(%q) kind = %q, want %q", tt.reply, court.KindOf(err), tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnswer(%q) error = %v", tt.reply, err)
			}
			if got != tt.want {
				t.Errorf("ParseAnswer(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}

func TestNewVision_KeyRotation(t *testing.T) {
	s := NewVision(VisionOptions{
		APIKeys: []string{"key-a", "key-b", "key-c"},
		Model:   "test-model",
		BaseURL: "https://solver.example/v1/",
	})

	if len(s.clients) != 3 {
		t.Fatalf("got %d clients, want 3", len(s.clients))
	}
	if s.Name() != "vision" {
		t.Errorf("Name() = %q", s.Name())
	}

	// Rotation covers every client across consecutive picks.
	seen := map[uint64]bool{}
	for i := 0; i < 6; i++ {
		seen[s.next.Add(1)%uint64(len(s.clients))] = true
	}
	if len(seen) != 3 {
		t.Errorf("rotation visited %d clients, want 3", len(seen))
	}
}

package metadata

import "testing"

func TestParseCoverGuess(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CoverGuess
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"title": "Dune", "author": "Frank Herbert"}`,
			want:  CoverGuess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name:  "markdown wrapped",
			input: "```json\n{\"title\": \"Dune\", \"author\": \"Frank Herbert\"}\n```",
			want:  CoverGuess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name:  "empty fields allowed",
			input: `{"title": "", "author": ""}`,
			want:  CoverGuess{},
		},
		{
			name:  "whitespace trimmed",
			input: `{"title": "  Dune  ", "author": " Frank Herbert "}`,
			want:  CoverGuess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name:    "not json",
			input:   "I could not read the cover.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCoverGuess(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseCoverGuess(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoverGuessComplete(t *testing.T) {
	if (CoverGuess{Title: "T", Author: "A"}).Complete() != true {
		t.Error("both fields set must be complete")
	}
	if (CoverGuess{Title: "T"}).Complete() {
		t.Error("missing author must be incomplete")
	}
	if (CoverGuess{Author: "A"}).Complete() {
		t.Error("missing title must be incomplete")
	}
}

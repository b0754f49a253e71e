package oracle

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Scores []int `json:"scores"`
	}

	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{
			name: "direct object",
			raw:  `{"scores":[1,2,3]}`,
			want: []int{1, 2, 3},
		},
		{
			name: "fenced block",
			raw:  "```json\n{\"scores\":[4,5]}\n```",
			want: []int{4, 5},
		},
		{
			name: "object embedded in prose",
			raw:  "Sure! Here are the scores:\n{\"scores\":[2]}\nHope that helps.",
			want: []int{2},
		},
		{
			name:    "no object at all",
			raw:     "I cannot rate this conversation.",
			wantErr: true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := ExtractJSON(tt.raw, &p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON(%q) = nil error, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) error: %v", tt.raw, err)
			}
			if !reflect.DeepEqual(p.Scores, tt.want) {
				t.Errorf("scores = %v, want %v", p.Scores, tt.want)
			}
		})
	}
}

func TestSplitFragments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "hey, can we talk?", []string{"hey, can we talk?"}},
		{"multiple", "hey ||| got a minute? ||| it's important", []string{"hey", "got a minute?", "it's important"}},
		{"empty pieces dropped", "|||hey||| |||ok|||", []string{"hey", "ok"}},
		{"whitespace only", "   |||   ", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFragments(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitFragments(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("fragment %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

package bot

import "testing"

func TestRequestsGrounding(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"plain chat", "hello friend", false},
		{"english keyword", "any news today?", true},
		{"uppercase keyword", "LATEST scores please", true},
		{"keyword inside phrase", "please search for the schedule", true},
		{"substring match", "updates on the project", true},
		{"burmese keyword", "ရန်ကုန်မှာ ရာသီဥတု ဘယ်လိုလဲ", true},
		{"burmese question word", "ဈေးနှုန်း ဘယ်လောက်လဲ", true},
		{"keyword embedded in word", "newspaper headline", true}, // substring deliberately wins
		{"near miss", "renewal notice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestsGrounding(tt.text); got != tt.want {
				t.Fatalf("RequestsGrounding(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

package telegram

import "testing"

func TestShouldProcess(t *testing.T) {
	const selfID = int64(500)
	allowOne := func(chatID int64) bool { return chatID == -100123 }
	allowNone := func(int64) bool { return false }

	tests := []struct {
		name     string
		kind     ChatKind
		chatID   int64
		senderID int64
		allowed  AllowPolicy
		want     bool
	}{
		{"private chat", ChatPrivate, 7, 7, allowNone, true},
		{"own message in private", ChatPrivate, 7, selfID, allowNone, false},
		{"group on allow list", ChatGroup, -100123, 7, allowOne, true},
		{"group off allow list", ChatGroup, -100999, 7, allowOne, false},
		{"channel on allow list", ChatChannel, -100123, 7, allowOne, true},
		{"own message in allowed group", ChatGroup, -100123, selfID, allowOne, false},
		{"nil policy closes groups", ChatGroup, -100123, 7, nil, false},
		{"unknown chat kind", ChatUnknown, 7, 7, allowOne, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldProcess(tt.kind, tt.chatID, tt.senderID, selfID, tt.allowed)
			if got != tt.want {
				t.Fatalf("ShouldProcess(%v, %d, %d) = %v, want %v", tt.kind, tt.chatID, tt.senderID, got, tt.want)
			}
		})
	}
}

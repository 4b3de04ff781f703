// Package history keeps a bounded per-conversation transcript of
// user/assistant turn pairs. Pairs are appended as a unit after a
// successful completion, so a stored transcript always has an even number
// of turns; once the bound is hit the oldest pairs slide out first.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/zawhtut/gemgram/pkg/gemgram/kv"
)

// DefaultMaxPairs is how many user/assistant pairs a transcript retains.
const DefaultMaxPairs = 10

// Turn roles, in the upstream model's vocabulary: the assistant side of a
// pair is stored as "model".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Key identifies one transcript: the chat it lives in and the user whose
// conversation it is. Distinct users in the same group chat have distinct
// transcripts.
type Key struct {
	ChatID int64
	UserID int64
}

func (k Key) storageKey() string {
	return kv.Key("conv", strconv.FormatInt(k.ChatID, 10), strconv.FormatInt(k.UserID, 10))
}

// Turn is one utterance in a transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Store persists bounded transcripts in a kv.Store.
type Store struct {
	kv       kv.Store
	maxPairs int
	logger   *slog.Logger
}

// New creates a history store. maxPairs <= 0 falls back to DefaultMaxPairs.
func New(store kv.Store, maxPairs int, logger *slog.Logger) *Store {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:       store,
		maxPairs: maxPairs,
		logger:   logger.With("component", "history"),
	}
}

// Read returns the transcript for key, oldest turn first. Absent keys and
// read failures both come back as an empty transcript: the conversation
// continues without memory rather than erroring.
func (s *Store) Read(ctx context.Context, key Key) []Turn {
	raw, ok, err := s.kv.Get(ctx, key.storageKey())
	if err != nil {
		s.logger.Warn("history read failed, continuing without memory",
			"chat_id", key.ChatID, "user_id", key.UserID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		s.logger.Warn("history decode failed, continuing without memory",
			"chat_id", key.ChatID, "user_id", key.UserID, "error", err)
		return nil
	}
	return turns
}

// Append adds one completed user/assistant pair, truncating to the newest
// maxPairs pairs. The caller's reply already went out, so a failed write is
// logged and swallowed; two concurrent appends to the same key are
// last-write-wins (known race, accepted: the next pair rebuilds from
// whichever transcript won).
func (s *Store) Append(ctx context.Context, key Key, userText, assistantText string) {
	turns := s.Read(ctx, key)
	turns = append(turns,
		Turn{Role: RoleUser, Text: userText},
		Turn{Role: RoleModel, Text: assistantText},
	)
	if limit := s.maxPairs * 2; len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	raw, err := json.Marshal(turns)
	if err != nil {
		s.logger.Warn("history encode failed, update dropped",
			"chat_id", key.ChatID, "user_id", key.UserID, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key.storageKey(), raw); err != nil {
		s.logger.Warn("history write failed, update dropped",
			"chat_id", key.ChatID, "user_id", key.UserID, "error", err)
	}
}

// Clear deletes the stored transcript. Unlike Read and Append this surfaces
// the failure: the user explicitly asked for the reset and must be told
// when it did not happen.
func (s *Store) Clear(ctx context.Context, key Key) error {
	if err := s.kv.Delete(ctx, key.storageKey()); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

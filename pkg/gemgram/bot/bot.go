// Package bot implements the per-message conversation state machine:
// command handling, grounding classification, quota enforcement, history
// merging and the mapping from backend outcomes to user-facing replies.
// Message flow: receive → typing → command check → classify → complete →
// quota/history update → reply.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/zawhtut/gemgram/pkg/gemgram/gemini"
	"github.com/zawhtut/gemgram/pkg/gemgram/history"
	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

// ResetCommand wipes the sender's conversation memory.
const ResetCommand = "/reset"

// Incoming is one transport event dispatched to the state machine. Routing
// (own-message filtering, group allow-list) happens upstream in the
// transport adapter; everything arriving here is eligible.
type Incoming struct {
	ChatID    int64
	SenderID  int64
	MessageID int

	// Text is the message text, empty for media-only messages.
	Text string

	// HasMedia marks messages carrying processable media.
	HasMedia bool
}

// Sender is the outbound transport capability.
type Sender interface {
	// SendReply sends text to the conversation as a threaded reply.
	SendReply(ctx context.Context, chatID int64, text string, inReplyTo int) error

	// SendTyping shows the typing indicator in the conversation.
	SendTyping(ctx context.Context, chatID int64) error
}

// Gateway is the completion backend capability.
type Gateway interface {
	Complete(ctx context.Context, transcript []history.Turn, userText string, useGrounding bool) gemini.Outcome
}

// Bot ties quota, history and the completion gateway together, one run per
// inbound message. It holds no per-message state of its own.
type Bot struct {
	quota   *quota.Store
	history *history.Store
	gateway Gateway
	sender  Sender
	logger  *slog.Logger
}

// New creates a Bot with all dependencies injected.
func New(q *quota.Store, h *history.Store, gw Gateway, sender Sender, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		quota:   q,
		history: h,
		gateway: gw,
		sender:  sender,
		logger:  logger.With("component", "bot"),
	}
}

// Handle runs the state machine for one inbound message. It never returns
// an error: every failure either degrades (store errors) or becomes a fixed
// notice, and an unexpected panic is converted into a best-effort error
// reply. Nothing here may take the process down.
func (b *Bot) Handle(ctx context.Context, msg Incoming) {
	logger := b.logger.With(
		"run_id", shortRunID(),
		"chat_id", msg.ChatID,
		"from", msg.SenderID,
		"msg_id", msg.MessageID,
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("message handler failed", "panic", r)
			reply := fmt.Sprintf("%s (Detail: %v)", NoticeGenericError, r)
			b.send(ctx, msg, reply, logger)
		}
	}()

	text := strings.TrimSpace(msg.Text)

	// No text and no processable media: nothing to do, no reply.
	if text == "" && !msg.HasMedia {
		return
	}

	logger.Info("incoming message",
		"text_preview", truncate(text, 50),
		"has_media", msg.HasMedia,
	)

	if err := b.sender.SendTyping(ctx, msg.ChatID); err != nil {
		logger.Debug("typing indicator failed", "error", err)
	}

	// Media without text: we only handle text.
	if text == "" {
		b.send(ctx, msg, NoticeMediaUnsupported, logger)
		return
	}

	key := history.Key{ChatID: msg.ChatID, UserID: msg.SenderID}

	if strings.EqualFold(text, ResetCommand) {
		reply := NoticeResetDone
		if err := b.history.Clear(ctx, key); err != nil {
			logger.Error("history reset failed", "error", err)
			reply = NoticeResetError
		}
		b.send(ctx, msg, reply, logger)
		return
	}

	reply := b.respond(ctx, key, text, logger)
	b.send(ctx, msg, reply, logger)
}

// respond runs classification, completion and the post-success updates,
// returning the final reply text.
func (b *Bot) respond(ctx context.Context, key history.Key, text string, logger *slog.Logger) string {
	var (
		useGrounding bool
		quotaWarning string
	)
	if RequestsGrounding(text) {
		st := b.quota.Status(ctx)
		if st.Allowed {
			useGrounding = true
		} else {
			// Grounding requested but refused: answer without it and say so.
			quotaWarning = NoticeQuotaExceeded + "\n\n"
		}
		logger.Info("grounding requested",
			"allowed", st.Allowed,
			"quota_count", st.Count,
		)
	}

	transcript := b.history.Read(ctx, key)
	outcome := b.gateway.Complete(ctx, transcript, text, useGrounding)

	switch outcome.Kind {
	case gemini.Success:
		if useGrounding {
			b.quota.TryIncrement(ctx)
		}
		b.history.Append(ctx, key, text, outcome.Text)
		return quotaWarning + outcome.Text

	case gemini.SafetyBlocked:
		logger.Warn("completion blocked", "detail", outcome.Detail)
		return NoticeSafetyBlocked

	case gemini.Empty:
		logger.Warn("completion empty", "detail", outcome.Detail)
		return NoticeGenericError + " (Empty response)"

	case gemini.NoCandidate:
		logger.Warn("completion without candidate", "detail", outcome.Detail)
		return NoticeGenericError + " (No candidate)"

	case gemini.RateLimited:
		logger.Warn("backend rate limited", "detail", outcome.Detail)
		return NoticeQuotaExceeded

	case gemini.BadRequest:
		logger.Warn("backend rejected request", "detail", outcome.Detail)
		return NoticeBadRequest

	default:
		logger.Error("completion transport error", "detail", outcome.Detail)
		return NoticeGenericError + " (Text API Call Error)"
	}
}

// send delivers a reply threaded to the triggering message. A failed send
// is logged and dropped: there is no further fallback channel.
func (b *Bot) send(ctx context.Context, msg Incoming, text string, logger *slog.Logger) {
	if text == "" {
		return
	}
	if err := b.sender.SendReply(ctx, msg.ChatID, text, msg.MessageID); err != nil {
		logger.Error("failed to send reply", "error", err)
	}
}

// shortRunID returns a compact id to correlate one message's log lines.
func shortRunID() string {
	return uuid.New().String()[:8]
}

// truncate returns the first n characters of s, adding "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

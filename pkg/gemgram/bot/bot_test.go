package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zawhtut/gemgram/pkg/gemgram/gemini"
	"github.com/zawhtut/gemgram/pkg/gemgram/history"
	"github.com/zawhtut/gemgram/pkg/gemgram/kv"
	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

type gatewayCall struct {
	transcript []history.Turn
	text       string
	grounding  bool
}

type fakeGateway struct {
	outcome   gemini.Outcome
	panicWith any
	calls     []gatewayCall
}

func (g *fakeGateway) Complete(_ context.Context, transcript []history.Turn, text string, grounding bool) gemini.Outcome {
	g.calls = append(g.calls, gatewayCall{transcript: transcript, text: text, grounding: grounding})
	if g.panicWith != nil {
		panic(g.panicWith)
	}
	return g.outcome
}

type sentReply struct {
	chatID    int64
	text      string
	inReplyTo int
}

type fakeSender struct {
	replies []sentReply
	typing  int
}

func (s *fakeSender) SendReply(_ context.Context, chatID int64, text string, inReplyTo int) error {
	s.replies = append(s.replies, sentReply{chatID: chatID, text: text, inReplyTo: inReplyTo})
	return nil
}

func (s *fakeSender) SendTyping(_ context.Context, _ int64) error {
	s.typing++
	return nil
}

type fixture struct {
	bot     *Bot
	store   *kv.MemoryStore
	quota   *quota.Store
	history *history.Store
	gateway *fakeGateway
	sender  *fakeSender
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	q := quota.New(store, limit, time.UTC, nil)
	h := history.New(store, 10, nil)
	gw := &fakeGateway{}
	snd := &fakeSender{}
	return &fixture{
		bot:     New(q, h, gw, snd, nil),
		store:   store,
		quota:   q,
		history: h,
		gateway: gw,
		sender:  snd,
	}
}

func msg(text string) Incoming {
	return Incoming{ChatID: 100, SenderID: 7, MessageID: 42, Text: text}
}

func (f *fixture) lastReply(t *testing.T) sentReply {
	t.Helper()
	if len(f.sender.replies) == 0 {
		t.Fatalf("no reply sent")
	}
	return f.sender.replies[len(f.sender.replies)-1]
}

func TestHandleSuccessStoresHistoryPair(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "hi"}

	f.bot.Handle(context.Background(), msg("hello"))

	got := f.lastReply(t)
	if got.text != "hi" {
		t.Fatalf("reply = %q, want %q", got.text, "hi")
	}
	if got.inReplyTo != 42 {
		t.Fatalf("inReplyTo = %d, want 42", got.inReplyTo)
	}
	if f.sender.typing != 1 {
		t.Fatalf("typing actions = %d, want 1", f.sender.typing)
	}

	turns := f.history.Read(context.Background(), history.Key{ChatID: 100, UserID: 7})
	want := []history.Turn{
		{Role: history.RoleUser, Text: "hello"},
		{Role: history.RoleModel, Text: "hi"},
	}
	if len(turns) != 2 || turns[0] != want[0] || turns[1] != want[1] {
		t.Fatalf("history = %v, want %v", turns, want)
	}
}

func TestHandleSecondTurnCarriesTranscript(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "a1"}
	f.bot.Handle(context.Background(), msg("q1"))

	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "a2"}
	f.bot.Handle(context.Background(), msg("q2"))

	if len(f.gateway.calls) != 2 {
		t.Fatalf("gateway calls = %d, want 2", len(f.gateway.calls))
	}
	second := f.gateway.calls[1]
	if len(second.transcript) != 2 {
		t.Fatalf("second call transcript = %d turns, want 2", len(second.transcript))
	}
	if second.transcript[0].Text != "q1" || second.transcript[1].Text != "a1" {
		t.Fatalf("transcript = %v, want the first exchange", second.transcript)
	}
}

func TestHandleGroundingAllowedIncrementsQuota(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "sunny"}

	f.bot.Handle(context.Background(), msg("what is the latest weather"))

	if !f.gateway.calls[0].grounding {
		t.Fatalf("gateway called without grounding for a keyword message")
	}
	if got := f.quota.Status(context.Background()).Count; got != 1 {
		t.Fatalf("quota count = %d, want 1", got)
	}
	if got := f.lastReply(t).text; got != "sunny" {
		t.Fatalf("reply = %q, want bare completion without warning", got)
	}
}

func TestHandleExhaustedQuotaPrefixesWarning(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	if err := f.quota.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	f.quota.TryIncrement(ctx) // burn the whole budget
	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "from memory"}

	f.bot.Handle(ctx, msg("search for something"))

	if f.gateway.calls[0].grounding {
		t.Fatalf("gateway called with grounding despite exhausted quota")
	}
	want := NoticeQuotaExceeded + "\n\n" + "from memory"
	if got := f.lastReply(t).text; got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
	if got := f.quota.Status(ctx).Count; got != 1 {
		t.Fatalf("quota count = %d, want unchanged 1", got)
	}
}

func TestHandleNonSuccessLeavesHistoryAndQuota(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		outcome gemini.Outcome
		want    string
	}{
		{"rate limited", gemini.Outcome{Kind: gemini.RateLimited}, NoticeQuotaExceeded},
		{"safety blocked", gemini.Outcome{Kind: gemini.SafetyBlocked}, NoticeSafetyBlocked},
		{"bad request", gemini.Outcome{Kind: gemini.BadRequest}, NoticeBadRequest},
		{"empty", gemini.Outcome{Kind: gemini.Empty}, NoticeGenericError + " (Empty response)"},
		{"no candidate", gemini.Outcome{Kind: gemini.NoCandidate}, NoticeGenericError + " (No candidate)"},
		{"transport", gemini.Outcome{Kind: gemini.TransportError}, NoticeGenericError + " (Text API Call Error)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 5)
			f.gateway.outcome = tt.outcome

			f.bot.Handle(ctx, msg("latest update please"))

			if got := f.lastReply(t).text; got != tt.want {
				t.Fatalf("reply = %q, want %q", got, tt.want)
			}
			turns := f.history.Read(ctx, history.Key{ChatID: 100, UserID: 7})
			if len(turns) != 0 {
				t.Fatalf("history = %v, want empty after failed completion", turns)
			}
			if got := f.quota.Status(ctx).Count; got != 0 {
				t.Fatalf("quota count = %d, want 0 after failed completion", got)
			}
		})
	}
}

func TestHandleResetCommand(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	f.gateway.outcome = gemini.Outcome{Kind: gemini.Success, Text: "a"}
	f.bot.Handle(ctx, msg("q"))

	f.bot.Handle(ctx, msg("/RESET")) // command match is case-insensitive

	if got := f.lastReply(t).text; got != NoticeResetDone {
		t.Fatalf("reply = %q, want %q", got, NoticeResetDone)
	}
	if turns := f.history.Read(ctx, history.Key{ChatID: 100, UserID: 7}); len(turns) != 0 {
		t.Fatalf("history = %v, want empty after reset", turns)
	}
	if len(f.gateway.calls) != 1 {
		t.Fatalf("gateway calls = %d, want no call for the reset command", len(f.gateway.calls))
	}
}

func TestHandleResetCommandStoreFailure(t *testing.T) {
	f := newFixture(t, 5)
	f.store.FailAll = true

	f.bot.Handle(context.Background(), msg("/reset"))

	if got := f.lastReply(t).text; got != NoticeResetError {
		t.Fatalf("reply = %q, want %q", got, NoticeResetError)
	}
}

func TestHandleMediaOnly(t *testing.T) {
	f := newFixture(t, 5)
	m := msg("")
	m.HasMedia = true

	f.bot.Handle(context.Background(), m)

	if got := f.lastReply(t).text; got != NoticeMediaUnsupported {
		t.Fatalf("reply = %q, want %q", got, NoticeMediaUnsupported)
	}
	if len(f.gateway.calls) != 0 {
		t.Fatalf("gateway calls = %d, want none for media-only message", len(f.gateway.calls))
	}
}

func TestHandleEmptyMessageIgnored(t *testing.T) {
	f := newFixture(t, 5)

	f.bot.Handle(context.Background(), msg("   "))

	if len(f.sender.replies) != 0 {
		t.Fatalf("replies = %v, want none for an empty message", f.sender.replies)
	}
	if f.sender.typing != 0 {
		t.Fatalf("typing actions = %d, want none for an empty message", f.sender.typing)
	}
}

func TestHandleRecoversFromPanic(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.panicWith = "boom"

	f.bot.Handle(context.Background(), msg("hello"))

	got := f.lastReply(t).text
	if !strings.HasPrefix(got, NoticeGenericError) || !strings.Contains(got, "boom") {
		t.Fatalf("reply = %q, want generic notice carrying the panic detail", got)
	}
}

// Package telegram connects the personal account to the conversation state
// machine: it logs in with a session string, turns MTProto updates into
// bot.Incoming events, and exposes the send capabilities the bot needs
// (threaded replies, typing indicator).
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/zawhtut/gemgram/pkg/gemgram/bot"
)

// Handler receives every eligible inbound message.
type Handler func(ctx context.Context, msg bot.Incoming)

// Client is the transport adapter around a gotd MTProto client.
type Client struct {
	cfg    *bot.Config
	client *telegram.Client
	sender *message.Sender
	logger *slog.Logger

	handler Handler

	selfID int64

	// peers maps our normalized chat id to the last seen input peer, so
	// replies can be addressed without a resolve round trip.
	peersMu sync.Mutex
	peers   map[int64]tg.InputPeerClass
}

// New creates the transport client from config. The session string must
// already be present; interactive login lives in GenerateSession.
func New(cfg *bot.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := NewStringSessionStorage(cfg.Telegram.Session)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.With("component", "telegram"),
		peers:  make(map[int64]tg.InputPeerClass),
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		c.onMessage(ctx, e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		c.onMessage(ctx, e, u.Message)
		return nil
	})

	c.client = telegram.NewClient(cfg.Telegram.APIID, cfg.Telegram.APIHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
	})
	c.sender = message.NewSender(c.client.API())

	return c, nil
}

// Run connects, verifies the session, and dispatches updates to handler
// until ctx is canceled.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	c.handler = handler

	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return sessionHint(fmt.Errorf("checking auth status: %w", err))
		}
		if !status.Authorized {
			return errors.New("telegram session not authorized: regenerate with 'gemgram session'")
		}

		self, err := c.client.Self(ctx)
		if err != nil {
			return sessionHint(fmt.Errorf("fetching own identity: %w", err))
		}
		c.selfID = self.ID

		c.logger.Info("logged in",
			"id", self.ID,
			"username", self.Username,
			"first_name", self.FirstName,
		)
		c.logger.Info("listening for new messages",
			"allowed_group", c.cfg.AllowedGroup,
		)

		<-ctx.Done()
		return ctx.Err()
	})
}

// SendReply implements bot.Sender.
func (c *Client) SendReply(ctx context.Context, chatID int64, text string, inReplyTo int) error {
	peer, ok := c.peer(chatID)
	if !ok {
		return fmt.Errorf("no known peer for chat %d", chatID)
	}
	builder := c.sender.To(peer)
	if _, err := builder.Reply(inReplyTo).Text(ctx, text); err != nil {
		return fmt.Errorf("sending reply to chat %d: %w", chatID, err)
	}
	return nil
}

// SendTyping implements bot.Sender.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	peer, ok := c.peer(chatID)
	if !ok {
		return fmt.Errorf("no known peer for chat %d", chatID)
	}
	return c.sender.To(peer).TypingAction().Typing(ctx)
}

// onMessage filters one update through the routing precondition and hands
// eligible messages to the state machine. Each message runs in its own
// goroutine so a slow completion does not stall the update loop; ordering
// across messages in the same chat is not guaranteed (accepted race, see
// the history store).
func (c *Client) onMessage(ctx context.Context, e tg.Entities, m tg.MessageClass) {
	msg, ok := m.(*tg.Message)
	if !ok || msg.Out {
		return
	}

	kind, chatID := classifyPeer(msg.PeerID)
	senderID := chatID
	if from, ok := msg.FromID.(*tg.PeerUser); ok {
		senderID = from.UserID
	}

	if !ShouldProcess(kind, chatID, senderID, c.selfID, c.cfg.GroupAllowed) {
		return
	}

	if peer, ok := inputPeer(e, msg.PeerID); ok {
		c.rememberPeer(chatID, peer)
	}

	inc := bot.Incoming{
		ChatID:    chatID,
		SenderID:  senderID,
		MessageID: msg.ID,
		Text:      msg.Message,
		HasMedia:  hasProcessableMedia(msg),
	}
	go c.handler(ctx, inc)
}

// hasProcessableMedia reports whether the message carries media worth the
// unsupported-media notice. Location shares arrive as geo-uri documents
// and are ignored outright.
func hasProcessableMedia(msg *tg.Message) bool {
	if msg.Media == nil {
		return false
	}
	if doc, ok := msg.Media.(*tg.MessageMediaDocument); ok && doc.Document != nil {
		if d, ok := doc.Document.AsNotEmpty(); ok && d.MimeType == "application/geo-uri" {
			return false
		}
	}
	return true
}

// classifyPeer maps an MTProto peer to our chat kind and normalized id.
func classifyPeer(peer tg.PeerClass) (ChatKind, int64) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return ChatPrivate, p.UserID
	case *tg.PeerChat:
		return ChatGroup, p.ChatID
	case *tg.PeerChannel:
		return ChatChannel, p.ChannelID
	default:
		return ChatUnknown, 0
	}
}

// inputPeer builds a sendable peer from the update's entity maps.
func inputPeer(e tg.Entities, peer tg.PeerClass) (tg.InputPeerClass, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		if u, ok := e.Users[p.UserID]; ok {
			return u.AsInputPeer(), true
		}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}, true
	case *tg.PeerChannel:
		if ch, ok := e.Channels[p.ChannelID]; ok {
			return ch.AsInputPeer(), true
		}
	}
	return nil, false
}

func (c *Client) rememberPeer(chatID int64, peer tg.InputPeerClass) {
	c.peersMu.Lock()
	c.peers[chatID] = peer
	c.peersMu.Unlock()
}

func (c *Client) peer(chatID int64) (tg.InputPeerClass, bool) {
	c.peersMu.Lock()
	defer c.peersMu.Unlock()
	p, ok := c.peers[chatID]
	return p, ok
}

// sessionHint wraps known session-level failures with the action the
// operator must take; these are fatal at startup and never retried.
func sessionHint(err error) error {
	switch {
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return fmt.Errorf("%w (hint: the account requires a 2FA password; regenerate the session with 'gemgram session')", err)
	case tgerr.Is(err, "AUTH_KEY_UNREGISTERED"), tgerr.Is(err, "SESSION_REVOKED"), tgerr.Is(err, "SESSION_EXPIRED"):
		return fmt.Errorf("%w (hint: the session string is invalid or revoked; regenerate it with 'gemgram session')", err)
	default:
		return err
	}
}

package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/example/shopbot/pkg/dialogue"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const replyUnavailable = "Sorry, I can't answer right now. Please try again in a moment."

// TurnHandler answers one shopper message.
type TurnHandler interface {
	HandleTurn(ctx context.Context, userID, text string) (*dialogue.TurnResult, error)
}

// Sender is the part of *bot.Bot the channel writes through.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// commands map slash commands onto phrases the dialogue already understands.
var commands = map[string]string{
	"/start":    "hi",
	"/cart":     "show my cart",
	"/checkout": "checkout",
}

// Channel relays private Telegram chats to the dialogue orchestrator. Each chat
// is one shopper, identified as "tg:<chat id>".
type Channel struct {
	turns  TurnHandler
	logger *zap.Logger
}

func NewChannel(turns TurnHandler, logger *zap.Logger) *Channel {
	return &Channel{turns: turns, logger: logger.Named("telegram")}
}

// Options wires the channel into a bot.
func (c *Channel) Options() []bot.Option {
	return []bot.Option{
		bot.WithMiddlewares(c.recover),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
			c.Handle(ctx, b, update)
		}),
	}
}

// Handle answers a single update. Non-text updates and group chats are ignored.
func (c *Channel) Handle(ctx context.Context, s Sender, update *tgmodels.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat.Type != "private" {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		cmd, _, _ = strings.Cut(cmd, "@")
		phrase, ok := commands[strings.ToLower(cmd)]
		if !ok {
			return
		}
		text = phrase
	}

	userID := UserID(msg.Chat.ID)
	res, err := c.turns.HandleTurn(ctx, userID, text)
	reply := replyUnavailable
	switch {
	case err != nil:
		c.logger.Warn("Turn failed", zap.String("user_id", userID), zap.Error(err))
		if res != nil && res.Reply != "" {
			reply = res.Reply
		}
	default:
		reply = Render(res)
	}

	if _, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: reply}); err != nil {
		c.logger.Error("Send message failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func UserID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// Render turns a result into plain message text. Products a browsing reply
// refers to are listed under it, with their sizes.
func Render(res *dialogue.TurnResult) string {
	var sb strings.Builder
	sb.WriteString(res.Reply)
	if res.Intent == dialogue.IntentUnresolved && len(res.Products) > 0 {
		sb.WriteString("\n")
		for _, p := range res.Products {
			fmt.Fprintf(&sb, "\n• %s: $%.2f (sizes %s)", p.Name, p.Price, p.SizeList())
		}
	}
	return sb.String()
}

func (c *Channel) recover(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Panic recovered in handler",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())))
			}
		}()
		next(ctx, b, update)
	}
}

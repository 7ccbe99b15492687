package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/shopbot/pkg/dialogue"
	"github.com/example/shopbot/pkg/models"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type call struct {
	userID, text string
}

type fakeTurns struct {
	calls []call
	res   *dialogue.TurnResult
	err   error
}

func (f *fakeTurns) HandleTurn(ctx context.Context, userID, text string) (*dialogue.TurnResult, error) {
	f.calls = append(f.calls, call{userID, text})
	return f.res, f.err
}

type fakeSender struct {
	sent []*bot.SendMessageParams
}

func (f *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	f.sent = append(f.sent, params)
	return &tgmodels.Message{}, nil
}

func update(chatType, text string) *tgmodels.Update {
	return &tgmodels.Update{Message: &tgmodels.Message{
		Text: text,
		Chat: tgmodels.Chat{ID: 42, Type: tgmodels.ChatType(chatType)},
	}}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name     string
		update   *tgmodels.Update
		wantText string
	}{
		{"plain text", update("private", "  add vans size 9 "), "add vans size 9"},
		{"start command", update("private", "/start"), "hi"},
		{"cart command", update("private", "/cart@shopbot"), "show my cart"},
		{"checkout command", update("private", "/checkout now"), "checkout"},
		{"unknown command", update("private", "/help"), ""},
		{"group chat", update("group", "hello"), ""},
		{"no message", &tgmodels.Update{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := &fakeTurns{res: &dialogue.TurnResult{Reply: "ok"}}
			sender := &fakeSender{}
			NewChannel(turns, zap.NewNop()).Handle(context.Background(), sender, tt.update)

			if tt.wantText == "" {
				if len(turns.calls) != 0 || len(sender.sent) != 0 {
					t.Fatalf("update was not ignored: %v", turns.calls)
				}
				return
			}
			if len(turns.calls) != 1 || turns.calls[0] != (call{"tg:42", tt.wantText}) {
				t.Fatalf("calls = %v", turns.calls)
			}
			if len(sender.sent) != 1 || sender.sent[0].Text != "ok" || sender.sent[0].ChatID != int64(42) {
				t.Fatalf("sent = %+v", sender.sent)
			}
		})
	}
}

func TestHandle_Failure(t *testing.T) {
	sender := &fakeSender{}
	turns := &fakeTurns{
		res: &dialogue.TurnResult{Reply: "Sorry, something went wrong."},
		err: errors.New("upstream"),
	}
	NewChannel(turns, zap.NewNop()).Handle(context.Background(), sender, update("private", "any trail shoes?"))
	if len(sender.sent) != 1 || sender.sent[0].Text != "Sorry, something went wrong." {
		t.Fatalf("sent = %+v", sender.sent)
	}

	sender = &fakeSender{}
	turns = &fakeTurns{err: errors.New("store down")}
	NewChannel(turns, zap.NewNop()).Handle(context.Background(), sender, update("private", "hello"))
	if len(sender.sent) != 1 || sender.sent[0].Text != replyUnavailable {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestRender(t *testing.T) {
	products := []models.Product{{Name: "Vans Old Skool", Price: 20, Sizes: []models.Size{8, 9.5}}}

	got := Render(&dialogue.TurnResult{Reply: "Try these.", Intent: dialogue.IntentUnresolved, Products: products})
	if !strings.Contains(got, "• Vans Old Skool: $20.00 (sizes 8, 9.5)") {
		t.Fatalf("Render = %q", got)
	}

	got = Render(&dialogue.TurnResult{Reply: "Added.", Intent: dialogue.IntentAddItem, Products: products})
	if got != "Added." {
		t.Fatalf("Render = %q", got)
	}
}

package dialogue

import (
	"fmt"
	"strings"
	"testing"

	"github.com/example/shopbot/pkg/models"
)

func TestSystemPrompt_ListsCatalog(t *testing.T) {
	got := SystemPrompt(testCatalog())
	if !strings.HasPrefix(got, assistantInstructions) {
		t.Fatalf("prompt does not start with the instructions")
	}
	want := "Adidas Ultraboost (Category: running, Price: $180.00, Sizes: 8, 9, 9.5, 10)"
	if !strings.Contains(got, want) {
		t.Fatalf("prompt missing %q", want)
	}
}

func TestHistoryWindow(t *testing.T) {
	var history []models.ChatMessage
	history = append(history, models.ChatMessage{Role: models.RoleBot, Text: "opening"})
	for i := 0; i < 8; i++ {
		history = append(history,
			models.ChatMessage{Role: models.RoleUser, Text: fmt.Sprintf("u%d", i)},
			models.ChatMessage{Role: models.RoleBot, Text: fmt.Sprintf("b%d", i)})
	}

	got := HistoryWindow(history, 10)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0].Role != models.RoleUser || got[0].Text != "u3" {
		t.Fatalf("window starts with %+v", got[0])
	}

	// An odd window would start on a bot message and is trimmed by one.
	got = HistoryWindow(history, 5)
	if len(got) != 4 || got[0].Text != "u6" {
		t.Fatalf("odd window = %+v", got)
	}

	got[0].Text = "changed"
	if history[13].Text != "u6" {
		t.Fatalf("window aliases the history")
	}

	if got := HistoryWindow(history[:1], 10); len(got) != 0 {
		t.Fatalf("bot-only history gave %d messages", len(got))
	}
}

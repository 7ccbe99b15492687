package dialogue

import (
	"fmt"
	"strings"

	"github.com/example/shopbot/pkg/models"
)

const assistantInstructions = `You are an AI e-commerce chatbot for a shoe store. Your primary goal is to help users find and purchase shoes.
When a user asks to browse or see products (e.g. "Show me running shoes", "Do you have casual shoes?"), list 3 relevant products from the available products below with their name, price and available sizes. Do not say you cannot show images.
When asked to add an item to the cart and the size is missing, ask "What size would you like for the [Product Name]?".
You cannot change the cart yourself. Never claim an item was added or removed; instead tell the user to say, for example, "add Vans Old Skool size 9".
When asked to checkout, first ask for a confirmation: "Would you like to proceed with placing this order?".
Respond in a helpful and concise manner. If you need more information, ask for it.
Available products (for reference, do not list all unless asked to browse a category):`

// SystemPrompt builds the fallback instructions with the current catalog.
func SystemPrompt(catalog []models.Product) string {
	var b strings.Builder
	b.WriteString(assistantInstructions)
	for _, p := range catalog {
		fmt.Fprintf(&b, "\n%s (Category: %s, Price: $%.2f, Sizes: %s)", p.Name, p.Category, p.Price, p.SizeList())
	}
	return b.String()
}

// HistoryWindow returns at most the last n messages, trimmed so the window
// starts on a user turn.
func HistoryWindow(history []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	window := history[start:]
	for len(window) > 0 && window[0].Role != models.RoleUser {
		window = window[1:]
	}
	out := make([]models.ChatMessage, len(window))
	copy(out, window)
	return out
}

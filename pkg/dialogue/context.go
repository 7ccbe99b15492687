package dialogue

import (
	"strings"

	"github.com/example/shopbot/pkg/models"
)

// LastBotUtterance returns the most recent bot message, lower-cased.
func LastBotUtterance(history []models.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleBot {
			return strings.ToLower(history[i].Text)
		}
	}
	return ""
}

// ProductMentionedIn applies the extractor's longest-match policy to text.
func ProductMentionedIn(text string, names []string) string {
	return Extract(text, names).Product
}

// InferAwaiting rebuilds the pending prompt from the wording of the last bot
// message. It is only consulted for histories that carry no stored state.
func InferAwaiting(lastBot string, catalog []models.Product) models.Awaiting {
	if lastBot == "" {
		return models.Awaiting{}
	}
	names := productNames(catalog)
	ex := Extract(lastBot, names)
	product := findByName(catalog, ex.Product)

	withProduct := func(kind models.AwaitingKind) models.Awaiting {
		a := models.Awaiting{Kind: kind}
		if product != nil {
			a.ProductID = product.ID
			a.ProductName = product.Name
		}
		return a
	}

	switch {
	case looksLikeCheckoutPrompt(lastBot):
		return models.Awaiting{Kind: models.AwaitConfirmCheckout}
	case strings.Contains(lastBot, "already in your cart"):
		if product == nil || ex.Size == nil {
			return models.Awaiting{}
		}
		a := withProduct(models.AwaitConfirmDuplicate)
		a.Size = *ex.Size
		return a
	case isSizeQuestion(lastBot) && strings.Contains(lastBot, "remove"):
		if product == nil {
			return models.Awaiting{}
		}
		return withProduct(models.AwaitSizeForRemove)
	case isSizeQuestion(lastBot):
		if product == nil {
			return models.Awaiting{}
		}
		return withProduct(models.AwaitSizeForAdd)
	}
	return models.Awaiting{}
}

func isSizeQuestion(text string) bool {
	return strings.Contains(text, "what size") || strings.Contains(text, "which size")
}

func productNames(products []models.Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

func findByName(products []models.Product, name string) *models.Product {
	if name == "" {
		return nil
	}
	for i := range products {
		if products[i].Name == name {
			return &products[i]
		}
	}
	return nil
}

func findByID(products []models.Product, id string) *models.Product {
	if id == "" {
		return nil
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i]
		}
	}
	return nil
}

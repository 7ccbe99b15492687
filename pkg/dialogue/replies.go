package dialogue

import (
	"fmt"
	"strings"

	"github.com/example/shopbot/pkg/models"
)

const (
	replyEmptyCart       = "Your cart is currently empty."
	replyDeclined        = "No problem, I'll leave your cart as it is."
	replyUnknownProduct  = "Sorry, I couldn't find that product anymore. Could you tell me which shoes you mean?"
	replyApology         = "Sorry, I'm having trouble right now. Please try again in a moment."
	checkoutConfirmation = "Would you like to proceed with placing this order?"
)

func replyAskSizeForAdd(p *models.Product) string {
	return fmt.Sprintf("What size would you like for the %s? Available sizes: %s.", p.Name, p.SizeList())
}

func replyAskSizeForRemove(p *models.Product, inCart []models.Size) string {
	if len(inCart) == 0 {
		return fmt.Sprintf("What size of the %s would you like to remove from your cart?", p.Name)
	}
	sizes := make([]string, len(inCart))
	for i, s := range inCart {
		sizes[i] = s.String()
	}
	return fmt.Sprintf("What size of the %s would you like to remove from your cart? You have size %s.",
		p.Name, strings.Join(sizes, ", "))
}

func replyInvalidSize(p *models.Product, size models.Size) string {
	return fmt.Sprintf("Sorry, the %s isn't available in size %s. Available sizes: %s. Which size would you like?",
		p.Name, size, p.SizeList())
}

func replyAlreadyInCart(p *models.Product, size models.Size) string {
	return fmt.Sprintf("The %s in size %s is already in your cart. Would you like to add another?", p.Name, size)
}

func replyAdded(p *models.Product, size models.Size) string {
	return fmt.Sprintf("I've added the %s in size %s to your cart.", p.Name, size)
}

func replyIncremented(p *models.Product, size models.Size, quantity int) string {
	return fmt.Sprintf("I've added another %s in size %s. You now have %d in your cart.", p.Name, size, quantity)
}

func replyRemoved(p *models.Product, size models.Size, cartEmpty bool) string {
	msg := fmt.Sprintf("I've removed the %s in size %s from your cart.", p.Name, size)
	if cartEmpty {
		msg += " Your cart is now empty."
	}
	return msg
}

func replyNotInCart(p *models.Product, size *models.Size) string {
	if size == nil {
		return fmt.Sprintf("I couldn't find the %s in your cart.", p.Name)
	}
	return fmt.Sprintf("I couldn't find the %s in size %s in your cart.", p.Name, *size)
}

func replyOrderPlaced(o *models.Order) string {
	return fmt.Sprintf("Thanks for ordering! Your cart has been cleared and your order ID is #%s.", o.Reference())
}

// CartSummary renders the cart the way the chat shows it.
func CartSummary(c *models.Cart) string {
	if c.IsEmpty() {
		return replyEmptyCart
	}
	var b strings.Builder
	b.WriteString("Here's what's in your cart:\n")
	for _, item := range c.Items {
		fmt.Fprintf(&b, "- %s (Size: %s) - Quantity: %d - Price: $%.2f\n", item.Name, item.Size, item.Quantity, item.Price)
	}
	fmt.Fprintf(&b, "Total: $%s", c.Total().StringFixed(2))
	return b.String()
}

func replyCheckoutPrompt(c *models.Cart) string {
	return CartSummary(c) + "\n\n" + checkoutConfirmation
}

// looksLikeCheckoutPrompt reports whether a reply asks the shopper to confirm an order.
func looksLikeCheckoutPrompt(reply string) bool {
	text := strings.ToLower(reply)
	switch {
	case strings.Contains(text, "placing this order"),
		strings.Contains(text, "place this order"),
		strings.Contains(text, "confirm your order"),
		strings.Contains(text, "proceed with") && strings.Contains(text, "order"):
		return true
	}
	return false
}

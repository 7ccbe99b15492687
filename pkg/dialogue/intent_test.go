package dialogue

import (
	"testing"

	"github.com/example/shopbot/pkg/models"
)

func TestClassify(t *testing.T) {
	awaitAdd := models.Awaiting{Kind: models.AwaitSizeForAdd, ProductID: "p-vans", ProductName: "Vans Old Skool"}
	awaitRemove := models.Awaiting{Kind: models.AwaitSizeForRemove, ProductID: "p-vans", ProductName: "Vans Old Skool"}
	awaitDup := models.Awaiting{Kind: models.AwaitConfirmDuplicate, ProductID: "p-vans", ProductName: "Vans Old Skool", Size: 9}
	awaitCheckout := models.Awaiting{Kind: models.AwaitConfirmCheckout}

	tests := []struct {
		name     string
		text     string
		awaiting models.Awaiting
		want     Intent
	}{
		{"checkout phrase", "checkout", models.Awaiting{}, IntentCheckoutConfirm},
		{"place my order", "Please place my order", models.Awaiting{}, IntentCheckoutConfirm},
		{"yes to checkout prompt", "yes", awaitCheckout, IntentCheckoutConfirm},
		{"yes without prompt", "yes", models.Awaiting{}, IntentUnresolved},
		{"long yes is not an answer", "yes but first tell me about returns", awaitCheckout, IntentUnresolved},
		{"view cart", "what's in my cart?", models.Awaiting{}, IntentViewCart},
		{"checkout beats view cart", "show my cart and checkout", models.Awaiting{}, IntentCheckoutConfirm},
		{"remove with size", "remove vans old skool size 9", models.Awaiting{}, IntentRemoveItem},
		{"take out phrase", "take out the Vans Old Skool 9", models.Awaiting{}, IntentRemoveItem},
		{"remove without size", "delete the vans old skool", models.Awaiting{}, IntentRemoveItemNeedSize},
		{"size for remove", "9", awaitRemove, IntentRemoveItemSize},
		{"remove size answer", "remove size 9", awaitRemove, IntentRemoveItemSize},
		{"yes to duplicate", "yes please", awaitDup, IntentAddConfirmDuplicate},
		{"no to duplicate", "no", awaitDup, IntentDeclineDuplicate},
		{"add with size", "add vans old skool size 9", models.Awaiting{}, IntentAddItem},
		{"add while awaiting size", "I want the Adidas Ultraboost size 10", awaitAdd, IntentAddItem},
		{"size for add", "9", awaitAdd, IntentAddItemSize},
		{"size for add with verb", "I need size 9", awaitAdd, IntentAddItemSize},
		{"size repeats product", "vans old skool in 9", awaitAdd, IntentAddItemSize},
		{"size names another product", "adidas ultraboost 9", awaitAdd, IntentUnresolved},
		{"add without size", "I want to buy Vans Old Skool", models.Awaiting{}, IntentAddItemNeedSize},
		{"bare size without prompt", "9", models.Awaiting{}, IntentUnresolved},
		{"browse", "show me running shoes", models.Awaiting{}, IntentUnresolved},
		{"refusal to checkout prompt", "ok cancel it", awaitCheckout, IntentUnresolved},
		{"not yet to checkout prompt", "not yet", awaitCheckout, IntentUnresolved},
		{"please alone is not a yes", "please", awaitDup, IntentUnresolved},
		{"please don't declines duplicate", "please don't", awaitDup, IntentDeclineDuplicate},
		{"curly apostrophe decline", "please don’t", awaitDup, IntentDeclineDuplicate},
		{"yes then no declines duplicate", "yes not now", awaitDup, IntentDeclineDuplicate},
		{"question about checkout", "how does checkout work?", models.Awaiting{}, IntentUnresolved},
		{"checkout mentioned mid sentence", "is there a fee at checkout", models.Awaiting{}, IntentUnresolved},
		{"polite checkout request", "I'd like to checkout", models.Awaiting{}, IntentCheckoutConfirm},
		{"stacked lead-ins", "please go ahead and place my order", models.Awaiting{}, IntentCheckoutConfirm},
		{"checkout as a question", "can you checkout?", models.Awaiting{}, IntentCheckoutConfirm},
	}
	ex := NewExtractor(testNames)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(Turn{Text: tt.text, Awaiting: tt.awaiting, Extracted: ex.Extract(tt.text)})
			if got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

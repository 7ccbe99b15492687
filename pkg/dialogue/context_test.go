package dialogue

import (
	"testing"
	"time"

	"github.com/example/shopbot/pkg/models"
)

func testCatalog() []models.Product {
	return []models.Product{
		{ID: "p-vans", Name: "Vans Old Skool", Price: 20, Sizes: []models.Size{7, 8, 9, 10}, Category: "casual"},
		{ID: "p-max", Name: "Nike Air Max", Price: 120, Sizes: []models.Size{8, 9, 10, 11}, Category: "running"},
		{ID: "p-max270", Name: "Nike Air Max 270", Price: 150, Sizes: []models.Size{9, 10, 11}, Category: "running"},
		{ID: "p-ultra", Name: "Adidas Ultraboost", Price: 180, Sizes: []models.Size{8, 9, 9.5, 10}, Category: "running"},
	}
}

func TestLastBotUtterance(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleBot, Text: "What type of shoes do you need?", Timestamp: time.Now()},
		{Role: models.RoleUser, Text: "Vans"},
		{Role: models.RoleBot, Text: "What size would you like for the Vans Old Skool?"},
		{Role: models.RoleUser, Text: "hmm"},
	}
	if got := LastBotUtterance(history); got != "what size would you like for the vans old skool?" {
		t.Fatalf("LastBotUtterance = %q", got)
	}
	if got := LastBotUtterance(nil); got != "" {
		t.Fatalf("LastBotUtterance(nil) = %q", got)
	}
}

func TestProductMentionedIn(t *testing.T) {
	names := productNames(testCatalog())
	if got := ProductMentionedIn("the nike air max 270 looks good", names); got != "Nike Air Max 270" {
		t.Fatalf("got %q", got)
	}
}

func TestInferAwaiting(t *testing.T) {
	catalog := testCatalog()
	tests := []struct {
		name    string
		lastBot string
		want    models.Awaiting
	}{
		{"nothing said", "", models.Awaiting{}},
		{
			"size for add",
			"what size would you like for the vans old skool? available sizes: 7, 8, 9, 10.",
			models.Awaiting{Kind: models.AwaitSizeForAdd, ProductID: "p-vans", ProductName: "Vans Old Skool"},
		},
		{
			"size for remove",
			"which size of the nike air max 270 would you like to remove?",
			models.Awaiting{Kind: models.AwaitSizeForRemove, ProductID: "p-max270", ProductName: "Nike Air Max 270"},
		},
		{
			"duplicate",
			"the adidas ultraboost in size 9.5 is already in your cart. would you like to add another?",
			models.Awaiting{Kind: models.AwaitConfirmDuplicate, ProductID: "p-ultra", ProductName: "Adidas Ultraboost", Size: 9.5},
		},
		{"duplicate without size", "that is already in your cart.", models.Awaiting{}},
		{"checkout", "total: $40.00\n\nwould you like to proceed with placing this order?", models.Awaiting{Kind: models.AwaitConfirmCheckout}},
		{"size question without product", "what size do you usually wear?", models.Awaiting{}},
		{"small talk", "we have many running shoes.", models.Awaiting{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferAwaiting(tt.lastBot, catalog); got != tt.want {
				t.Fatalf("InferAwaiting = %+v, want %+v", got, tt.want)
			}
		})
	}
}

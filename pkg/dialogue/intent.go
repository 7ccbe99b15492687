package dialogue

import (
	"strings"
	"unicode"

	"github.com/example/shopbot/pkg/models"
)

type Intent string

const (
	IntentCheckoutConfirm     Intent = "CHECKOUT_CONFIRM"
	IntentViewCart            Intent = "VIEW_CART"
	IntentRemoveItem          Intent = "REMOVE_ITEM"
	IntentRemoveItemNeedSize  Intent = "REMOVE_ITEM_NEED_SIZE"
	IntentRemoveItemSize      Intent = "REMOVE_ITEM_PROVIDE_SIZE"
	IntentAddConfirmDuplicate Intent = "ADD_CONFIRM_DUPLICATE"
	IntentDeclineDuplicate    Intent = "DECLINE_DUPLICATE"
	IntentAddItem             Intent = "ADD_ITEM"
	IntentAddItemSize         Intent = "ADD_ITEM_PROVIDE_SIZE"
	IntentAddItemNeedSize     Intent = "ADD_ITEM_NEED_SIZE"
	IntentUnresolved          Intent = "UNRESOLVED"
)

var (
	affirmativeWords = wordSet("yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm")
	addWords         = wordSet("add", "buy", "want", "get", "purchase", "need", "take")
	removeWords      = wordSet("remove", "delete", "drop")

	// Any of these anywhere in a short reply makes it a refusal.
	negationWords = wordSet("no", "n", "nope", "nah", "cancel", "not", "don't", "dont", "never", "stop")

	removePhrases   = []string{"take out", "take off"}
	checkoutPhrases = []string{"checkout", "place order", "place my order", "place the order", "confirm order", "confirm my order"}
	viewCartPhrases = []string{"view cart", "view my cart", "show cart", "show my cart", "what is in my cart", "what's in my cart"}

	// Lead-ins that may precede a checkout request, e.g. "please go ahead and checkout".
	requestLeadIns = []string{"please ", "i want to ", "i'd like to ", "i would like to ", "let's ", "lets ", "go ahead and ", "can you ", "could you ", "now "}
	clauseBreaks   = strings.NewReplacer(" and ", "|", " then ", "|", ",", "|", ".", "|", ";", "|", "!", "|")

	apostrophes = strings.NewReplacer("’", "'", "‘", "'")
)

// A yes/no answer is only recognised in a short reply.
const maxAnswerWords = 3

// Turn is everything the classifier looks at.
type Turn struct {
	Text      string
	Awaiting  models.Awaiting
	Extracted Extraction
}

// Classify runs the rule chain. The order of the rules matters: each rule
// assumes none of the earlier ones matched.
func Classify(t Turn) Intent {
	text := normalize(t.Text)
	words := tokenize(text)
	ex := t.Extracted

	short := len(words) > 0 && len(words) <= maxAnswerWords
	negative := short && hasAny(words, negationWords)
	affirmative := short && !negative && hasFirst(words, affirmativeWords)
	removing := hasAny(words, removeWords) || containsAny(text, removePhrases)
	adding := hasAny(words, addWords) && !removing
	// A size answer may repeat the product it answers for, but no other.
	sizeAnswer := ex.HasSize() &&
		(!ex.HasProduct() || strings.EqualFold(ex.Product, t.Awaiting.ProductName))

	switch {
	case affirmative && t.Awaiting.Is(models.AwaitConfirmCheckout),
		requestsCheckout(text):
		return IntentCheckoutConfirm
	case containsAny(text, viewCartPhrases):
		return IntentViewCart
	case removing && ex.HasProduct() && ex.HasSize():
		return IntentRemoveItem
	case removing && ex.HasProduct():
		return IntentRemoveItemNeedSize
	case sizeAnswer && !adding && t.Awaiting.Is(models.AwaitSizeForRemove):
		return IntentRemoveItemSize
	case affirmative && t.Awaiting.Is(models.AwaitConfirmDuplicate):
		return IntentAddConfirmDuplicate
	case negative && t.Awaiting.Is(models.AwaitConfirmDuplicate):
		return IntentDeclineDuplicate
	case adding && ex.HasProduct() && ex.HasSize():
		return IntentAddItem
	case sizeAnswer && !removing && t.Awaiting.Is(models.AwaitSizeForAdd):
		return IntentAddItemSize
	case adding && ex.HasProduct():
		return IntentAddItemNeedSize
	}
	return IntentUnresolved
}

func normalize(text string) string {
	text = apostrophes.Replace(strings.ToLower(strings.TrimSpace(text)))
	return strings.Join(strings.Fields(text), " ")
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func hasFirst(words []string, set map[string]struct{}) bool {
	if len(words) == 0 {
		return false
	}
	_, ok := set[words[0]]
	return ok
}

// requestsCheckout reports whether some clause of text asks for checkout, as
// in "checkout" or "show my cart and place my order". A question that merely
// mentions checkout does not count.
func requestsCheckout(text string) bool {
	for _, clause := range strings.Split(clauseBreaks.Replace(text), "|") {
		clause = strings.TrimSpace(clause)
		for trimmed := true; trimmed; {
			trimmed = false
			for _, lead := range requestLeadIns {
				if rest, ok := strings.CutPrefix(clause, lead); ok {
					clause, trimmed = rest, true
				}
			}
		}
		for _, p := range checkoutPhrases {
			if clause == p || strings.HasPrefix(clause, p+" ") || strings.HasPrefix(clause, p+"?") {
				return true
			}
		}
	}
	return false
}

func hasAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

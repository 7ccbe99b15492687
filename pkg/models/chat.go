package models

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type ChatMessage struct {
	Role      Role      `bson:"role" json:"role"`
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// AwaitingKind names the answer the assistant is waiting for.
type AwaitingKind string

const (
	AwaitNothing          AwaitingKind = ""
	AwaitSizeForAdd       AwaitingKind = "size-for-add"
	AwaitSizeForRemove    AwaitingKind = "size-for-remove"
	AwaitConfirmDuplicate AwaitingKind = "confirm-duplicate"
	AwaitConfirmCheckout  AwaitingKind = "confirm-checkout"
)

// Awaiting is the conversation state carried between turns.
type Awaiting struct {
	Kind        AwaitingKind `bson:"kind" json:"kind"`
	ProductID   string       `bson:"product_id,omitempty" json:"productId,omitempty"`
	ProductName string       `bson:"product_name,omitempty" json:"productName,omitempty"`
	Size        Size         `bson:"size,omitempty" json:"size,omitempty"`
}

func (a Awaiting) Is(kind AwaitingKind) bool {
	return a.Kind == kind
}

type ChatHistory struct {
	UserID   string        `bson:"_id" json:"userId"`
	Messages []ChatMessage `bson:"messages" json:"messages"`
	// Awaiting is nil for histories written before state was stored.
	Awaiting  *Awaiting `bson:"awaiting,omitempty" json:"awaiting,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (h *ChatHistory) IsEmpty() bool {
	return h == nil || len(h.Messages) == 0
}

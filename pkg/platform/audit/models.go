package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "charitydrive/pkg/domain"
)

// EventCategory classifies marketplace events for routing and retention.
type EventCategory string

const (
	// CategoryRegistry covers operator changes to the required-items registry.
	CategoryRegistry EventCategory = "registry"

	// CategoryBidding covers status changes and completed bids.
	CategoryBidding EventCategory = "bidding"

	// CategoryCredit covers credit minted, returned or swept.
	CategoryCredit EventCategory = "credit"

	// CategoryCatalog covers catalog reads and ownership changes.
	CategoryCatalog EventCategory = "catalog"
)

// Event is emitted after a marketplace transaction commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Actor     id.AccountID  `json:"actor"`
	// Subject is the item name or account the event is about.
	Subject   string   `json:"subject,omitempty"`
	Quantity  int64    `json:"quantity,omitempty"`
	Amount    int64    `json:"amount,omitempty"`
	Remaining int64    `json:"remaining,omitempty"`
	Status    string   `json:"status,omitempty"`
	Items     []string `json:"items,omitempty"`
	Prices    []int64  `json:"prices,omitempty"`
	// Sequence is the receipt number of the committed transaction.
	Sequence  int64  `json:"sequence,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Encode serializes an event for the outbox and broker sinks.
func Encode(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses an event produced by Encode.
func Decode(payload []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(payload, &event)
	return event, err
}

type AuditEvent string

const (
	EventRegistryReplaced AuditEvent = "registry_replaced"
	EventQuotaUpdated     AuditEvent = "quota_updated"
	EventCostUpdated      AuditEvent = "cost_updated"

	EventBidCompleted  AuditEvent = "bid_completed"
	EventStatusChanged AuditEvent = "status_changed"

	EventCreditAcquired AuditEvent = "credit_acquired"
	EventCreditReturned AuditEvent = "credit_returned"
	EventCreditSwept    AuditEvent = "credit_swept"

	EventCatalogListed        AuditEvent = "catalog_listed"
	EventCatalogItemAdded     AuditEvent = "catalog_item_added"
	EventCatalogItemUpdated   AuditEvent = "catalog_item_updated"
	EventCatalogOwnerChanged  AuditEvent = "catalog_owner_changed"
	EventCatalogCategoryAdded AuditEvent = "catalog_category_added"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistryReplaced: CategoryRegistry,
	EventQuotaUpdated:     CategoryRegistry,
	EventCostUpdated:      CategoryRegistry,

	EventBidCompleted:  CategoryBidding,
	EventStatusChanged: CategoryBidding,

	EventCreditAcquired: CategoryCredit,
	EventCreditReturned: CategoryCredit,
	EventCreditSwept:    CategoryCredit,

	EventCatalogListed:        CategoryCatalog,
	EventCatalogItemAdded:     CategoryCatalog,
	EventCatalogItemUpdated:   CategoryCatalog,
	EventCatalogOwnerChanged:  CategoryCatalog,
	EventCatalogCategoryAdded: CategoryCatalog,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryBidding.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryBidding
}

// Store persists emitted events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor id.AccountID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink forwards events to an external broker.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

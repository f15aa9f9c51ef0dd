package models

// Referenceable is any external business object a transaction can cite as
// evidence. The engine never dereferences the object; it only records the
// (type tag, id) pair and copies it verbatim when voiding.
type Referenceable interface {
	TypeTag() string
	RefID() string
}

// EvidenceLink is an immutable association from a transaction to an
// external object, by reference rather than by value.
type EvidenceLink struct {
	TransactionID string `json:"transaction_id" db:"transaction_id"`
	EntityType    string `json:"entity_type" db:"entity_type"`
	EntityID      string `json:"entity_id" db:"entity_id"`
}

// TypeTag implements Referenceable, so a stored link can be fed back into
// transaction creation when a void copies its target's evidence.
func (l EvidenceLink) TypeTag() string { return l.EntityType }

// RefID implements Referenceable.
func (l EvidenceLink) RefID() string { return l.EntityID }

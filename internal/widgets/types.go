package widgets

import "github.com/imrishuroy/widget-consumer/internal/validation"

// Operation is the request discriminator.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Document field names shared by requests and records.
const (
	FieldType            = "type"
	FieldOperation       = "operation"
	FieldRequestID       = "requestId"
	FieldOwner           = "owner"
	FieldID              = "id"
	FieldWidgetID        = "widgetId"
	FieldDescription     = "description"
	FieldOtherAttributes = "otherAttributes"
)

// Attribute is a single otherAttributes entry.
type Attribute = validation.Attribute

// Request is a parsed widget request: *Create, *Update or *Delete.
type Request interface {
	Op() Operation
	Key() Key
	// RequestID is the producer-assigned id, empty when the document had none.
	RequestID() string
}

type base struct {
	key       Key
	requestID string
}

func (b base) Key() Key          { return b.key }
func (b base) RequestID() string { return b.requestID }

// Create replaces the record at Key with a body built from Document.
type Create struct {
	base
	// Document is the decoded request document, discriminator included.
	Document map[string]any
}

func (*Create) Op() Operation { return OpCreate }

// Record builds the record body written on create.
func (c *Create) Record() Record {
	return NewRecord(c.Document)
}

// Update patches the record at Key.
type Update struct {
	base
	// Description replaces the stored description when HasDescription is
	// set. A JSON null is copied as null.
	Description    any
	HasDescription bool
	Attributes     []Attribute
}

func (*Update) Op() Operation { return OpUpdate }

// Delete removes the record at Key.
type Delete struct {
	base
}

func (*Delete) Op() Operation { return OpDelete }

package validation

// Attribute is one name/value pair of a widget request's otherAttributes.
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// WidgetRequest is the wire shape of a widget request document. The parser
// fills the identifying fields from the decoded document and validates them;
// the producer API binds and validates whole POST bodies.
type WidgetRequest struct {
	Type            string      `json:"type" validate:"required,oneof=create update delete"`
	RequestID       string      `json:"requestId,omitempty"`
	Owner           string      `json:"owner" validate:"required"`
	WidgetID        string      `json:"widgetId" validate:"required"`
	Description     *string     `json:"description,omitempty"`
	OtherAttributes []Attribute `json:"otherAttributes,omitempty" validate:"dive"`
}

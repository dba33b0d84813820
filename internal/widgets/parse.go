package widgets

import (
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/widget-consumer/internal/validation"
)

// ErrMalformedRequest is wrapped by every Parse failure. Malformed requests are
// dropped, never retried.
var ErrMalformedRequest = errors.New("malformed widget request")

// MalformedError describes why a request was rejected.
type MalformedError struct {
	Reason string
	Fields map[string]string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := ErrMalformedRequest.Error() + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRequest}
	}
	return []error{ErrMalformedRequest, e.Err}
}

// Parser decodes request documents. The zero value is not usable; call NewParser.
type Parser struct {
	validate *validatorv10.Validate
}

// NewParser returns a Parser with the request validator registered.
func NewParser() *Parser {
	return &Parser{validate: validation.New()}
}

// Parse decodes body into a typed request.
//
// The discriminator is read from "type"; "operation" is accepted when "type"
// is absent. Only the discriminator, owner and widgetId are checked; other
// fields of an unexpected type are ignored, and unknown fields are kept for
// create.
func (p *Parser) Parse(body []byte) (Request, error) {
	doc, err := decodeObject(body)
	if err != nil {
		return nil, &MalformedError{Reason: "invalid json", Err: err}
	}
	if doc == nil {
		return nil, &MalformedError{Reason: "document is not an object"}
	}

	wire := validation.WidgetRequest{
		Type:      stringField(doc, FieldType),
		RequestID: stringField(doc, FieldRequestID),
		Owner:     stringField(doc, FieldOwner),
		WidgetID:  stringField(doc, FieldWidgetID),
	}
	if wire.Type == "" {
		wire.Type = stringField(doc, FieldOperation)
	}

	if err := p.validate.Struct(wire); err != nil {
		var ve validatorv10.ValidationErrors
		if errors.As(err, &ve) {
			fields := validation.Fields(err)
			reason := "missing required fields"
			if _, bad := fields["Type"]; bad {
				reason = fmt.Sprintf("unrecognized operation %q", wire.Type)
			}
			return nil, &MalformedError{Reason: reason, Fields: fields}
		}
		return nil, &MalformedError{Reason: "validation failed", Err: err}
	}

	b := base{
		key:       NewKey(wire.Owner, wire.WidgetID),
		requestID: wire.RequestID,
	}

	switch Operation(wire.Type) {
	case OpCreate:
		return &Create{base: b, Document: doc}, nil
	case OpUpdate:
		desc, hasDesc := doc[FieldDescription]
		return &Update{
			base:           b,
			Description:    desc,
			HasDescription: hasDesc,
			Attributes:     decodeAttributes(doc[FieldOtherAttributes]),
		}, nil
	case OpDelete:
		return &Delete{base: b}, nil
	}
	// unreachable: the validator enforces oneof
	return nil, &MalformedError{Reason: fmt.Sprintf("unrecognized operation %q", wire.Type)}
}

// stringField returns doc[name] when it is a string, "" otherwise.
func stringField(doc map[string]any, name string) string {
	s, _ := doc[name].(string)
	return s
}

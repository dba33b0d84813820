package widgets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
)

// Record is the stored widget body.
type Record map[string]any

// NewRecord builds a record from a create document: owner becomes id and
// otherAttributes are promoted to top-level fields. The document is not modified.
func NewRecord(doc map[string]any) Record {
	rec := make(Record, len(doc))
	maps.Copy(rec, doc)

	if owner, ok := rec[FieldOwner]; ok {
		delete(rec, FieldOwner)
		rec[FieldID] = owner
	}

	attrs := decodeAttributes(rec[FieldOtherAttributes])
	delete(rec, FieldOtherAttributes)
	rec.Promote(attrs)

	return rec
}

// Promote sets each attribute as a top-level field, in order, so a later
// duplicate name wins. Attributes without a name are skipped.
func (r Record) Promote(attrs []Attribute) {
	for _, a := range attrs {
		if a.Name == "" {
			continue
		}
		r[a.Name] = a.Value
	}
}

// Merge applies an update: description first, then attributes.
func (r Record) Merge(u *Update) {
	if u.HasDescription {
		r[FieldDescription] = u.Description
	}
	r.Promote(u.Attributes)
}

// Marshal encodes the record as JSON.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord decodes a stored record body.
func UnmarshalRecord(data []byte) (Record, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if doc == nil {
		return Record{}, nil
	}
	return Record(doc), nil
}

// decodeObject decodes a single JSON object. Numbers stay json.Number so
// integers beyond float64 precision are written back unchanged.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}

// decodeAttributes reads an otherAttributes value from a generic document.
// Entries that are not objects are ignored.
func decodeAttributes(v any) []Attribute {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	attrs := make([]Attribute, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		attrs = append(attrs, Attribute{Name: name, Value: m["value"]})
	}
	return attrs
}

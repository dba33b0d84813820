package widgets

import "strings"

// KeyPrefix is the path prefix of every record key.
const KeyPrefix = "widgets/"

// Key identifies a widget record by normalized owner and widget id.
type Key struct {
	Owner    string
	WidgetID string
}

// NewKey normalizes owner and widgetID into a Key.
func NewKey(owner, widgetID string) Key {
	return Key{
		Owner:    NormalizeOwner(owner),
		WidgetID: NormalizeWidgetID(widgetID),
	}
}

// String returns the record key, e.g. "widgets/john-doe/123".
func (k Key) String() string {
	return KeyPrefix + k.Owner + "/" + k.WidgetID
}

// NormalizeOwner lower-cases the owner and replaces spaces with hyphens.
func NormalizeOwner(owner string) string {
	return strings.ToLower(strings.ReplaceAll(owner, " ", "-"))
}

// NormalizeWidgetID strips a "widgets/" prefix. When an owner segment follows
// ("widgets/<owner>/<id>") it is dropped too; the rest is the id, slashes and all.
func NormalizeWidgetID(widgetID string) string {
	rest, ok := strings.CutPrefix(widgetID, KeyPrefix)
	if !ok {
		return widgetID
	}
	if _, id, found := strings.Cut(rest, "/"); found {
		return id
	}
	return rest
}

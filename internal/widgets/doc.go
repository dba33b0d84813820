// Package widgets holds the widget domain: typed requests, record keys and the
// record body built from a request document.
//
// A request document is JSON with a "type" discriminator (create, update or
// delete), an owner, a widgetId and an optional list of otherAttributes. Parse
// turns it into one of *Create, *Update or *Delete; anything it cannot use is
// reported as ErrMalformedRequest.
//
// Records live under "widgets/<owner>/<widgetId>" where the owner is lower-cased
// with spaces replaced by hyphens. The body is the request document with owner
// renamed to id and every attribute promoted to a top-level field.
package widgets

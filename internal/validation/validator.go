package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(widgetRequestStructValidation, WidgetRequest{})

	return v
}

// widgetRequestStructValidation rejects owners and widget ids made only of
// whitespace; they would normalize to an empty key segment.
func widgetRequestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(WidgetRequest)

	if req.Owner != "" && strings.TrimSpace(req.Owner) == "" {
		sl.ReportError(req.Owner, "owner", "Owner", "not_blank", "")
	}
	if req.WidgetID != "" && strings.TrimSpace(req.WidgetID) == "" {
		sl.ReportError(req.WidgetID, "widgetId", "WidgetID", "not_blank", "")
	}
}

// Fields flattens validation errors into a field -> failed tag map.
func Fields(err error) map[string]string {
	return validationErrorsToMap(err)
}

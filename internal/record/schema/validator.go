package schema

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
)

// Validator checks documents against the current records schema. Rules are
// read from the holder on every call so a reloaded schema applies at once.
type Validator struct {
	holder   *config.RecordsConfigHolder
	validate *validator.Validate
}

func NewValidator(holder *config.RecordsConfigHolder) *Validator {
	if holder == nil {
		holder = config.NewStaticRecordsConfigHolder(config.DefaultRecordsSchema())
	}
	return &Validator{
		holder:   holder,
		validate: validator.New(),
	}
}

// KindSchema returns the active rules for kind.
func (v *Validator) KindSchema(kind domain.Kind) config.KindSchema {
	schema := v.holder.Get()
	if kind.Name == domain.Bill.Name {
		return schema.Bill
	}
	return schema.Measurement
}

// Validate returns a *domain.ValidationError listing every failing field,
// or nil when the document passes. Fields not named by the schema are
// accepted as-is.
func (v *Validator) Validate(ctx context.Context, kind domain.Kind, doc domain.Document) error {
	ks := v.KindSchema(kind)

	data := make(map[string]any, len(doc))
	for field := range doc {
		if value, ok := doc.String(field); ok && value != "" {
			data[field] = value
		}
	}

	rules := make(map[string]any)
	for _, field := range ks.Required {
		rules[field] = "required"
	}
	for _, rule := range ks.Numeric {
		if existing, ok := rules[rule.Field]; ok {
			rules[rule.Field] = existing.(string) + ",numeric"
		} else {
			rules[rule.Field] = "omitempty,numeric"
		}
	}

	var fields []domain.FieldError
	for field, err := range v.validate.ValidateMapCtx(ctx, data, rules) {
		fields = append(fields, fieldErrorFrom(field, err))
	}

	failed := make(map[string]bool, len(fields))
	for _, f := range fields {
		failed[f.Field] = true
	}

	for _, rule := range ks.Numeric {
		raw, ok := data[rule.Field].(string)
		if !ok || failed[rule.Field] {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields = append(fields, domain.FieldError{Field: rule.Field, Code: "numeric", Message: "must be a number"})
			continue
		}
		if rule.Min != nil && value < *rule.Min {
			fields = append(fields, domain.FieldError{Field: rule.Field, Code: "min", Message: fmt.Sprintf("must be at least %s", formatBound(*rule.Min))})
		} else if rule.Max != nil && value > *rule.Max {
			fields = append(fields, domain.FieldError{Field: rule.Field, Code: "max", Message: fmt.Sprintf("must be at most %s", formatBound(*rule.Max))})
		}
	}

	for _, rule := range ks.Enums {
		raw, ok := data[rule.Field].(string)
		if !ok || failed[rule.Field] {
			continue
		}
		if !slices.ContainsFunc(rule.Values, func(allowed string) bool { return strings.EqualFold(allowed, raw) }) {
			fields = append(fields, domain.FieldError{Field: rule.Field, Code: "oneof", Message: "must be one of " + strings.Join(rule.Values, ", ")})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Field == fields[j].Field {
			return fields[i].Code < fields[j].Code
		}
		return fields[i].Field < fields[j].Field
	})
	return &domain.ValidationError{Fields: fields}
}

func fieldErrorFrom(field string, err any) domain.FieldError {
	code := "invalid"
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		code = errs[0].Tag()
	}
	message := "is invalid"
	switch code {
	case "required":
		message = "is required"
	case "numeric":
		message = "must be a number"
	}
	return domain.FieldError{Field: field, Code: code, Message: message}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

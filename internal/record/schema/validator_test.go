package schema

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	out := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		out[f.Field] = f.Code
	}
	return out
}

func TestValidateMeasurement(t *testing.T) {
	v := NewValidator(nil)
	ctx := context.Background()

	valid := domain.Document{
		"name":            "Ali",
		"phoneNumber":     "03001234567",
		"measurementType": "Kameez",
		"chaati":          json.Number("38.50"),
		"pockets":         "2",
		"notes":           map[string]any{"free": "form"},
	}
	assert.NoError(t, v.Validate(ctx, domain.Measurement, valid))

	err := v.Validate(ctx, domain.Measurement, domain.Document{
		"name":    "   ",
		"chaati":  "tall",
		"pockets": json.Number("25"),
		"kamar":   "-1",
	})
	assert.Equal(t, map[string]string{
		"name":            "required",
		"phoneNumber":     "required",
		"measurementType": "required",
		"chaati":          "numeric",
		"pockets":         "max",
		"kamar":           "min",
	}, fieldCodes(t, err))
}

func TestValidateBillStatusEnum(t *testing.T) {
	v := NewValidator(nil)
	ctx := context.Background()

	doc := domain.Document{"customerName": "Sara", "amount": json.Number("1500"), "status": "Paid"}
	assert.NoError(t, v.Validate(ctx, domain.Bill, doc))

	doc["status"] = "pending"
	assert.Equal(t, map[string]string{"status": "oneof"}, fieldCodes(t, v.Validate(ctx, domain.Bill, doc)))
}

func TestValidateUsesCurrentSchema(t *testing.T) {
	schema := config.DefaultRecordsSchema()
	schema.Bill.Required = []string{"customerName"}
	schema.Bill.Numeric = nil
	schema.Bill.Enums = nil
	v := NewValidator(config.NewStaticRecordsConfigHolder(schema))

	assert.NoError(t, v.Validate(context.Background(), domain.Bill, domain.Document{"customerName": "Sara"}))
}

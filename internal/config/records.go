package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RecordsSchema describes per-kind field rules and search fields.
type RecordsSchema struct {
	Measurement KindSchema `mapstructure:"measurement"`
	Bill        KindSchema `mapstructure:"bill"`
}

type KindSchema struct {
	Required     []string      `mapstructure:"required"`
	Numeric      []NumericRule `mapstructure:"numeric"`
	Enums        []EnumRule    `mapstructure:"enums"`
	SearchFields []string      `mapstructure:"searchFields"`
}

// NumericRule bounds a field that must parse as a number when present.
type NumericRule struct {
	Field string   `mapstructure:"field"`
	Min   *float64 `mapstructure:"min"`
	Max   *float64 `mapstructure:"max"`
}

type EnumRule struct {
	Field  string   `mapstructure:"field"`
	Values []string `mapstructure:"values"`
}

func DefaultRecordsSchema() RecordsSchema {
	bodyFields := []string{"bazoo", "teera", "gala", "lambai", "chaati", "kamar", "ghera", "shalwar", "paincha"}
	numeric := make([]NumericRule, 0, len(bodyFields)+3)
	for _, field := range bodyFields {
		numeric = append(numeric, NumericRule{Field: field, Min: floatPtr(0), Max: floatPtr(200)})
	}
	numeric = append(numeric,
		NumericRule{Field: "pockets", Min: floatPtr(0), Max: floatPtr(20)},
		NumericRule{Field: "advancePaid", Min: floatPtr(0)},
		NumericRule{Field: "totalBill", Min: floatPtr(0)},
	)

	return RecordsSchema{
		Measurement: KindSchema{
			Required:     []string{"name", "phoneNumber", "measurementType"},
			Numeric:      numeric,
			SearchFields: []string{"name", "phoneNumber", "address", "measurementType"},
		},
		Bill: KindSchema{
			Required: []string{"customerName", "amount", "status"},
			Numeric: []NumericRule{
				{Field: "amount", Min: floatPtr(0)},
			},
			Enums: []EnumRule{
				{Field: "status", Values: []string{"paid", "unpaid"}},
			},
			SearchFields: []string{"billNumber", "customerName", "status", "paymentMethod"},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

// RecordsConfigHolder serves the current schema and swaps it on file change.
type RecordsConfigHolder struct {
	current atomic.Value // holds RecordsSchema
}

// NewStaticRecordsConfigHolder returns a holder that never reloads.
func NewStaticRecordsConfigHolder(schema RecordsSchema) *RecordsConfigHolder {
	holder := &RecordsConfigHolder{}
	holder.current.Store(schema)
	return holder
}

func NewRecordsConfigHolder(log *zap.Logger) (*RecordsConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("records.config")

	v := viper.New()
	if path := strings.TrimSpace(os.Getenv("RECORDS_SCHEMA_FILE")); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("records")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/tailorbook")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("TAILORBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("records schema file not found, using defaults")
		return NewStaticRecordsConfigHolder(DefaultRecordsSchema()), nil
	}

	schema, err := decodeRecordsSchema(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticRecordsConfigHolder(schema)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRecordsSchema(v)
		if err != nil {
			log.Warn("records schema reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("records schema reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RecordsConfigHolder) Get() RecordsSchema {
	return h.current.Load().(RecordsSchema)
}

func decodeRecordsSchema(v *viper.Viper) (RecordsSchema, error) {
	schema := DefaultRecordsSchema()
	if v.IsSet("measurement") {
		var ks KindSchema
		if err := v.UnmarshalKey("measurement", &ks); err != nil {
			return RecordsSchema{}, err
		}
		schema.Measurement = ks
	}
	if v.IsSet("bill") {
		var ks KindSchema
		if err := v.UnmarshalKey("bill", &ks); err != nil {
			return RecordsSchema{}, err
		}
		schema.Bill = ks
	}
	if err := validateRecordsSchema(schema); err != nil {
		return RecordsSchema{}, err
	}
	return schema, nil
}

func validateRecordsSchema(schema RecordsSchema) error {
	for name, ks := range map[string]KindSchema{"measurement": schema.Measurement, "bill": schema.Bill} {
		for _, rule := range ks.Numeric {
			if strings.TrimSpace(rule.Field) == "" {
				return fmt.Errorf("%s.numeric: field is required", name)
			}
			if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
				return fmt.Errorf("%s.numeric.%s: min greater than max", name, rule.Field)
			}
		}
		for _, rule := range ks.Enums {
			if strings.TrimSpace(rule.Field) == "" || len(rule.Values) == 0 {
				return fmt.Errorf("%s.enums: field and values are required", name)
			}
		}
	}
	return nil
}

package service

import (
	"context"

	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/measurement/domain"
	"github.com/smallbiznis/tailorbook/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/internal/record/schema"
	recordservice "github.com/smallbiznis/tailorbook/internal/record/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg       config.Config
	Log       *zap.Logger
	Store     recorddomain.Store
	Allocator recorddomain.Allocator
	Validator *schema.Validator
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	*recordservice.Records

	allocator recorddomain.Allocator
	strategy  string
	log       *zap.Logger
}

func New(p Params) domain.Service {
	log := p.Log.Named("measurement.service")
	return &Service{
		Records: recordservice.NewRecords(recordservice.Options{
			Kind:      recorddomain.Measurement,
			Store:     p.Store,
			Validator: p.Validator,
			Metrics:   p.Metrics,
			Log:       log,
			Strict:    p.Cfg.Records.StrictValidation,
		}),
		allocator: p.Allocator,
		strategy:  p.Cfg.Records.SerialStrategy,
		log:       log,
	}
}

// Create assigns the next serial number, overwriting any serialNumber the
// client sent, and persists the document under it.
func (s *Service) Create(ctx context.Context, doc recorddomain.Document) (recorddomain.CreateResult, error) {
	result, err := s.create(ctx, doc)
	s.ObserveCreate(ctx, s.strategy, err)
	return result, err
}

func (s *Service) create(ctx context.Context, doc recorddomain.Document) (recorddomain.CreateResult, error) {
	doc = doc.Clone()
	delete(doc, recorddomain.Measurement.IdentityField)
	if err := s.Validate(ctx, doc); err != nil {
		return recorddomain.CreateResult{}, err
	}

	var key string
	serial, err := s.allocator.Allocate(ctx, recorddomain.Measurement, func(identity string) error {
		doc.SetIdentity(recorddomain.Measurement, identity)
		var err error
		key, err = s.Put(ctx, identity, doc)
		return err
	})
	if err != nil {
		return recorddomain.CreateResult{}, err
	}

	s.log.Info("measurement created", zap.String("serial_number", serial), zap.String("key", key))
	return recorddomain.CreateResult{Identity: serial, Key: key}, nil
}

package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tailorbook/internal/bill/domain"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/smallbiznis/tailorbook/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/internal/record/schema"
	recordservice "github.com/smallbiznis/tailorbook/internal/record/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sourceClient = "client"

type Params struct {
	fx.In

	Cfg       config.Config
	Log       *zap.Logger
	Store     recorddomain.Store
	Validator *schema.Validator
	Clock     clock.Clock
	GenID     *snowflake.Node  `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	*recordservice.Records

	clock    clock.Clock
	genID    *snowflake.Node
	strategy string
	log      *zap.Logger
}

func New(p Params) (domain.Service, error) {
	strategy := p.Cfg.Records.BillIdentity
	if strategy == "" {
		strategy = config.BillIdentityTimestamp
	}
	if strategy == config.BillIdentitySnowflake && p.GenID == nil {
		return nil, errors.New("snowflake bill identity requires a node")
	}

	log := p.Log.Named("bill.service")
	return &Service{
		Records: recordservice.NewRecords(recordservice.Options{
			Kind:      recorddomain.Bill,
			Store:     p.Store,
			Validator: p.Validator,
			Metrics:   p.Metrics,
			Log:       log,
			Strict:    p.Cfg.Records.StrictValidation,
		}),
		clock:    p.Clock,
		genID:    p.GenID,
		strategy: strategy,
		log:      log,
	}, nil
}

// Create stores the bill under its billNumber. An existing bill with the same
// number is replaced. Without a billNumber one is generated and written into
// the document. A padded billNumber is stored trimmed so it matches its key.
func (s *Service) Create(ctx context.Context, doc recorddomain.Document) (recorddomain.CreateResult, error) {
	doc = doc.Clone()

	source := sourceClient
	identity := doc.Identity(recorddomain.Bill)
	if identity == "" {
		identity = s.fallbackIdentity()
		source = s.strategy
		doc.SetIdentity(recorddomain.Bill, identity)
	} else if raw, ok := doc[recorddomain.Bill.IdentityField].(string); ok && raw != identity {
		doc.SetIdentity(recorddomain.Bill, identity)
	}

	result, err := s.create(ctx, identity, doc)
	if err == nil {
		s.log.Info("bill created",
			zap.String("bill_number", result.Identity),
			zap.String("key", result.Key),
			zap.String("identity_source", source),
		)
	}
	s.ObserveCreate(ctx, source, err)
	return result, err
}

func (s *Service) create(ctx context.Context, identity string, doc recorddomain.Document) (recorddomain.CreateResult, error) {
	if err := s.Validate(ctx, doc); err != nil {
		return recorddomain.CreateResult{}, err
	}

	key, err := s.Put(ctx, identity, doc)
	if err != nil {
		return recorddomain.CreateResult{}, err
	}
	return recorddomain.CreateResult{Identity: identity, Key: key}, nil
}

func (s *Service) fallbackIdentity() string {
	if s.strategy == config.BillIdentitySnowflake {
		return s.genID.Generate().String()
	}
	return strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
}

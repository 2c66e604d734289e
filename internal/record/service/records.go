package service

import (
	"context"
	"errors"

	obslogger "github.com/smallbiznis/tailorbook/internal/observability/logger"
	"github.com/smallbiznis/tailorbook/internal/observability/metrics"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"github.com/smallbiznis/tailorbook/internal/record/query"
	"github.com/smallbiznis/tailorbook/internal/record/schema"
	"go.uber.org/zap"
)

// Records implements the read, replace and delete operations shared by every
// kind. Creation differs per kind and lives with the kind's service.
type Records struct {
	kind      domain.Kind
	store     domain.Store
	validator *schema.Validator
	metrics   *metrics.Metrics
	log       *zap.Logger
	strict    bool
}

type Options struct {
	Kind      domain.Kind
	Store     domain.Store
	Validator *schema.Validator
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Strict    bool
}

func NewRecords(opts Options) *Records {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	v := opts.Validator
	if v == nil {
		v = schema.NewValidator(nil)
	}
	return &Records{
		kind:      opts.Kind,
		store:     opts.Store,
		validator: v,
		metrics:   opts.Metrics,
		log:       log,
		strict:    opts.Strict,
	}
}

func (r *Records) Kind() domain.Kind {
	return r.kind
}

func (r *Records) List(ctx context.Context, req domain.ListRequest) ([]domain.Document, error) {
	docs, err := r.store.List(ctx, r.kind)
	r.observe(ctx, "list", err)
	if err != nil {
		return nil, err
	}
	return query.Apply(r.kind, docs, query.Options{
		Query:  req.Query,
		Sort:   req.Sort,
		Fields: r.validator.KindSchema(r.kind).SearchFields,
	}), nil
}

func (r *Records) Get(ctx context.Context, key string) (domain.Document, error) {
	doc, err := r.store.Read(ctx, r.kind, key)
	r.observe(ctx, "get", err)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update replaces the whole document at key. The key must already exist and
// an identity field in doc, when present, must match the key.
func (r *Records) Update(ctx context.Context, key string, doc domain.Document) error {
	err := r.update(ctx, key, doc)
	r.observe(ctx, "update", err)
	return err
}

func (r *Records) update(ctx context.Context, key string, doc domain.Document) error {
	identity, err := domain.IdentityFromKey(r.kind, key)
	if err != nil {
		return err
	}
	if got := doc.Identity(r.kind); got != "" && got != identity {
		return domain.ErrIdentityMismatch
	}
	if err := r.Validate(ctx, doc); err != nil {
		return err
	}

	exists, err := r.store.Exists(ctx, r.kind, key)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	if err := r.store.Write(ctx, r.kind, key, doc); err != nil {
		return err
	}
	obslogger.WithRecord(obslogger.WithContext(ctx, r.log), r.kind.Name, key).Info("record updated")
	return nil
}

func (r *Records) Delete(ctx context.Context, key string) error {
	err := r.store.Delete(ctx, r.kind, key)
	r.observe(ctx, "delete", err)
	if err != nil {
		return err
	}
	obslogger.WithRecord(obslogger.WithContext(ctx, r.log), r.kind.Name, key).Info("record deleted")
	return nil
}

// Validate applies the records schema when strict validation is on.
func (r *Records) Validate(ctx context.Context, doc domain.Document) error {
	if !r.strict {
		return nil
	}
	return r.validator.Validate(ctx, r.kind, doc)
}

// Put writes doc under identity and returns the storage key.
func (r *Records) Put(ctx context.Context, identity string, doc domain.Document) (string, error) {
	if err := domain.ValidateIdentity(r.kind, identity); err != nil {
		return "", err
	}
	key := domain.StorageKey(r.kind, identity)
	if err := r.store.Write(ctx, r.kind, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

// ObserveCreate records the outcome of a create and the source of its identity.
func (r *Records) ObserveCreate(ctx context.Context, source string, err error) {
	r.observe(ctx, "create", err)
	if err == nil {
		r.metrics.RecordSerialAllocation(ctx, r.kind.Name, source)
	}
}

func (r *Records) observe(ctx context.Context, op string, err error) {
	r.metrics.RecordOperation(ctx, r.kind.Name, op, Outcome(err))
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidKey):
		return "not_found"
	case errors.Is(err, domain.ErrMalformedDocument),
		errors.Is(err, domain.ErrInvalidIdentity),
		errors.Is(err, domain.ErrIdentityMismatch):
		return "invalid"
	default:
		if _, ok := domain.AsValidationError(err); ok {
			return "invalid"
		}
		return "error"
	}
}

package domain

import (
	"context"

	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
)

// Service manages bills. A bill is identified by the billNumber the client
// sends; when it is missing the service derives one.
type Service interface {
	List(ctx context.Context, req recorddomain.ListRequest) ([]recorddomain.Document, error)
	Create(ctx context.Context, doc recorddomain.Document) (recorddomain.CreateResult, error)
	Get(ctx context.Context, key string) (recorddomain.Document, error)
	Update(ctx context.Context, key string, doc recorddomain.Document) error
	Delete(ctx context.Context, key string) error
}

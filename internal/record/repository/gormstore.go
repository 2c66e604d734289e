package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/record/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRow is the relational form of a stored document. The storage key is
// kept verbatim so item URLs stay identical across backends.
type RecordRow struct {
	Kind      string         `gorm:"primaryKey;size:32"`
	RecordKey string         `gorm:"primaryKey;size:255"`
	Document  datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (RecordRow) TableName() string {
	return "records"
}

// GormStore stores documents in a single records table.
type GormStore struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewGormStore creates the records table when missing and returns the store.
// Rows are stamped from clk.
func NewGormStore(db *gorm.DB, clk clock.Clock) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm store requires a database handle")
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if err := db.AutoMigrate(&RecordRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, clock: clk}, nil
}

func (s *GormStore) Keys(ctx context.Context, kind domain.Kind) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("kind = ?", kind.Name).
		Order("created_at asc").
		Pluck("record_key", &keys).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Err: err}
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (s *GormStore) List(ctx context.Context, kind domain.Kind) ([]domain.Document, error) {
	var rows []RecordRow
	err := s.db.WithContext(ctx).
		Where("kind = ?", kind.Name).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Err: err}
	}

	docs := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := domain.ParseDocument(row.Document)
		if err != nil {
			return nil, &domain.StorageError{Op: "list", Kind: kind.Name, Key: row.RecordKey, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *GormStore) Read(ctx context.Context, kind domain.Kind, key string) (domain.Document, error) {
	if err := domain.ValidateKey(kind, key); err != nil {
		return nil, err
	}

	var row RecordRow
	err := s.db.WithContext(ctx).
		Where("kind = ? AND record_key = ?", kind.Name, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read", Kind: kind.Name, Key: key, Err: err}
	}

	doc, err := domain.ParseDocument(row.Document)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *GormStore) Write(ctx context.Context, kind domain.Kind, key string, doc domain.Document) error {
	if err := domain.ValidateKey(kind, key); err != nil {
		return err
	}

	raw, err := doc.Encode()
	if err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}

	now := s.clock.Now().UTC()
	row := RecordRow{
		Kind:      kind.Name,
		RecordKey: key,
		Document:  datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return &domain.StorageError{Op: "write", Kind: kind.Name, Key: key, Err: err}
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, kind domain.Kind, key string) error {
	if err := domain.ValidateKey(kind, key); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("kind = ? AND record_key = ?", kind.Name, key).
		Delete(&RecordRow{})
	if res.Error != nil {
		return &domain.StorageError{Op: "delete", Kind: kind.Name, Key: key, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GormStore) Exists(ctx context.Context, kind domain.Kind, key string) (bool, error) {
	if err := domain.ValidateKey(kind, key); err != nil {
		return false, err
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("kind = ? AND record_key = ?", kind.Name, key).
		Count(&count).Error
	if err != nil {
		return false, &domain.StorageError{Op: "stat", Kind: kind.Name, Key: key, Err: err}
	}
	return count > 0, nil
}

package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository is the generic data-access contract shared by every entity.
// Each write runs in its own transaction unless the repository was bound
// to an outer one with WithTx.
type Repository[T any] struct {
	db   *gorm.DB
	inTx bool
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx returns a copy of the repository that runs inside tx.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, inTx: true}
}

// FindOne returns the first row matching filter, or nil when there is none.
func (r *Repository[T]) FindOne(ctx context.Context, filter models.Filter) (*T, error) {
	var entity T
	result := r.where(r.db.WithContext(ctx), filter).First(&entity)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, translateError(result.Error, "failed to find row")
	}

	return &entity, nil
}

// FindAll returns every row matching filter. The order is unspecified.
func (r *Repository[T]) FindAll(ctx context.Context, filter models.Filter) ([]T, error) {
	entities := make([]T, 0)
	result := r.where(r.db.WithContext(ctx), filter).Find(&entities)

	if result.Error != nil {
		return nil, translateError(result.Error, "failed to list rows")
	}

	return entities, nil
}

// Count returns the number of rows matching filter.
func (r *Repository[T]) Count(ctx context.Context, filter models.Filter) (int64, error) {
	var count int64
	result := r.where(r.db.WithContext(ctx).Model(new(T)), filter).Count(&count)

	if result.Error != nil {
		return 0, translateError(result.Error, "failed to count rows")
	}

	return count, nil
}

// Add inserts entity. Generated columns are written back into it.
func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	return translateError(err, "failed to add row")
}

// AddMissing inserts entities, skipping rows that would violate a unique
// constraint. It returns the number of rows actually inserted.
func (r *Repository[T]) AddMissing(ctx context.Context, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entities)
		inserted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateError(err, "failed to add rows")
	}

	return inserted, nil
}

// Update sets fields on every row matching filter. Matching nothing is not
// an error. Column updates skip model hooks, which validate whole rows.
func (r *Repository[T]) Update(ctx context.Context, filter models.Filter, fields map[string]any) (int64, error) {
	if len(filter) == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "update requires a filter")
	}
	if len(fields) == 0 {
		return 0, nil
	}

	var updated int64
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{SkipHooks: true}).
			Model(new(T)).
			Where(map[string]any(filter)).
			Updates(fields)
		updated = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateError(err, "failed to update rows")
	}

	return updated, nil
}

// Delete removes every row matching filter and returns how many were removed.
func (r *Repository[T]) Delete(ctx context.Context, filter models.Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "delete requires a filter")
	}

	var deleted int64
	err := r.atomic(ctx, func(tx *gorm.DB) error {
		result := tx.Where(map[string]any(filter)).Delete(new(T))
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateError(err, "failed to delete rows")
	}

	return deleted, nil
}

func (r *Repository[T]) atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := r.db.WithContext(ctx)
	if r.inTx {
		return fn(db)
	}
	return db.Transaction(fn)
}

func (r *Repository[T]) where(db *gorm.DB, filter models.Filter) *gorm.DB {
	if len(filter) == 0 {
		return db
	}
	return db.Where(map[string]any(filter))
}

// translateError maps store failures onto the AppError taxonomy. Errors that
// already carry a code pass through untouched.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.CodeOf(err) != "" {
		return err
	}
	if isUniqueViolation(err) {
		return errors.Wrap(err, errors.ErrCodeUniqueViolation, "unique constraint violation")
	}
	if isForeignKeyViolation(err) {
		return errors.Wrap(err, errors.ErrCodeNotFound, "referenced row not found")
	}
	if stderrors.Is(err, gorm.ErrInvalidData) {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid row data")
	}
	return errors.Wrap(err, errors.ErrCodeStore, message)
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	return false
}

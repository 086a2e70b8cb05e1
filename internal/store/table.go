package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Record is a persisted entity with a static update allow-list.
type Record interface {
	TableName() string
	Fields() map[string]any
}

// Table is the generic record store for one entity type.
type Table[T any, PT interface {
	*T
	Record
}] struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTable[T any, PT interface {
	*T
	Record
}](db *gorm.DB) *Table[T, PT] {
	return &Table[T, PT]{db: db, now: time.Now}
}

// List returns every row, newest id first.
func (t *Table[T, PT]) List(ctx context.Context) ([]*T, error) {
	var rows []*T
	if err := t.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (t *Table[T, PT]) Find(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	var row T
	if err := t.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// Create inserts row; the generated id and timestamps are written back into it.
func (t *Table[T, PT]) Create(ctx context.Context, row *T) error {
	return translate(t.db.WithContext(ctx).Create(row).Error)
}

// Update writes the allow-listed fields of row into the row with the given id.
func (t *Table[T, PT]) Update(ctx context.Context, id int64, row *T) error {
	return t.UpdateColumns(ctx, id, PT(row).Fields())
}

// UpdateColumns writes the given columns only. Callers outside this package pass
// a model's Fields() or a single column they own, never request input.
func (t *Table[T, PT]) UpdateColumns(ctx context.Context, id int64, cols map[string]any) error {
	if id <= 0 {
		return ErrNotFound
	}
	values := make(map[string]any, len(cols)+1)
	for k, v := range cols {
		values[k] = v
	}
	values["edited_at"] = t.now()
	res := t.db.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Table[T, PT]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(PT(new(T)))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DB exposes the handle for entity-specific queries.
func (t *Table[T, PT]) DB() *gorm.DB { return t.db }

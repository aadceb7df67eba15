package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/platform/uow"
	"sns_backend/internal/shared/apperror"
)

// Repository is a gorm-backed store for entity T.
// It turns pagination clauses into SQL and always runs on the transaction carried by the context, if any.
type Repository[T any] struct {
	db     *gorm.DB
	handle uow.Handle
	opts   *options

	once     sync.Once
	schema   *schema.Schema
	parseErr error
}

// Repository satisfies the pagination engine's store contract.
var _ pagination.Finder[struct{}] = (*Repository[struct{}])(nil)

type options struct {
	hidden map[string]bool
	raw    bool
}

// Option configures a Repository.
type Option func(*options)

// WithHiddenFields forbids filtering or ordering on the named fields.
func WithHiddenFields(names ...string) Option {
	return func(o *options) {
		for _, n := range names {
			o.hidden[strings.ToLower(n)] = true
		}
	}
}

// WithRawFilters enables the raw operator. The value is appended verbatim after the column.
func WithRawFilters() Option {
	return func(o *options) { o.raw = true }
}

// NewRepository returns a Repository for T on db.
func NewRepository[T any](db *gorm.DB, opts ...Option) *Repository[T] {
	o := &options{hidden: map[string]bool{}}
	for _, opt := range opts {
		opt(o)
	}
	return &Repository[T]{db: db, opts: o}
}

// Tx returns a copy of r bound to h instead of the context's transaction.
func (r *Repository[T]) Tx(h uow.Handle) *Repository[T] {
	return &Repository[T]{db: r.db, handle: h, opts: r.opts}
}

// Conn returns the connection r runs on for ctx.
func (r *Repository[T]) Conn(ctx context.Context) *gorm.DB {
	if r.handle != nil {
		return r.handle.DB().WithContext(ctx)
	}
	return uow.Conn(ctx, r.db)
}

func (r *Repository[T]) parsed() (*schema.Schema, error) {
	r.once.Do(func() {
		r.schema, r.parseErr = schema.Parse(new(T), &sync.Map{}, r.db.NamingStrategy)
	})
	return r.schema, r.parseErr
}

// Find returns the rows matching q.
func (r *Repository[T]) Find(ctx context.Context, q pagination.Query) ([]T, error) {
	tx, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := window(tx, q).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindAndCount returns one window of rows matching q and the number of rows matching q's where clauses.
func (r *Repository[T]) FindAndCount(ctx context.Context, q pagination.Query) ([]T, int64, error) {
	where, err := r.where(q.Where)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.filtered(ctx, where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out, err := r.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Exists reports whether any row matches the clauses.
func (r *Repository[T]) Exists(ctx context.Context, clauses ...pagination.Clause) (bool, error) {
	where, err := r.where(clauses)
	if err != nil {
		return false, err
	}
	var n int64
	if err := r.filtered(ctx, where).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindOne returns the first row matching the clauses, or gorm.ErrRecordNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, clauses []pagination.Clause, relations ...string) (*T, error) {
	tx, err := r.query(ctx, pagination.Query{Where: clauses, Relations: relations})
	if err != nil {
		return nil, err
	}
	var out T
	if err := tx.First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID returns the row with the given primary key, or gorm.ErrRecordNotFound.
func (r *Repository[T]) FindByID(ctx context.Context, id uint, relations ...string) (*T, error) {
	return r.FindOne(ctx, []pagination.Clause{{
		Field:  pagination.IDField,
		Op:     pagination.OpEqual,
		Values: []string{strconv.FormatUint(uint64(id), 10)},
	}}, relations...)
}

// Create inserts entity.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.Conn(ctx).Create(entity).Error
}

// Save inserts or updates entity, including its zero-valued fields.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	return r.Conn(ctx).Save(entity).Error
}

// Remove deletes the row with the given primary key. A missing row is gorm.ErrRecordNotFound.
func (r *Repository[T]) Remove(ctx context.Context, id uint) error {
	res := r.Conn(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func window(tx *gorm.DB, q pagination.Query) *gorm.DB {
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}
	return tx
}

func (r *Repository[T]) query(ctx context.Context, q pagination.Query) (*gorm.DB, error) {
	s, err := r.parsed()
	if err != nil {
		return nil, err
	}
	where, err := r.where(q.Where)
	if err != nil {
		return nil, err
	}

	tx := r.filtered(ctx, where)
	for _, o := range q.Order {
		f, err := r.field(o.Field)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: column(f), Desc: o.Dir == pagination.DESC})
	}
	for _, rel := range q.Relations {
		if _, ok := s.Relationships.Relations[strings.Split(rel, ".")[0]]; !ok {
			return nil, apperror.Validation(fmt.Sprintf("unknown relation %q", rel))
		}
		tx = tx.Preload(rel)
	}
	return tx, nil
}

func (r *Repository[T]) where(clauses []pagination.Clause) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(clauses))
	for _, c := range clauses {
		e, err := r.expression(c)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// filtered starts a statement on T restricted by exprs, joined with AND.
func (r *Repository[T]) filtered(ctx context.Context, exprs []clause.Expression) *gorm.DB {
	tx := r.Conn(ctx).Model(new(T))
	if len(exprs) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: exprs})
	}
	return tx
}

// field resolves a query-string field name (createdAt, created_at or CreatedAt) to a schema column.
func (r *Repository[T]) field(name string) (*schema.Field, error) {
	s, err := r.parsed()
	if err != nil {
		return nil, err
	}
	f := s.LookUpField(name)
	if f == nil {
		f = s.LookUpField(r.db.NamingStrategy.ColumnName("", name))
	}
	if f == nil && name != "" {
		f = s.LookUpField(strings.ToUpper(name[:1]) + name[1:])
	}
	if f == nil || f.DBName == "" || r.opts.hidden[strings.ToLower(f.Name)] || r.opts.hidden[f.DBName] {
		return nil, apperror.Validation(fmt.Sprintf("unknown filter field %q", name))
	}
	return f, nil
}

func column(f *schema.Field) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: f.DBName}
}

func (r *Repository[T]) expression(c pagination.Clause) (clause.Expression, error) {
	f, err := r.field(c.Field)
	if err != nil {
		return nil, err
	}
	col := column(f)

	first := func() (any, error) {
		if len(c.Values) == 0 {
			return nil, apperror.Validation(fmt.Sprintf("missing value for %s", c.Field))
		}
		return coerce(f, c.Values[0])
	}
	all := func() ([]any, error) {
		out := make([]any, 0, len(c.Values))
		for _, v := range c.Values {
			cv, err := coerce(f, v)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	}

	switch c.Op {
	case pagination.OpEqual, pagination.OpMoreThan, pagination.OpLessThan,
		pagination.OpMoreThanOrEqual, pagination.OpLessThanOrEqual:
		v, err := first()
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case pagination.OpMoreThan:
			return clause.Gt{Column: col, Value: v}, nil
		case pagination.OpLessThan:
			return clause.Lt{Column: col, Value: v}, nil
		case pagination.OpMoreThanOrEqual:
			return clause.Gte{Column: col, Value: v}, nil
		case pagination.OpLessThanOrEqual:
			return clause.Lte{Column: col, Value: v}, nil
		}
		return clause.Eq{Column: col, Value: v}, nil
	case pagination.OpLike, pagination.OpILike:
		if len(c.Values) == 0 {
			return nil, apperror.Validation(fmt.Sprintf("missing value for %s", c.Field))
		}
		if c.Op == pagination.OpILike {
			return clause.Expr{SQL: "LOWER(?) LIKE LOWER(?)", Vars: []any{col, c.Values[0]}}, nil
		}
		return clause.Like{Column: col, Value: c.Values[0]}, nil
	case pagination.OpIn, pagination.OpAny, pagination.OpNot:
		vals, err := all()
		if err != nil {
			return nil, err
		}
		in := clause.IN{Column: col, Values: vals}
		if c.Op == pagination.OpNot {
			return clause.Not(in), nil
		}
		return in, nil
	case pagination.OpIsNull:
		return clause.Eq{Column: col, Value: nil}, nil
	case pagination.OpBetween:
		vals, err := all()
		if err != nil {
			return nil, err
		}
		if len(vals) != 2 {
			return nil, apperror.Validation(fmt.Sprintf("between on %s needs two bounds", c.Field))
		}
		return clause.Expr{SQL: "? BETWEEN ? AND ?", Vars: []any{col, vals[0], vals[1]}}, nil
	case pagination.OpRaw:
		if !r.opts.raw {
			return nil, apperror.Validation("raw filters are disabled")
		}
		if len(c.Values) == 0 {
			return nil, apperror.Validation(fmt.Sprintf("missing value for %s", c.Field))
		}
		return clause.Expr{SQL: "? " + c.Values[0], Vars: []any{col}}, nil
	}
	return nil, apperror.Validation(fmt.Sprintf("unsupported operator %s", c.Op))
}

// coerce converts a query-string value to the field's Go type.
func coerce(f *schema.Field, v string) (any, error) {
	var (
		out any
		err error
	)
	switch f.DataType {
	case schema.Bool:
		out, err = strconv.ParseBool(v)
	case schema.Int:
		out, err = strconv.ParseInt(v, 10, 64)
	case schema.Uint:
		out, err = strconv.ParseUint(v, 10, 64)
	case schema.Float:
		out, err = strconv.ParseFloat(v, 64)
	case schema.Time:
		out, err = time.Parse(time.RFC3339, v)
	default:
		out = v
	}
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("invalid value %q for %s", v, f.Name), err)
	}
	return out, nil
}

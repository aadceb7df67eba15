package pagination

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"sns_backend/internal/shared/apperror"
)

// Identifiable is an entity with a store-assigned, monotonically increasing identity.
type Identifiable interface {
	GetID() uint
}

// Query is what the engine asks of a Finder.
// Take == 0 means no limit.
type Query struct {
	Where     []Clause
	Order     []OrderBy
	Skip      int
	Take      int
	Relations []string
}

// Finder is the read side of a repository.
// Following Go convention: the interface is defined by the consumer (pagination), not the provider (db).
type Finder[T any] interface {
	// Find returns the rows matching q.
	Find(ctx context.Context, q Query) ([]T, error)
	// FindAndCount returns the rows matching q and the total match count ignoring Skip and Take.
	FindAndCount(ctx context.Context, q Query) ([]T, int64, error)
}

// Options are fixed by the calling feature and merged additively with the client's filter.
type Options struct {
	Where     []Clause
	Order     []OrderBy
	Relations []string
}

// Mode tells which page shape a Page carries.
type Mode int

const (
	OffsetMode Mode = iota + 1
	CursorMode
)

// Page is either an offset page {data, total} or a cursor page {data, cursor, count, next}.
type Page[T any] struct {
	Mode  Mode
	Data  []T
	Total int64
	// After is the identity of the last element of Data in cursor mode.
	After *uint
	// Next is empty when Data is empty.
	Next string
}

// Count returns the number of rows in the page.
func (p Page[T]) Count() int {
	return len(p.Data)
}

type offsetJSON[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

type cursorJSON[T any] struct {
	Data   []T        `json:"data"`
	Cursor cursorInfo `json:"cursor"`
	Count  int        `json:"count"`
	Next   *string    `json:"next,omitempty"`
}

type cursorInfo struct {
	After *uint `json:"after,omitempty"`
}

// MarshalJSON renders the shape selected by Mode.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	data := p.Data
	if data == nil {
		data = []T{}
	}
	if p.Mode == OffsetMode {
		return json.Marshal(offsetJSON[T]{Data: data, Total: p.Total})
	}
	out := cursorJSON[T]{Data: data, Cursor: cursorInfo{After: p.After}, Count: len(data)}
	if p.Next != "" {
		next := p.Next
		out.Next = &next
	}
	return json.Marshal(out)
}

// Engine paginates entities of type T.
type Engine[T Identifiable] struct {
	baseURL string
}

// NewEngine creates an Engine whose next links start at baseURL.
func NewEngine[T Identifiable](baseURL string) *Engine[T] {
	return &Engine[T]{baseURL: strings.TrimRight(baseURL, "/")}
}

// Paginate runs offset mode when req.Page is non-zero and cursor mode otherwise.
// It never writes to the store.
func (e *Engine[T]) Paginate(ctx context.Context, req Request, finder Finder[T], fixed Options, path string) (Page[T], error) {
	if req.Page != 0 {
		return e.offset(ctx, req, finder, fixed)
	}
	return e.cursor(ctx, req, finder, fixed, path)
}

func (e *Engine[T]) offset(ctx context.Context, req Request, finder Finder[T], fixed Options) (Page[T], error) {
	filter, err := translateWithDefaults(req.Params)
	if err != nil {
		return Page[T]{}, err
	}

	q := merge(filter, fixed)
	if !filter.orders(IDField) {
		dir, _ := filter.CreatedAtDirection()
		q.Order = append(q.Order, OrderBy{Field: IDField, Dir: dir})
	}
	q.Take = req.Take
	q.Skip = req.Take * (req.Page - 1)

	rows, total, err := finder.FindAndCount(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Mode: OffsetMode, Data: rows, Total: total}, nil
}

func (e *Engine[T]) cursor(ctx context.Context, req Request, finder Finder[T], fixed Options, path string) (Page[T], error) {
	moreThan, lessThan := req.Params.Has(KeyIDMoreThan), req.Params.Has(KeyIDLessThan)
	if moreThan && lessThan {
		return Page[T]{}, apperror.Validation("where__id_more_than and where__id_less_than cannot be used at the same time")
	}

	filter, err := translateWithDefaults(req.Params)
	if err != nil {
		return Page[T]{}, err
	}

	dir, _ := filter.CreatedAtDirection()
	if !moreThan && !lessThan {
		if dir == ASC {
			filter.Where = append(filter.Where, Clause{Field: IDField, Op: OpMoreThan, Values: []string{"0"}})
		} else {
			filter.Where = append(filter.Where, Clause{Field: IDField, Op: OpLessThan, Values: []string{strconv.FormatInt(math.MaxInt64, 10)}})
		}
	}

	q := merge(filter, fixed)
	if !filter.orders(IDField) {
		q.Order = append(q.Order, OrderBy{Field: IDField, Dir: dir})
	}
	q.Take = req.Take

	rows, err := finder.Find(ctx, q)
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{Mode: CursorMode, Data: rows}
	if len(rows) == 0 {
		return page, nil
	}

	last := rows[len(rows)-1].GetID()
	page.After = &last
	page.Next = e.nextURL(req.Params, path, dir, last)
	return page, nil
}

// nextURL copies every non-empty original param except the cursor bounds and appends the
// bound that advances past last in the creation-time direction.
func (e *Engine[T]) nextURL(params Params, path string, dir Direction, last uint) string {
	next := make(Params, 0, len(params)+1)
	for _, p := range params {
		if p.Value == "" || p.Key == KeyIDMoreThan || p.Key == KeyIDLessThan {
			continue
		}
		next = append(next, p)
	}
	bound := KeyIDLessThan
	if dir == ASC {
		bound = KeyIDMoreThan
	}
	next = append(next, Param{Key: bound, Value: strconv.FormatUint(uint64(last), 10)})

	return e.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + next.Encode()
}

// translateWithDefaults orders by createdAt ASC when the client gave no creation-time order.
func translateWithDefaults(params Params) (Filter, error) {
	filter, err := Translate(params)
	if err != nil {
		return Filter{}, err
	}
	if _, ok := filter.CreatedAtDirection(); !ok {
		filter.Order = append(filter.Order, OrderBy{Field: CreatedAtField, Dir: ASC})
	}
	return filter, nil
}

func merge(filter Filter, fixed Options) Query {
	q := Query{
		Where:     make([]Clause, 0, len(filter.Where)+len(fixed.Where)),
		Order:     make([]OrderBy, 0, len(filter.Order)+len(fixed.Order)+1),
		Relations: append([]string(nil), fixed.Relations...),
	}
	q.Where = append(append(q.Where, filter.Where...), fixed.Where...)
	q.Order = append(append(q.Order, filter.Order...), fixed.Order...)
	return q
}

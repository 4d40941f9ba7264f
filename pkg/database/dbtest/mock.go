// Package dbtest provides pgx test doubles for repositories built on database.DB.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockDB implements database.DB with testify expectations.
// Expectations receive (ctx, query, args) where args is []any.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	callArgs := m.Called(ctx, query, args)
	if callArgs.Get(0) == nil {
		return nil, callArgs.Error(1)
	}
	return callArgs.Get(0).(pgx.Rows), callArgs.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	callArgs := m.Called(ctx, query, args)
	return callArgs.Get(0).(pgx.Row)
}

func (m *MockDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	callArgs := m.Called(ctx, query, args)
	return callArgs.Get(0).(pgconn.CommandTag), callArgs.Error(1)
}

func (m *MockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	callArgs := m.Called(ctx)
	if callArgs.Get(0) == nil {
		return nil, callArgs.Error(1)
	}
	return callArgs.Get(0).(pgx.Tx), callArgs.Error(1)
}

// MockTx implements pgx.Tx with testify expectations for the statements
// repositories run inside a transaction. Methods it does not override
// panic on the nil embedded Tx.
type MockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *MockTx) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	callArgs := m.Called(ctx, query, args)
	return callArgs.Get(0).(pgconn.CommandTag), callArgs.Error(1)
}

func (m *MockTx) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	callArgs := m.Called(ctx, query, args)
	if callArgs.Get(0) == nil {
		return nil, callArgs.Error(1)
	}
	return callArgs.Get(0).(pgx.Rows), callArgs.Error(1)
}

func (m *MockTx) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	callArgs := m.Called(ctx, query, args)
	return callArgs.Get(0).(pgx.Row)
}

func (m *MockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Tag builds a command tag such as "UPDATE 1"
func Tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

// MockRows implements pgx.Rows over in-memory data
type MockRows struct {
	data         [][]any
	currentIndex int
	closed       bool
	err          error
}

// NewMockRows returns rows that yield data in order
func NewMockRows(data ...[]any) *MockRows {
	return &MockRows{data: data, currentIndex: -1}
}

// WithErr makes Err report err after iteration
func (m *MockRows) WithErr(err error) *MockRows {
	m.err = err
	return m
}

// Closed reports whether Close was called
func (m *MockRows) Closed() bool { return m.closed }

func (m *MockRows) Close()                                       { m.closed = true }
func (m *MockRows) Err() error                                   { return m.err }
func (m *MockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (m *MockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *MockRows) RawValues() [][]byte                          { return nil }
func (m *MockRows) Conn() *pgx.Conn                              { return nil }

func (m *MockRows) Next() bool {
	m.currentIndex++
	return m.currentIndex < len(m.data)
}

func (m *MockRows) Scan(dest ...any) error {
	if m.currentIndex < 0 || m.currentIndex >= len(m.data) {
		return errors.New("no row to scan")
	}
	return assign(m.data[m.currentIndex], dest)
}

func (m *MockRows) Values() ([]any, error) {
	if m.currentIndex < 0 || m.currentIndex >= len(m.data) {
		return nil, errors.New("no row")
	}
	return m.data[m.currentIndex], nil
}

// MockRow implements pgx.Row for QueryRow
type MockRow struct {
	values []any
	err    error
}

// NewMockRow returns a row that scans values
func NewMockRow(values ...any) *MockRow {
	return &MockRow{values: values}
}

// NewErrRow returns a row whose Scan fails with err, e.g. pgx.ErrNoRows
func NewErrRow(err error) *MockRow {
	return &MockRow{err: err}
}

func (r *MockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(row []any, dest []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("column count mismatch: %d values, %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		destVal := reflect.ValueOf(dest[i])
		if destVal.Kind() != reflect.Ptr {
			return errors.New("destination must be a pointer")
		}
		target := destVal.Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		srcVal := reflect.ValueOf(v)
		switch {
		case srcVal.Type().AssignableTo(target.Type()):
			target.Set(srcVal)
		case target.Kind() == reflect.Ptr && srcVal.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(srcVal)
			target.Set(p)
		case srcVal.Type().ConvertibleTo(target.Type()):
			target.Set(srcVal.Convert(target.Type()))
		default:
			return fmt.Errorf("column %d: cannot assign %s to %s", i, srcVal.Type(), target.Type())
		}
	}
	return nil
}

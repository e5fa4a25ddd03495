package testutil

import (
	"context"
	"database/sql"

	"github.com/billmint/billmint/internal/postgres"
	"github.com/jmoiron/sqlx"
)

// MockPostgresClient satisfies postgres.IClient for service tests backed by
// in-memory stores. WithTx simply runs the function: the stores mutate their
// maps directly, so rollback semantics are exercised at the store level, not
// here.
type MockPostgresClient struct{}

var _ postgres.IClient = (*MockPostgresClient)(nil)

func NewMockPostgresClient() *MockPostgresClient {
	return &MockPostgresClient{}
}

func (m *MockPostgresClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockPostgresClient) GetQuerier(ctx context.Context) postgres.Querier {
	return nil
}

func (m *MockPostgresClient) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	panic("testutil: raw SQL is not supported by the mock client")
}

func (m *MockPostgresClient) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	panic("testutil: raw SQL is not supported by the mock client")
}

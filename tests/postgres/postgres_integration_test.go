// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build integration

// Package postgres runs the compiler's WHERE fragments against a live
// PostgreSQL instance to confirm the SQL it emits actually executes and
// filters the way the schema says it should (spec dialect conformance).
package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	sqlogic "github.com/Nam088/json-logic-to-sql"
	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "sqlogic",
			"POSTGRES_PASSWORD": "sqlogic",
			"POSTGRES_DB":       "sqlogic",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://sqlogic:sqlogic@" + host + ":" + port.Port() + "/sqlogic?sslmode=disable"
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 60*time.Second, time.Second)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE widgets (
			id SERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			name TEXT NOT NULL,
			age INT,
			tags TEXT[] NOT NULL DEFAULT '{}'
		)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO widgets (status, name, age, tags) VALUES
			('active', 'Alpha', 10, ARRAY['red','blue']),
			('inactive', 'Beta', 20, ARRAY['green']),
			('active', 'Gamma', NULL, ARRAY['blue'])`)
	require.NoError(t, err)

	return db
}

func widgetSchema() *schema.Schema {
	return schema.New(map[string]schema.Field{
		"status": {
			Type: schema.TypeString, Column: "status", Filterable: true,
			AllowedOperators: []operator.Op{operator.Eq, operator.Ne, operator.In},
		},
		"name": {
			Type: schema.TypeString, Column: "name", Filterable: true, CaseSensitive: true,
			AllowedOperators: []operator.Op{operator.Contains, operator.StartsWith},
		},
		"age": {
			Type: schema.TypeInteger, Column: "age", Filterable: true, Nullable: true,
			AllowedOperators: []operator.Op{operator.Eq, operator.Gt, operator.Between, operator.IsNull},
		},
		"tags": {
			Type: schema.TypeArray, Column: "tags", Filterable: true,
			AllowedOperators: []operator.Op{operator.In, operator.Contains},
		},
	})
}

func countMatching(t *testing.T, db *sql.DB, ruleJSON string) int {
	t.Helper()
	res, err := sqlogic.Compile(widgetSchema(), []byte(ruleJSON), sqlogic.WithDialect(dialect.PostgreSQL))
	require.NoError(t, err)

	var n int
	err = db.QueryRowContext(context.Background(),
		"SELECT count(*) FROM widgets WHERE "+res.SQL, res.ParamsArray...).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresEquality(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"==": [{"var": "status"}, "active"]}`)
	require.Equal(t, 2, n)
}

func TestPostgresAndOr(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"and": [
		{"==": [{"var": "status"}, "active"]},
		{"or": [{">": [{"var": "age"}, 5]}, {"is_null": [{"var": "age"}]}]}
	]}`)
	require.Equal(t, 2, n)
}

func TestPostgresNullRewrite(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"==": [{"var": "age"}, null]}`)
	require.Equal(t, 1, n)
}

func TestPostgresCaseSensitiveContains(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"contains": [{"var": "name"}, "alpha"]}`)
	require.Equal(t, 0, n, "name is declared CaseSensitive, lowercase needle must not match 'Alpha'")
}

func TestPostgresArrayInReinterpretedAsOverlaps(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"in": [{"var": "tags"}, ["red", "green"]]}`)
	require.Equal(t, 2, n)
}

func TestPostgresArrayContains(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"contains": [{"var": "tags"}, ["blue"]]}`)
	require.Equal(t, 2, n)
}

func TestPostgresEmptyInIsFalseIdentity(t *testing.T) {
	db := startPostgres(t)
	n := countMatching(t, db, `{"in": [{"var": "status"}, []]}`)
	require.Equal(t, 0, n)
}

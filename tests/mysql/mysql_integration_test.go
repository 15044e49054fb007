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

// Package mysql runs the compiler's WHERE fragments against a live
// MySQL instance to confirm dialect-specific emission (BINARY
// case-sensitivity, JSON column handling) actually executes correctly.
package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	sqlogic "github.com/Nam088/json-logic-to-sql"
	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("sqlogic"),
		tcmysql.WithUsername("sqlogic"),
		tcmysql.WithPassword("sqlogic"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 60*time.Second, time.Second)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE widgets (
			id INT AUTO_INCREMENT PRIMARY KEY,
			status VARCHAR(32) NOT NULL,
			name VARCHAR(64) NOT NULL,
			age INT,
			meta JSON NOT NULL
		)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO widgets (status, name, age, meta) VALUES
			('active', 'Alpha', 10, '{"tier": "gold"}'),
			('inactive', 'Beta', 20, '{"tier": "silver"}'),
			('active', 'Gamma', NULL, '{"tier": "gold"}')`)
	require.NoError(t, err)

	return db
}

func widgetSchema() *schema.Schema {
	return schema.New(map[string]schema.Field{
		"status": {
			Type: schema.TypeString, Column: "status", Filterable: true,
			AllowedOperators: []operator.Op{operator.Eq, operator.In},
		},
		"name": {
			Type: schema.TypeString, Column: "name", Filterable: true, CaseSensitive: true,
			AllowedOperators: []operator.Op{operator.Contains},
		},
		"age": {
			Type: schema.TypeInteger, Column: "age", Filterable: true, Nullable: true,
			AllowedOperators: []operator.Op{operator.Eq, operator.Gt, operator.IsNull},
		},
		"meta": {
			Type: schema.TypeJSON, Column: "meta", Filterable: true,
			AllowedOperators: []operator.Op{operator.JSONHasKey},
		},
	})
}

func countMatching(t *testing.T, db *sql.DB, ruleJSON string) int {
	t.Helper()
	res, err := sqlogic.Compile(widgetSchema(), []byte(ruleJSON), sqlogic.WithDialect(dialect.MySQL))
	require.NoError(t, err)

	var n int
	err = db.QueryRowContext(context.Background(),
		"SELECT count(*) FROM widgets WHERE "+res.SQL, res.ParamsArray...).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestMySQLEquality(t *testing.T) {
	db := startMySQL(t)
	n := countMatching(t, db, `{"==": [{"var": "status"}, "active"]}`)
	require.Equal(t, 2, n)
}

func TestMySQLCaseSensitiveContainsUsesBinary(t *testing.T) {
	db := startMySQL(t)
	n := countMatching(t, db, `{"contains": [{"var": "name"}, "alpha"]}`)
	require.Equal(t, 0, n, "name is declared CaseSensitive, BINARY comparison must reject lowercase 'alpha' against 'Alpha'")

	n = countMatching(t, db, `{"contains": [{"var": "name"}, "Alpha"]}`)
	require.Equal(t, 1, n)
}

func TestMySQLNullRewrite(t *testing.T) {
	db := startMySQL(t)
	n := countMatching(t, db, `{"==": [{"var": "age"}, null]}`)
	require.Equal(t, 1, n)
}

func TestMySQLJSONHasKey(t *testing.T) {
	db := startMySQL(t)
	n := countMatching(t, db, `{"json_has_key": [{"var": "meta"}, "tier"]}`)
	require.Equal(t, 3, n)
}

func TestMySQLEmptyInIsFalseIdentity(t *testing.T) {
	db := startMySQL(t)
	n := countMatching(t, db, `{"in": [{"var": "status"}, []]}`)
	require.Equal(t, 0, n)
}

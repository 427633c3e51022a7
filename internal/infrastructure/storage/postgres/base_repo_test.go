package postgres

import (
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/security"
)

func TestBaseRepo_SelectAs(t *testing.T) {
	repo := NewBaseRepo[sampleEntry](nil, "stock_entries", "stock entry")

	sql, _, err := repo.SelectAs("e").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "e.product_id")
	assert.Contains(t, sql, "FROM stock_entries e")
	assert.NotContains(t, sql, "Untagged")
}

func TestApplyScope(t *testing.T) {
	admin := uuid.New()
	manager := uuid.New()

	tests := []struct {
		name  string
		scope security.AccessScope
		want  string
		args  int
	}{
		{"superadmin", security.AccessScope{Role: appctx.RoleSuperadmin}, "", 0},
		{"admin", security.AccessScope{Role: appctx.RoleAdmin, AdminID: &admin}, "WHERE s.admin_id = $1", 1},
		{"manager", security.AccessScope{Role: appctx.RoleStoreManager, ManagerID: &manager}, "WHERE s.manager_id = $1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ApplyScope(psql.Select("s.id").From("stores s"), tt.scope, "s")

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			if tt.want == "" {
				assert.NotContains(t, sql, "WHERE")
			} else {
				assert.Contains(t, sql, tt.want)
			}
			assert.Len(t, args, tt.args)
		})
	}
}

func TestPageCountWrapsFilteredQuery(t *testing.T) {
	q := psql.Select("id").From("tickets").Where(sq.Eq{"status": "open"})

	sql, args, err := psql.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT id FROM tickets WHERE status = $1) AS sub", sql)
	assert.Equal(t, []any{"open"}, args)
}

func TestConstraintErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"})
	fk := &pgconn.PgError{Code: "23503"}

	name, ok := UniqueViolation(unique)
	assert.True(t, ok)
	assert.Equal(t, "products_sku_key", name)

	_, ok = UniqueViolation(fk)
	assert.False(t, ok)
	assert.True(t, ForeignKeyViolation(fk))
	assert.False(t, ForeignKeyViolation(unique))
}

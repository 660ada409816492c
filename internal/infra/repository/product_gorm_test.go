package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	infrarepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
)

// sqlmockの上にgormを開く。repoが発行するSQLをそのまま検証するため。
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "price", "stock", "is_active"})
}

func TestProductGormRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := infrarepo.NewProductGormRepository(gdb)

	// 行ロック付きSELECTであること
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE .+ FOR UPDATE`).
		WithArgs(int64(7), 1).
		WillReturnRows(productRows().AddRow(7, "Coffee", "", "5.00", 10, true))

	p, err := r.FindByIDForUpdate(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, int64(10), p.Stock)
	assert.Equal(t, "5.00", p.Price.StringFixed(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGormRepository_FindByIDForUpdate_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := infrarepo.NewProductGormRepository(gdb)

	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE .+ FOR UPDATE`).
		WithArgs(int64(404), 1).
		WillReturnRows(productRows())

	_, err := r.FindByIDForUpdate(context.Background(), 404)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGormRepository_FindByID_NoLock(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := infrarepo.NewProductGormRepository(gdb)

	// 通常の取得ではFOR UPDATEは付かない
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE .+ LIMIT \$\d+$`).
		WithArgs(int64(7), 1).
		WillReturnRows(productRows().AddRow(7, "Coffee", "", "5.00", 10, true))

	_, err := r.FindByID(context.Background(), 7)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryGormRepository_SetStock(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := infrarepo.NewInventoryGormRepository(gdb)

	mock.ExpectExec(`UPDATE "products" SET "stock"=\$1.+WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.SetStock(context.Background(), 7, 4)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryGormRepository_SetStock_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := infrarepo.NewInventoryGormRepository(gdb)

	mock.ExpectExec(`UPDATE "products" SET "stock"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.SetStock(context.Background(), 404, 4)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

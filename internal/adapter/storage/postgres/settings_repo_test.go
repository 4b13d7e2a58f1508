package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectQuery("SELECT setting_value FROM app_settings").
		WithArgs("pix_client_id").
		WillReturnRows(pgxmock.NewRows([]string{"setting_value"}).AddRow("client-123"))

	value, err := repo.Get(context.Background(), "pix_client_id")
	require.NoError(t, err)
	assert.Equal(t, "client-123", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Get_Absent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectQuery("SELECT setting_value FROM app_settings").
		WithArgs("pix_store_key").
		WillReturnRows(pgxmock.NewRows([]string{"setting_value"}))

	value, err := repo.Get(context.Background(), "pix_store_key")
	require.NoError(t, err)
	assert.Equal(t, "", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)

	mock.ExpectExec("INSERT INTO app_settings .+ ON CONFLICT").
		WithArgs("pix_base_url", "https://api.gateway.example").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Set(context.Background(), "pix_base_url", "https://api.gateway.example")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/repository"
)

func TestRequireActive_MalformedServerIDOnPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repos := repository.NewPostgresRepositories(db, zerolog.Nop())
	authz := NewAuthorizer(repos.Servers, repos.Members)

	mock.ExpectQuery("FROM servers").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

	_, err = authz.RequireActive(context.Background(), "u1", "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrServerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

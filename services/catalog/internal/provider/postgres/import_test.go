package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
)

func TestProvider_Import(t *testing.T) {
	p, mock := newTestProvider(t)

	categories := []domain.Category{
		{Name: "Design", Description: "Visual design"},
		{Name: "Design"},
	}
	courses := []domain.Course{
		{ID: "1", Title: "Figma Basics", Category: "Design", Level: domain.LevelBeginner},
		{ID: "2", Title: "SQL Joins", Category: "Data", Price: 20, Level: domain.LevelIntermediate},
		{ID: "draft-7", Title: "Unpublished"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO categories").
		WithArgs("Design", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO categories").
		WithArgs("Data", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO courses").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO courses").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("SELECT setval").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	res, err := p.Import(context.Background(), categories, courses)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Categories: 2, Courses: 2, Skipped: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_Import_RollsBackOnError(t *testing.T) {
	p, mock := newTestProvider(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO categories").WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	_, err := p.Import(context.Background(), []domain.Category{{Name: "Design"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upsert category "Design"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_Import_Empty(t *testing.T) {
	p, mock := newTestProvider(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := p.Import(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvider_Import_BeginFails(t *testing.T) {
	p, mock := newTestProvider(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := p.Import(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin import")
}

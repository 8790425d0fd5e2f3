package postgres

import (
	"github.com/fair-squares/go-fairsquares/internal/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

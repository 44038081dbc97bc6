package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/carrylink/carrylink_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	matchRepo := newPgxMatchRepository(dbPool)

	return portsrepo.RepositoryProvider{
		MatchRepo: matchRepo,
	}
}

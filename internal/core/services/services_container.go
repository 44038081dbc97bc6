package services

import (
	portsrepo "github.com/carrylink/carrylink_backend/internal/core/ports/repositories"
	portssvc "github.com/carrylink/carrylink_backend/internal/core/ports/services"
	"github.com/carrylink/carrylink_backend/internal/core/ports/sources"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, demands sources.DemandSource, journeys sources.JourneySource) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Matching = NewMatchingService(repos.MatchRepo, demands, journeys)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.MatchingSvcFacade = (*matchingService)(nil)
)

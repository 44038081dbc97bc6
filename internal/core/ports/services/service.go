package services

// ServiceContainer holds all the services used by the handlers layer.
type ServiceContainer struct {
	Matching MatchingSvcFacade
}

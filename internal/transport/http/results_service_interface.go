package http

import "ridership/pkg/contracts/domain"

// ResultReader is the read side of the in-memory result store
type ResultReader interface {
	Get(station string) (domain.StationResult, bool)
	List() []domain.StationResult
}

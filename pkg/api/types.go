package api

import (
	"time"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// EntitiesResponse is a page of entities.
type EntitiesResponse struct {
	Entities   []subgraph.Entity `json:"entities"`
	Pagination PaginationResult  `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	First   int  `json:"first"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"has_more"`
}

// EventsResponse lists stored events.
type EventsResponse struct {
	Events []*subgraph.Event `json:"events"`
	Count  int               `json:"count"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status                   string    `json:"status"`
	Timestamp                time.Time `json:"timestamp"`
	LatestIndexedBlockNumber uint64    `json:"latest_indexed_block_number"`
	ChainHeadBlockNumber     uint64    `json:"chain_head_block_number"`
	HasIndexingError         bool      `json:"has_indexing_error"`
}

// EntityTypesResponse lists the queryable entity types.
type EntityTypesResponse struct {
	EntityTypes []string `json:"entity_types"`
}

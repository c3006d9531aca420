package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Querier is the read side of the indexer served over HTTP.
type Querier interface {
	GetSyncStatus(ctx context.Context) (*subgraph.SyncStatus, error)
	GetStateSyncStatus(ctx context.Context) (*subgraph.StateSyncStatus, error)
	GetSubgraphEntity(ctx context.Context, entityType, id string, height subgraph.BlockHeight,
		selection []string) (subgraph.Entity, error)
	GetSubgraphEntities(ctx context.Context, entityType string, height subgraph.BlockHeight, where subgraph.Where,
		opts subgraph.QueryOptions, selection []string) ([]subgraph.Entity, error)
	GetEventsByFilter(ctx context.Context, filter subgraph.EventFilter) ([]*subgraph.Event, error)
	GetEventsInRange(ctx context.Context, from, to uint64) ([]*subgraph.Event, error)
	GetStateByCID(ctx context.Context, cid string) (*subgraph.State, error)
	GetWatchedContracts() []*subgraph.Contract
	EntityTypes() []string
}

// Handler handles HTTP requests for the API.
type Handler struct {
	querier     Querier
	maxPageSize int
	log         *logger.Logger
}

// NewHandler creates a new API handler. maxPageSize caps the first parameter
// of list queries.
func NewHandler(querier Querier, maxPageSize int, log *logger.Logger) *Handler {
	return &Handler{
		querier:     querier,
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// Health returns the health status of the watcher.
// @Summary Health check
// @Description Check that the watcher database is reachable and report indexing progress
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Watcher health status"
// @Failure 503 {object} ErrorResponse "Watcher unavailable"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.querier.GetSyncStatus(r.Context())
	if errors.Is(err, subgraph.ErrNotFound) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "starting", Timestamp: time.Now()})
		return
	}
	if err != nil {
		h.log.Errorf("Failed to get sync status: %v", err)
		respondError(w, http.StatusServiceUnavailable, "sync status unavailable")
		return
	}

	response := HealthResponse{
		Status:                   "ok",
		Timestamp:                time.Now(),
		LatestIndexedBlockNumber: status.LatestIndexedBlockNumber,
		ChainHeadBlockNumber:     status.ChainHeadBlockNumber,
		HasIndexingError:         status.HasIndexingError,
	}
	if status.HasIndexingError {
		response.Status = "degraded"
	}

	respondJSON(w, http.StatusOK, response)
}

// GetSyncStatus returns the indexing progress.
// @Summary Get sync status
// @Description Chain head, latest indexed, processed and canonical blocks
// @Tags Status
// @Produce json
// @Success 200 {object} subgraph.SyncStatus
// @Failure 404 {object} ErrorResponse "Indexing has not started"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /sync-status [get]
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.querier.GetSyncStatus(r.Context())
	if err != nil {
		h.respondQueryError(w, "sync status", err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// GetStateSyncStatus returns how far state diffs and checkpoints are materialized.
// @Summary Get state sync status
// @Tags Status
// @Produce json
// @Success 200 {object} subgraph.StateSyncStatus
// @Failure 404 {object} ErrorResponse "No state has been materialized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /state-sync-status [get]
func (h *Handler) GetStateSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.querier.GetStateSyncStatus(r.Context())
	if err != nil {
		h.respondQueryError(w, "state sync status", err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// ListEntityTypes returns the queryable entity types.
// @Summary List entity types
// @Tags Entities
// @Produce json
// @Success 200 {object} EntityTypesResponse
// @Router /entities [get]
func (h *Handler) ListEntityTypes(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, EntityTypesResponse{EntityTypes: h.querier.EntityTypes()})
}

// GetEntity returns one entity as of a block.
// @Summary Get an entity
// @Description Read an entity by id as of a block hash, a canonical block number or the latest indexed state
// @Tags Entities
// @Produce json
// @Param type path string true "Entity type"
// @Param id path string true "Entity id"
// @Param block_hash query string false "Read as of this block hash"
// @Param block_number query integer false "Read as of this canonical block number"
// @Param select query string false "Comma separated relation fields to resolve"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Entity not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /entities/{type}/{id} [get]
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	entityType, id := r.PathValue("type"), r.PathValue("id")
	if entityType == "" || id == "" {
		respondError(w, http.StatusBadRequest, "entity type and id are required")
		return
	}

	height, err := parseBlockHeight(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	entity, err := h.querier.GetSubgraphEntity(r.Context(), entityType, id, height, parseSelection(r))
	if err != nil {
		h.respondQueryError(w, "entity", err)
		return
	}
	respondJSON(w, http.StatusOK, entity)
}

// GetEntities lists entities of a type as of a block.
// @Summary List entities
// @Description List entities with filtering, ordering and pagination
// @Tags Entities
// @Produce json
// @Param type path string true "Entity type"
// @Param block_hash query string false "Read as of this block hash"
// @Param block_number query integer false "Read as of this canonical block number"
// @Param first query int false "Maximum number of entities to return" default(100)
// @Param skip query int false "Number of entities to skip" default(0)
// @Param order_by query string false "Field to order by"
// @Param order_direction query string false "Order direction" Enums(asc, desc)
// @Param where query string false "JSON object of field filters, e.g. {\"feeTier\":3000,\"liquidity_gt\":\"0\"}"
// @Param select query string false "Comma separated relation fields to resolve"
// @Success 200 {object} EntitiesResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /entities/{type} [get]
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("type")
	if entityType == "" {
		respondError(w, http.StatusBadRequest, "entity type is required")
		return
	}

	height, err := parseBlockHeight(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}
	opts, err := h.parseQueryOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}
	where, err := parseWhere(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	// one extra row tells whether another page exists
	page := opts.Limit
	opts.Limit++

	entities, err := h.querier.GetSubgraphEntities(r.Context(), entityType, height, where, opts, parseSelection(r))
	if err != nil {
		h.respondQueryError(w, "entities", err)
		return
	}

	hasMore := len(entities) > page
	if hasMore {
		entities = entities[:page]
	}
	if entities == nil {
		entities = []subgraph.Entity{}
	}

	respondJSON(w, http.StatusOK, EntitiesResponse{
		Entities: entities,
		Pagination: PaginationResult{
			First:   page,
			Skip:    opts.Skip,
			HasMore: hasMore,
		},
	})
}

// GetEvents returns the events of a processed block.
// @Summary Get block events
// @Description Events of one processed block, optionally narrowed by contract and event name
// @Tags Events
// @Produce json
// @Param block_hash query string true "Block hash"
// @Param contract query string false "Contract address"
// @Param name query string false "Event name"
// @Success 200 {object} EventsResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters or block not processed"
// @Failure 404 {object} ErrorResponse "Block not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	blockHash, err := parseHash(q.Get("block_hash"))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid block_hash: %v", err))
		return
	}
	filter := subgraph.EventFilter{BlockHash: blockHash, Name: q.Get("name")}
	if contract := q.Get("contract"); contract != "" {
		if !common.IsHexAddress(contract) {
			respondError(w, http.StatusBadRequest, "invalid contract address")
			return
		}
		addr := common.HexToAddress(contract)
		filter.Contract = &addr
	}

	events, err := h.querier.GetEventsByFilter(r.Context(), filter)
	if err != nil {
		h.respondQueryError(w, "events", err)
		return
	}
	respondEvents(w, events)
}

// GetEventsInRange returns the events of a block range.
// @Summary Get events in a block range
// @Description Events of every processed block in [from_block, to_block]
// @Tags Events
// @Produce json
// @Param from_block query integer true "First block number"
// @Param to_block query integer true "Last block number"
// @Success 200 {object} EventsResponse
// @Failure 400 {object} ErrorResponse "Invalid range or blocks not processed"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events/range [get]
func (h *Handler) GetEventsInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := strconv.ParseUint(q.Get("from_block"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from_block")
		return
	}
	to, err := strconv.ParseUint(q.Get("to_block"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to_block")
		return
	}
	if from > to {
		respondError(w, http.StatusBadRequest, "from_block cannot be greater than to_block")
		return
	}

	events, err := h.querier.GetEventsInRange(r.Context(), from, to)
	if err != nil {
		h.respondQueryError(w, "events", err)
		return
	}
	respondEvents(w, events)
}

// GetState returns a stored state record by content id.
// @Summary Get state by CID
// @Tags State
// @Produce json
// @Param cid path string true "Content id"
// @Success 200 {object} subgraph.State
// @Failure 404 {object} ErrorResponse "State not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /state/{cid} [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	cid := r.PathValue("cid")
	if cid == "" {
		respondError(w, http.StatusBadRequest, "cid is required")
		return
	}

	state, err := h.querier.GetStateByCID(r.Context(), cid)
	if err != nil {
		h.respondQueryError(w, "state", err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// ListContracts returns the watched contracts.
// @Summary List watched contracts
// @Tags Contracts
// @Produce json
// @Success 200 {array} subgraph.Contract
// @Router /contracts [get]
func (h *Handler) ListContracts(w http.ResponseWriter, _ *http.Request) {
	contracts := h.querier.GetWatchedContracts()
	if contracts == nil {
		contracts = []*subgraph.Contract{}
	}
	respondJSON(w, http.StatusOK, contracts)
}

// respondQueryError maps query errors to status codes. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondQueryError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, subgraph.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrUnknownEntityType),
		errors.Is(err, catalog.ErrUnknownField),
		errors.Is(err, subgraph.ErrBlockNotProcessed),
		errors.Is(err, subgraph.ErrBlockPruned),
		errors.Is(err, subgraph.ErrRangeMismatch):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Errorf("Failed to query %s: %v", what, err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query %s", what))
	}
}

func respondEvents(w http.ResponseWriter, events []*subgraph.Event) {
	if events == nil {
		events = []*subgraph.Event{}
	}
	respondJSON(w, http.StatusOK, EventsResponse{Events: events, Count: len(events)})
}

// parseBlockHeight reads block_hash or block_number. Neither selects the
// latest indexed state.
func parseBlockHeight(r *http.Request) (subgraph.BlockHeight, error) {
	q := r.URL.Query()
	hashStr, numberStr := q.Get("block_hash"), q.Get("block_number")

	switch {
	case hashStr != "" && numberStr != "":
		return subgraph.BlockHeight{}, fmt.Errorf("block_hash and block_number are mutually exclusive")
	case hashStr != "":
		hash, err := parseHash(hashStr)
		if err != nil {
			return subgraph.BlockHeight{}, fmt.Errorf("invalid block_hash: %w", err)
		}
		return subgraph.AtHash(hash), nil
	case numberStr != "":
		n, err := strconv.ParseUint(numberStr, 10, 64)
		if err != nil {
			return subgraph.BlockHeight{}, fmt.Errorf("invalid block_number")
		}
		return subgraph.AtNumber(n), nil
	default:
		return subgraph.LatestBlock(), nil
	}
}

func parseHash(s string) (common.Hash, error) {
	if s == "" {
		return common.Hash{}, fmt.Errorf("missing hash")
	}
	return internalcommon.ParseHash(s)
}

// parseQueryOptions parses first, skip, order_by and order_direction.
func (h *Handler) parseQueryOptions(r *http.Request) (subgraph.QueryOptions, error) {
	q := r.URL.Query()
	opts := subgraph.QueryOptions{Limit: min(subgraph.DefaultQueryLimit, h.maxPageSize)}

	if firstStr := q.Get("first"); firstStr != "" {
		first, err := strconv.Atoi(firstStr)
		if err != nil || first < 1 || first > h.maxPageSize {
			return opts, fmt.Errorf("invalid first: must be between 1 and %d", h.maxPageSize)
		}
		opts.Limit = first
	}

	if skipStr := q.Get("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil || skip < 0 {
			return opts, fmt.Errorf("invalid skip: must be non-negative")
		}
		opts.Skip = skip
	}

	opts.OrderBy = q.Get("order_by")

	if dir := q.Get("order_direction"); dir != "" {
		dir = strings.ToLower(dir)
		if dir != string(subgraph.OrderAsc) && dir != string(subgraph.OrderDesc) {
			return opts, fmt.Errorf("invalid order_direction: must be 'asc' or 'desc'")
		}
		opts.OrderDirection = subgraph.OrderDirection(dir)
	}

	return opts, nil
}

// parseWhere decodes the where parameter, a JSON object. Numbers are kept as
// json.Number so BigInt operands survive intact.
func parseWhere(r *http.Request) (subgraph.Where, error) {
	raw := r.URL.Query().Get("where")
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var where subgraph.Where
	if err := dec.Decode(&where); err != nil {
		return nil, fmt.Errorf("invalid where: %w", err)
	}
	return where, nil
}

func parseSelection(r *http.Request) []string {
	raw := r.URL.Query().Get("select")
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode first so an encoding failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}

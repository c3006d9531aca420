package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	apimocks "github.com/goran-ethernal/SubgraphWatcher/internal/api/mocks"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *apimocks.Querier) {
	t.Helper()

	querier := apimocks.NewQuerier(t)
	return NewHandler(querier, 1000, logger.NewNopLogger()), querier
}

// serve routes req through a mux so path values are populated.
func serve(pattern string, fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, fn)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		data         any
		expectedBody string
	}{
		{"object", http.StatusOK, map[string]string{"message": "success"}, `{"message":"success"}`},
		{"array", http.StatusOK, []string{"a", "b"}, `["a","b"]`},
		{"nil", http.StatusOK, nil, "null"},
		{"error status", http.StatusBadRequest, map[string]string{"error": "bad"}, `{"error":"bad"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))
			require.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRespondJSON_EncodingError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, make(chan int))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to encode response")
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondError(w, http.StatusNotFound, "entity not found")

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	require.Equal(t, "Not Found", resp.Error)
	require.Equal(t, "entity not found", resp.Message)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestParseBlockHeight(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0xabc")

	tests := []struct {
		name        string
		query       string
		expected    subgraph.BlockHeight
		expectedErr string
	}{
		{name: "latest", query: "", expected: subgraph.LatestBlock()},
		{name: "by hash", query: "block_hash=" + hash.Hex(), expected: subgraph.AtHash(hash)},
		{name: "by number", query: "block_number=42", expected: subgraph.AtNumber(42)},
		{name: "both", query: "block_hash=" + hash.Hex() + "&block_number=1", expectedErr: "mutually exclusive"},
		{name: "bad hash", query: "block_hash=0xzz", expectedErr: "invalid block_hash"},
		{name: "bad number", query: "block_number=-1", expectedErr: "invalid block_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			height, err := parseBlockHeight(req)
			if tt.expectedErr != "" {
				require.ErrorContains(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, height)
		})
	}
}

func TestParseQueryOptions(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, 50, logger.NewNopLogger())

	tests := []struct {
		name        string
		query       string
		expected    subgraph.QueryOptions
		expectedErr string
	}{
		{name: "defaults capped by page size", query: "", expected: subgraph.QueryOptions{Limit: 50}},
		{
			name:     "all options",
			query:    "first=10&skip=20&order_by=feeTier&order_direction=DESC",
			expected: subgraph.QueryOptions{Limit: 10, Skip: 20, OrderBy: "feeTier", OrderDirection: subgraph.OrderDesc},
		},
		{name: "first above page size", query: "first=51", expectedErr: "between 1 and 50"},
		{name: "zero first", query: "first=0", expectedErr: "invalid first"},
		{name: "negative skip", query: "skip=-1", expectedErr: "invalid skip"},
		{name: "bad direction", query: "order_direction=up", expectedErr: "invalid order_direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			opts, err := h.parseQueryOptions(req)
			if tt.expectedErr != "" {
				require.ErrorContains(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, opts)
		})
	}
}

func TestParseWhere(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet,
		`/?where=%7B%22feeTier%22%3A3000%2C%22liquidity_gt%22%3A%22123456789012345678901234567890%22%7D`, nil)
	where, err := parseWhere(req)
	require.NoError(t, err)
	require.Equal(t, subgraph.Where{
		"feeTier":      json.Number("3000"),
		"liquidity_gt": "123456789012345678901234567890",
	}, where)

	req = httptest.NewRequest(http.MethodGet, "/?where=notjson", nil)
	_, err = parseWhere(req)
	require.ErrorContains(t, err, "invalid where")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	where, err = parseWhere(req)
	require.NoError(t, err)
	require.Nil(t, where)
}

func TestParseSelection(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?select=token0,%20token1,,", nil)
	require.Equal(t, []string{"token0", "token1"}, parseSelection(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, parseSelection(req))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		status         *subgraph.SyncStatus
		err            error
		expectedCode   int
		expectedStatus string
	}{
		{
			name:           "indexing",
			status:         &subgraph.SyncStatus{LatestIndexedBlockNumber: 90, ChainHeadBlockNumber: 100},
			expectedCode:   http.StatusOK,
			expectedStatus: "ok",
		},
		{
			name:           "indexing error",
			status:         &subgraph.SyncStatus{HasIndexingError: true},
			expectedCode:   http.StatusOK,
			expectedStatus: "degraded",
		},
		{
			name:           "not started",
			err:            subgraph.ErrNotFound,
			expectedCode:   http.StatusOK,
			expectedStatus: "starting",
		},
		{
			name:         "database failure",
			err:          errors.New("database is locked"),
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, querier := newTestHandler(t)
			querier.EXPECT().GetSyncStatus(mock.Anything).Return(tt.status, tt.err)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode != http.StatusOK {
				return
			}
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tt.expectedStatus, resp.Status)
			if tt.status != nil {
				require.Equal(t, tt.status.LatestIndexedBlockNumber, resp.LatestIndexedBlockNumber)
				require.Equal(t, tt.status.ChainHeadBlockNumber, resp.ChainHeadBlockNumber)
			}
		})
	}
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	h, querier := newTestHandler(t)
	querier.EXPECT().GetSyncStatus(mock.Anything).Return(&subgraph.SyncStatus{
		LatestCanonicalBlockNumber: 7,
		LatestIndexedBlockNumber:   9,
	}, nil)

	w := httptest.NewRecorder()
	h.GetSyncStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync-status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var status subgraph.SyncStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, uint64(7), status.LatestCanonicalBlockNumber)
	require.Equal(t, uint64(9), status.LatestIndexedBlockNumber)
}

func TestGetStateSyncStatus_NotFound(t *testing.T) {
	t.Parallel()

	h, querier := newTestHandler(t)
	querier.EXPECT().GetStateSyncStatus(mock.Anything).Return(nil, subgraph.ErrNotFound)

	w := httptest.NewRecorder()
	h.GetStateSyncStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/state-sync-status", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEntity(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x01")

	tests := []struct {
		name         string
		target       string
		setup        func(q *apimocks.Querier)
		expectedCode int
		expectedID   string
	}{
		{
			name:   "latest",
			target: "/api/v1/entities/Pool/0xpool?select=token0",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetSubgraphEntity(mock.Anything, "Pool", "0xpool", subgraph.LatestBlock(), []string{"token0"}).
					Return(subgraph.Entity{"id": "0xpool", "token0": subgraph.Entity{"id": "0xt0"}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedID:   "0xpool",
		},
		{
			name:   "at block hash",
			target: "/api/v1/entities/Pool/0xpool?block_hash=" + hash.Hex(),
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetSubgraphEntity(mock.Anything, "Pool", "0xpool", subgraph.AtHash(hash), []string(nil)).
					Return(subgraph.Entity{"id": "0xpool"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedID:   "0xpool",
		},
		{
			name:   "missing entity",
			target: "/api/v1/entities/Pool/0xnone",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetSubgraphEntity(mock.Anything, "Pool", "0xnone", subgraph.LatestBlock(), []string(nil)).
					Return(nil, fmt.Errorf("Pool 0xnone: %w", subgraph.ErrNotFound))
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:   "unknown type",
			target: "/api/v1/entities/Nope/1",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetSubgraphEntity(mock.Anything, "Nope", "1", subgraph.LatestBlock(), []string(nil)).
					Return(nil, fmt.Errorf("%w Nope", catalog.ErrUnknownEntityType))
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid height",
			target:       "/api/v1/entities/Pool/1?block_number=x",
			setup:        func(q *apimocks.Querier) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "storage failure",
			target: "/api/v1/entities/Pool/1",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetSubgraphEntity(mock.Anything, "Pool", "1", subgraph.LatestBlock(), []string(nil)).
					Return(nil, errors.New("disk I/O error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, querier := newTestHandler(t)
			tt.setup(querier)

			w := serve("GET /api/v1/entities/{type}/{id}", h.GetEntity, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode != http.StatusOK {
				require.Equal(t, tt.expectedCode, decodeError(t, w).Code)
				return
			}
			var entity map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entity))
			require.Equal(t, tt.expectedID, entity["id"])
		})
	}
}

func TestGetEntities(t *testing.T) {
	t.Parallel()

	t.Run("pagination reports more pages", func(t *testing.T) {
		t.Parallel()

		h, querier := newTestHandler(t)
		querier.EXPECT().GetSubgraphEntities(mock.Anything, "Token", subgraph.AtNumber(5),
			subgraph.Where{"decimals": json.Number("18")},
			subgraph.QueryOptions{Limit: 3, Skip: 2, OrderBy: "symbol", OrderDirection: subgraph.OrderAsc},
			[]string(nil),
		).Return([]subgraph.Entity{{"id": "a"}, {"id": "b"}, {"id": "c"}}, nil)

		target := "/api/v1/entities/Token?block_number=5&first=2&skip=2&order_by=symbol&order_direction=asc" +
			"&where=%7B%22decimals%22%3A18%7D"
		w := serve("GET /api/v1/entities/{type}", h.GetEntities, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp EntitiesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entities, 2)
		require.Equal(t, PaginationResult{First: 2, Skip: 2, HasMore: true}, resp.Pagination)
	})

	t.Run("last page", func(t *testing.T) {
		t.Parallel()

		h, querier := newTestHandler(t)
		querier.EXPECT().GetSubgraphEntities(mock.Anything, "Token", subgraph.LatestBlock(), subgraph.Where(nil),
			subgraph.QueryOptions{Limit: subgraph.DefaultQueryLimit + 1}, []string{"whitelistPools"},
		).Return(nil, nil)

		w := serve("GET /api/v1/entities/{type}", h.GetEntities,
			httptest.NewRequest(http.MethodGet, "/api/v1/entities/Token?select=whitelistPools", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"entities":[],"pagination":{"first":100,"skip":0,"has_more":false}}`, w.Body.String())
	})

	t.Run("unknown filter field", func(t *testing.T) {
		t.Parallel()

		h, querier := newTestHandler(t)
		querier.EXPECT().GetSubgraphEntities(mock.Anything, "Token", subgraph.LatestBlock(), mock.Anything,
			mock.Anything, mock.Anything,
		).Return(nil, fmt.Errorf("where color: %w", catalog.ErrUnknownField))

		w := serve("GET /api/v1/entities/{type}", h.GetEntities,
			httptest.NewRequest(http.MethodGet, "/api/v1/entities/Token?where=%7B%22color%22%3A%22red%22%7D", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid where", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(t)
		w := serve("GET /api/v1/entities/{type}", h.GetEntities,
			httptest.NewRequest(http.MethodGet, "/api/v1/entities/Token?where=%5B1%5D", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, decodeError(t, w).Message, "invalid where")
	})
}

func TestGetEvents(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0xb1")
	contract := common.HexToAddress("0xc1")

	tests := []struct {
		name          string
		query         string
		setup         func(q *apimocks.Querier)
		expectedCode  int
		expectedCount int
	}{
		{
			name:  "filtered",
			query: "block_hash=" + hash.Hex() + "&contract=" + contract.Hex() + "&name=Swap",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetEventsByFilter(mock.Anything, subgraph.EventFilter{
					BlockHash: hash, Contract: &contract, Name: "Swap",
				}).Return([]*subgraph.Event{{BlockHash: hash, EventName: "Swap"}}, nil)
			},
			expectedCode:  http.StatusOK,
			expectedCount: 1,
		},
		{
			name:  "block not processed",
			query: "block_hash=" + hash.Hex(),
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetEventsByFilter(mock.Anything, subgraph.EventFilter{BlockHash: hash}).
					Return(nil, fmt.Errorf("block 5: %w", subgraph.ErrBlockNotProcessed))
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing block hash",
			query:        "",
			setup:        func(q *apimocks.Querier) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid contract",
			query:        "block_hash=" + hash.Hex() + "&contract=0x12",
			setup:        func(q *apimocks.Querier) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, querier := newTestHandler(t)
			tt.setup(querier)

			w := httptest.NewRecorder()
			h.GetEvents(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?"+tt.query, nil))

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var resp EventsResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, tt.expectedCount, resp.Count)
				require.Len(t, resp.Events, tt.expectedCount)
			}
		})
	}
}

func TestGetEventsInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		query        string
		setup        func(q *apimocks.Querier)
		expectedCode int
	}{
		{
			name:  "processed range",
			query: "from_block=10&to_block=12",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetEventsInRange(mock.Anything, uint64(10), uint64(12)).
					Return([]*subgraph.Event{{BlockNumber: 10}, {BlockNumber: 12}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "range not processed",
			query: "from_block=10&to_block=12",
			setup: func(q *apimocks.Querier) {
				q.EXPECT().GetEventsInRange(mock.Anything, uint64(10), uint64(12)).
					Return(nil, &subgraph.RangeMismatchError{From: 10, To: 12, Expected: 3, Actual: 2})
			},
			expectedCode: http.StatusBadRequest,
		},
		{name: "inverted range", query: "from_block=12&to_block=10", setup: func(q *apimocks.Querier) {}, expectedCode: http.StatusBadRequest},
		{name: "missing to_block", query: "from_block=1", setup: func(q *apimocks.Querier) {}, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, querier := newTestHandler(t)
			tt.setup(querier)

			w := httptest.NewRecorder()
			h.GetEventsInRange(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/range?"+tt.query, nil))

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestGetState(t *testing.T) {
	t.Parallel()

	h, querier := newTestHandler(t)
	querier.EXPECT().GetStateByCID(mock.Anything, "bafyabc").Return(&subgraph.State{
		CID:         "bafyabc",
		Kind:        subgraph.StateKindCheckpoint,
		BlockNumber: 100,
	}, nil)
	querier.EXPECT().GetStateByCID(mock.Anything, "missing").Return(nil, subgraph.ErrNotFound)

	w := serve("GET /api/v1/state/{cid}", h.GetState, httptest.NewRequest(http.MethodGet, "/api/v1/state/bafyabc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state subgraph.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Equal(t, subgraph.StateKindCheckpoint, state.Kind)
	require.Equal(t, uint64(100), state.BlockNumber)

	w = serve("GET /api/v1/state/{cid}", h.GetState, httptest.NewRequest(http.MethodGet, "/api/v1/state/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListContractsAndEntityTypes(t *testing.T) {
	t.Parallel()

	h, querier := newTestHandler(t)
	querier.EXPECT().GetWatchedContracts().Return(nil).Once()
	querier.EXPECT().EntityTypes().Return([]string{"Pool", "Token"}).Once()

	w := httptest.NewRecorder()
	h.ListContracts(w, httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	h.ListEntityTypes(w, httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"entity_types":["Pool","Token"]}`, w.Body.String())
}

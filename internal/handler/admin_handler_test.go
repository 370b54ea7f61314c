package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"flowforge/internal/domain"
	"flowforge/internal/handler"
	"flowforge/mocks"
)

func TestRunHandler_List(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewRunHandler(mockSvc)

	runs := []domain.ParseRun{{ID: uuid.New(), Mode: domain.ParseModeDirectMulti}}
	mockSvc.On("ListRuns", mock.Anything, 40, 20).Return(runs, 41, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs?offset=40&limit=500", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, &handler.PagMeta{Total: 41, Offset: 40, Limit: 20}, resp.Meta)
	mockSvc.AssertExpectations(t)
}

func TestRunHandler_List_AuditDisabled(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewRunHandler(mockSvc)
	mockSvc.On("ListRuns", mock.Anything, 0, 20).Return(nil, 0, domain.ErrAuditDisabled)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "AUDIT_DISABLED", decodeResponse(t, w).Error.Code)
}

func TestRunHandler_Result(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewRunHandler(mockSvc)
	id := uuid.New()
	mockSvc.On("GetRunResult", mock.Anything, id).Return(json.RawMessage(`{"processCount":2}`), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+id.String()+"/result", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Result(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["processCount"])
}

func TestRunHandler_Result_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
		code   string
	}{
		{"bad id", "not-a-uuid", nil, http.StatusBadRequest, "INVALID_ID"},
		{"not found", uuid.NewString(), domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"archive disabled", uuid.NewString(), domain.ErrArchiveDisabled, http.StatusNotImplemented, "ARCHIVE_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mocks.MockProcessService)
			h := handler.NewRunHandler(mockSvc)
			if tt.err != nil {
				mockSvc.On("GetRunResult", mock.Anything, uuid.MustParse(tt.id)).Return(nil, tt.err)
			}

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+tt.id+"/result", http.NoBody)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}

			h.Result(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestCacheHandler_Stats(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewCacheHandler(mockSvc)
	mockSvc.On("CacheStats", mock.Anything).Return(&domain.CacheStats{Date: "2025-07-09", Hits: 3, Misses: 1, HitRate: 75}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/cache/stats", http.NoBody)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(75), data["hitRate"])
	assert.Equal(t, float64(3), data["cacheHits"])
}

func TestCacheHandler_Stats_Unavailable(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewCacheHandler(mockSvc)
	mockSvc.On("CacheStats", mock.Anything).Return(nil, domain.ErrCacheUnavailable)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/cache/stats", http.NoBody)

	h.Stats(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "CACHE_UNAVAILABLE", decodeResponse(t, w).Error.Code)
}

func TestCacheHandler_Clear(t *testing.T) {
	mockSvc := new(mocks.MockProcessService)
	h := handler.NewCacheHandler(mockSvc)
	mockSvc.On("ClearCache", mock.Anything, "parse:*").Return(7, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/cache?pattern=parse:*", http.NoBody)

	h.Clear(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["deleted"])
	assert.Equal(t, "parse:*", data["pattern"])
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		cache    handler.Pinger
		db       handler.Pinger
		status   int
		contains string
	}{
		{"all ok", stubPinger{}, stubPinger{}, http.StatusOK, `"status":"ok"`},
		{"components disabled", nil, nil, http.StatusOK, `"database":"disabled"`},
		{"cache down is degraded", stubPinger{err: errors.New("dial")}, stubPinger{}, http.StatusOK, `"status":"degraded"`},
		{"db down", stubPinger{}, stubPinger{err: errors.New("dial")}, http.StatusServiceUnavailable, `"status":"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.cache, tt.db)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

			h.Readiness(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := handler.NewHealthHandler(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)

	h.Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMapDomainError_ContextErrors(t *testing.T) {
	status, code, _ := handler.MapDomainError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "REQUEST_TIMEOUT", code)

	status, _, _ = handler.MapDomainError(domain.ErrTransport)
	assert.Equal(t, http.StatusBadGateway, status)
}

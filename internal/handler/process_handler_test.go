package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowforge/internal/domain"
	"flowforge/internal/handler"
	"flowforge/internal/middleware"
	"flowforge/internal/service"
	"flowforge/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProcessHandler() (*handler.ProcessHandler, *mocks.MockProcessService) {
	mockSvc := new(mocks.MockProcessService)
	return handler.NewProcessHandler(mockSvc), mockSvc
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestProcessHandler_Parse_Success(t *testing.T) {
	h, mockSvc := newProcessHandler()

	batch := &domain.ParseBatchResult{
		MultipleProcesses: false,
		ProcessCount:      1,
		Processes:         []domain.ParsedProcess{{Name: "Onboarding"}},
		Meta:              &domain.ParseMeta{Mode: domain.ParseModeSingle},
	}
	mockSvc.On("Parse", mock.Anything, &service.ParseInput{
		Text:              "HR sends the offer",
		InputType:         domain.InputTypeVoiceTranscript,
		AdditionalContext: "remote team",
		RequestedBy:       "user-7",
	}).Return(batch, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/parse", map[string]string{
		"text":              "HR sends the offer",
		"inputType":         "voice_transcript",
		"additionalContext": "remote team",
	})
	c.Set(middleware.ContextKeySubject, "user-7")

	h.Parse(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["processCount"])
	assert.Equal(t, "single", data["meta"].(map[string]interface{})["mode"])
	mockSvc.AssertExpectations(t)
}

func TestProcessHandler_Parse_InvalidJSON(t *testing.T) {
	h, mockSvc := newProcessHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/parse", "{not json")

	h.Parse(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeResponse(t, w).Error.Code)
	mockSvc.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
}

func TestProcessHandler_Parse_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrEmptyDocument, http.StatusBadRequest, "EMPTY_DOCUMENT"},
		{fmt.Errorf("%w: %q", domain.ErrUnsupportedInputType, "fax"), http.StatusBadRequest, "UNSUPPORTED_INPUT_TYPE"},
		{domain.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE"},
		{fmt.Errorf("%w: %w", domain.ErrPipelineExhausted, domain.ErrMalformedResponse), http.StatusBadGateway, "PIPELINE_EXHAUSTED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h, mockSvc := newProcessHandler()
			mockSvc.On("Parse", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/parse", map[string]string{"text": "x"})

			h.Parse(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestProcessHandler_IdealState(t *testing.T) {
	h, mockSvc := newProcessHandler()

	state := &domain.IdealState{Vision: "Fully automated", Categories: []domain.IdealCategory{}}
	mockSvc.On("GenerateIdealState", mock.Anything, mock.MatchedBy(func(p *domain.ParsedProcess) bool {
		return p.Name == "Onboarding" && len(p.Nodes) == 1
	})).Return(state, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/ideal-state", map[string]interface{}{
		"process": map[string]interface{}{
			"processName": "Onboarding",
			"nodes":       []map[string]string{{"id": "n1", "type": "trigger", "title": "Offer signed"}},
		},
	})

	h.IdealState(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "Fully automated", data["vision"])
	mockSvc.AssertExpectations(t)
}

func TestProcessHandler_IdealState_InvalidProcess(t *testing.T) {
	h, mockSvc := newProcessHandler()
	mockSvc.On("GenerateIdealState", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidProcess)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/ideal-state", map[string]interface{}{})

	h.IdealState(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PROCESS", decodeResponse(t, w).Error.Code)
}

func TestProcessHandler_Chat(t *testing.T) {
	h, mockSvc := newProcessHandler()
	mockSvc.On("Chat", mock.Anything, &service.ChatInput{
		History: []domain.ChatMessage{{Role: domain.ChatRoleAssistant, Content: "Who starts it?"}},
		Message: "The hiring manager",
	}).Return("What do they do first?", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/chat", map[string]interface{}{
		"history": []map[string]string{{"role": "assistant", "content": "Who starts it?"}},
		"message": "The hiring manager",
	})

	h.Chat(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "What do they do first?", data["response"])
	mockSvc.AssertExpectations(t)
}

func TestProcessHandler_Chat_EmptyMessage(t *testing.T) {
	h, mockSvc := newProcessHandler()
	mockSvc.On("Chat", mock.Anything, mock.Anything).Return("", domain.ErrEmptyMessage)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/chat", map[string]string{"message": ""})

	h.Chat(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_MESSAGE", decodeResponse(t, w).Error.Code)
}

func TestProcessHandler_Export(t *testing.T) {
	h, mockSvc := newProcessHandler()
	mockSvc.On("Export", mock.Anything, mock.MatchedBy(func(b *domain.ParseBatchResult) bool {
		return len(b.Processes) == 1
	})).Return([]byte("PK-workbook"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/export", map[string]interface{}{
		"batch": map[string]interface{}{
			"processCount": 1,
			"processes":    []map[string]interface{}{{"processName": "Expense Approval"}},
		},
	})

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PK-workbook", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="Expense_Approval_`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.xlsx"`), disposition)
}

func TestProcessHandler_Export_EmptyBatch(t *testing.T) {
	h, mockSvc := newProcessHandler()
	mockSvc.On("Export", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidProcess)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/process/export", map[string]interface{}{"batch": map[string]interface{}{}})

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

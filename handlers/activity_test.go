package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepulse/models"
)

func logActivity(t *testing.T, api *testAPI, kind models.ActivityKind, sessionID string) {
	t.Helper()
	rr := api.do(t, http.MethodPost, "/api/v1/activity", models.LogActivityRequest{
		SessionID:    sessionID,
		OperatorID:   "op-7",
		OperatorName: "Jordan Diaz",
		Kind:         kind,
		Description:  "test",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestLogActivity(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/v1/activity", models.LogActivityRequest{
		SessionID:    "sess-1",
		OperatorID:   "op-7",
		OperatorName: "Jordan Diaz",
		Kind:         models.ActivityStandSelected,
		Description:  "Selected North Grill",
		StandID:      "stand-3",
		StandName:    "North Grill",
		Metadata:     models.JSONB{"section": "NE"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var event models.ActivityEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.Equal(t, models.ActivityStandSelected, event.Kind)
	assert.Equal(t, "NE", event.Metadata["section"])
}

func TestLogActivityRejectsUnknownKind(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/v1/activity", map[string]string{
		"session_id":    "sess-1",
		"operator_id":   "op-7",
		"operator_name": "Jordan Diaz",
		"kind":          "made_coffee",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogActivityRequiresSession(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/v1/activity", map[string]string{
		"operator_id":   "op-7",
		"operator_name": "Jordan Diaz",
		"kind":          "login",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListActivityFilters(t *testing.T) {
	api := newTestAPI(t)

	logActivity(t, api, models.ActivityLogin, "sess-1")
	logActivity(t, api, models.ActivityTabChanged, "sess-1")
	logActivity(t, api, models.ActivityLogin, "sess-2")

	rr := api.do(t, http.MethodGet, "/api/v1/activity?kind=login", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.ListResponse[models.ActivityEvent]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Total)
	for _, e := range resp.Data {
		assert.Equal(t, models.ActivityLogin, e.Kind)
	}

	rr = api.do(t, http.MethodGet, "/api/v1/activity?session_id=sess-2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Total)
}

func TestListActivityPagination(t *testing.T) {
	api := newTestAPI(t)

	for i := 0; i < 5; i++ {
		logActivity(t, api, models.ActivityMessageSent, "sess-1")
	}

	rr := api.do(t, http.MethodGet, "/api/v1/activity?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.ListResponse[models.ActivityEvent]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.EqualValues(t, 5, resp.Total)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
}

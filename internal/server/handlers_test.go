package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/dispatch-api/internal/job"
	"github.com/fieldops/dispatch-api/internal/schedule"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := job.NewDispatchService(job.NewMemoryRepository(), logger,
		job.WithWorkingHours(schedule.WorkingHours{Start: "08:00", End: "20:00"}))
	return NewRouter(NewHandlers(svc, logger), logger, DefaultConfig())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) JobResponse {
	t.Helper()
	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func createScheduledJob(t *testing.T, router http.Handler, client, date, clock string, hours float64, worker string) JobResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/jobs", CreateJobRequest{
		ClientName:        client,
		ServiceDate:       date,
		ScheduledTime:     clock,
		EstimatedDuration: &hours,
		AssignedTo:        worker,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJob(t, rec)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateJob_Success(t *testing.T) {
	router := newTestRouter(t)

	got := createScheduledJob(t, router, "Acme Plumbing", "2024-05-01", "10:00", 1.5, "Ana")

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Pending", got.Status)
	assert.Equal(t, "2024-05-01", got.ServiceDate)
	assert.Equal(t, "10:00", got.ScheduledTime)
	require.NotNil(t, got.EstimatedDuration)
	assert.Equal(t, 1.5, *got.EstimatedDuration)
}

func TestCreateJob_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		req  CreateJobRequest
	}{
		{"missing client name", CreateJobRequest{ScheduledTime: "10:00"}},
		{"malformed time", CreateJobRequest{ClientName: "Acme", ScheduledTime: "25:00"}},
		{"malformed date", CreateJobRequest{ClientName: "Acme", ServiceDate: "not-a-date"}},
		{"negative duration", CreateJobRequest{ClientName: "Acme", EstimatedDuration: ptr(-1.0)}},
		{"unknown priority", CreateJobRequest{ClientName: "Acme", Priority: "Urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/jobs", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
		})
	}
}

func TestCreateJob_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_JSON")
}

func TestCreateJob_Conflict(t *testing.T) {
	router := newTestRouter(t)
	createScheduledJob(t, router, "Acme", "2024-05-01", "10:00", 1, "Ana")

	hours := 1.0
	rec := doJSON(t, router, http.MethodPost, "/jobs", CreateJobRequest{
		ClientName:        "Beta",
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:30",
		EstimatedDuration: &hours,
		AssignedTo:        "Ana",
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var resp struct {
		Code      string           `json:"code"`
		Conflicts ConflictResponse `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SCHEDULE_CONFLICT", resp.Code)
	require.Len(t, resp.Conflicts.Overlapping, 1)
	assert.Equal(t, "Acme", resp.Conflicts.Overlapping[0].ClientName)
	assert.Equal(t, "10:00", resp.Conflicts.Overlapping[0].Start)
	assert.Equal(t, "11:00", resp.Conflicts.Overlapping[0].End)
}

func TestCreateJob_ForceBypassesConflict(t *testing.T) {
	router := newTestRouter(t)
	createScheduledJob(t, router, "Acme", "2024-05-01", "10:00", 1, "Ana")

	hours := 1.0
	rec := doJSON(t, router, http.MethodPost, "/jobs", CreateJobRequest{
		ClientName:        "Beta",
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:30",
		EstimatedDuration: &hours,
		AssignedTo:        "Ana",
		Force:             true,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGetJob_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB_NOT_FOUND")
}

func TestListJobs_Filters(t *testing.T) {
	router := newTestRouter(t)
	createScheduledJob(t, router, "Acme Plumbing", "2024-05-01", "09:00", 1, "Ana")
	createScheduledJob(t, router, "Beta Electric", "2024-05-01", "12:00", 1, "Luis")

	rec := doJSON(t, router, http.MethodGet, "/jobs?q=beta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list JobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Beta Electric", list.Jobs[0].ClientName)

	rec = doJSON(t, router, http.MethodGet, "/jobs?assigned_to=Ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Acme Plumbing", list.Jobs[0].ClientName)

	rec = doJSON(t, router, http.MethodGet, "/jobs?status=Archived", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateJob_Partial(t *testing.T) {
	router := newTestRouter(t)
	created := createScheduledJob(t, router, "Acme", "2024-05-01", "09:00", 1, "Ana")

	priority := "High"
	rec := doJSON(t, router, http.MethodPatch, "/jobs/"+created.ID, UpdateJobRequest{Priority: &priority})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeJob(t, rec)
	assert.Equal(t, "High", got.Priority)
	assert.Equal(t, "Acme", got.ClientName)
}

func TestTransitionJob(t *testing.T) {
	router := newTestRouter(t)
	created := createScheduledJob(t, router, "Acme", "2024-05-01", "09:00", 1, "Ana")

	rec := doJSON(t, router, http.MethodPost, "/jobs/"+created.ID+"/transition", TransitionRequest{Status: "Traveling"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Traveling", decodeJob(t, rec).Status)

	// Traveling cannot jump straight to Completed.
	rec = doJSON(t, router, http.MethodPost, "/jobs/"+created.ID+"/transition", TransitionRequest{Status: "Completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TRANSITION")

	rec = doJSON(t, router, http.MethodPost, "/jobs/"+created.ID+"/transition", TransitionRequest{Status: "Archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_STATUS")
}

func TestScheduleJob_MoveAndConflict(t *testing.T) {
	router := newTestRouter(t)
	first := createScheduledJob(t, router, "Acme", "2024-05-01", "10:00", 1, "Ana")
	second := createScheduledJob(t, router, "Beta", "2024-05-01", "14:00", 1, "Ana")

	hours := 1.0

	// Moving the second job onto the first is refused.
	rec := doJSON(t, router, http.MethodPut, "/jobs/"+second.ID+"/schedule", ScheduleRequest{
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:30",
		EstimatedDuration: &hours,
		AssignedTo:        "Ana",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// Nudging the first job within its own slot is fine.
	rec = doJSON(t, router, http.MethodPut, "/jobs/"+first.ID+"/schedule", ScheduleRequest{
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:15",
		EstimatedDuration: &hours,
		AssignedTo:        "Ana",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "10:15", decodeJob(t, rec).ScheduledTime)
}

func TestCheckConflicts_DryRun(t *testing.T) {
	router := newTestRouter(t)
	created := createScheduledJob(t, router, "Acme", "2024-05-01", "10:00", 1, "Ana")

	rec := doJSON(t, router, http.MethodPost, "/schedule/conflicts", ConflictCheckRequest{
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:30",
		EstimatedDuration: 1,
		AssignedTo:        "Ana",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConflictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasOverlap)

	// Excluding the booked job itself reports a clear slot.
	rec = doJSON(t, router, http.MethodPost, "/schedule/conflicts", ConflictCheckRequest{
		ServiceDate:       "2024-05-01",
		ScheduledTime:     "10:30",
		EstimatedDuration: 1,
		AssignedTo:        "Ana",
		ExcludeID:         created.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.HasOverlap)

	// An incomplete candidate is a valid no-conflict dry run.
	rec = doJSON(t, router, http.MethodPost, "/schedule/conflicts", ConflictCheckRequest{
		ServiceDate: "2024-05-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.HasOverlap)
}

func TestCalendarDays(t *testing.T) {
	router := newTestRouter(t)

	// 2024-05-01 is a Wednesday; its week runs Monday 04-29 to Sunday 05-05.
	rec := doJSON(t, router, http.MethodGet, "/schedule/days?date=2024-05-01&view=week", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DaysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 7)
	assert.Equal(t, "2024-04-29", resp.Days[0])
	assert.Equal(t, "2024-05-05", resp.Days[6])

	rec = doJSON(t, router, http.MethodGet, "/schedule/days?date=2024-05-01&view=month", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Days, 35)

	rec = doJSON(t, router, http.MethodGet, "/schedule/days?date=2024-05-01&view=quarter", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_VIEW")

	rec = doJSON(t, router, http.MethodGet, "/schedule/days?date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_DATE")
}

func TestDaySlots(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/schedule/slots?date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-05-01", resp.Date)
	// 08:00 to 20:00 in half-hour steps.
	require.Len(t, resp.Slots, 24)
	assert.Equal(t, "08:00", resp.Slots[0].Time)
	assert.Equal(t, "19:30", resp.Slots[23].Time)
}

func TestDayOccupancy(t *testing.T) {
	router := newTestRouter(t)
	createScheduledJob(t, router, "Acme", "2024-05-01", "10:00", 1.25, "Ana")
	createScheduledJob(t, router, "Beta", "2024-05-01", "09:00", 1, "Luis")

	rec := doJSON(t, router, http.MethodGet, "/schedule/occupancy?date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OccupancyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Occupied, 2)
	// Sorted by start time.
	assert.Equal(t, "Beta", resp.Occupied[0].ClientLabel)
	assert.Equal(t, "Acme", resp.Occupied[1].ClientLabel)
	// The 1.25h booking spans three display segments, last one clipped.
	require.Len(t, resp.Occupied[1].Segments, 3)
	assert.Equal(t, SegmentResponse{Start: "10:00", End: "10:30"}, resp.Occupied[1].Segments[0])
	assert.Equal(t, SegmentResponse{Start: "11:00", End: "11:15"}, resp.Occupied[1].Segments[2])

	// Worker filter.
	rec = doJSON(t, router, http.MethodGet, "/schedule/occupancy?date=2024-05-01&worker=Ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Occupied, 1)
	assert.Equal(t, "Acme", resp.Occupied[0].ClientLabel)
}

func TestDeleteJob(t *testing.T) {
	router := newTestRouter(t)
	created := createScheduledJob(t, router, "Acme", "2024-05-01", "09:00", 1, "Ana")

	rec := doJSON(t, router, http.MethodDelete, "/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	echo := httptest.NewRecorder()
	router.ServeHTTP(echo, req)
	assert.Equal(t, "fixed-id", echo.Header().Get("X-Request-ID"))
}

func ptr[T any](v T) *T { return &v }

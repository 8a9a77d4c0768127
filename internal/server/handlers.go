package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldops/dispatch-api/internal/job"
	"github.com/fieldops/dispatch-api/internal/schedule"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.DispatchService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance. Two custom validation tags
// are registered: "clock" for "HH:MM" strings and "localdate" for ISO date
// strings, both delegating to the scheduling core's parsers so the API
// rejects exactly what the core would.
func NewHandlers(service *job.DispatchService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := schedule.TimeToMinutes(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("localdate", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseLocalDate(fl.Field().String())
		return err == nil
	})

	return &Handlers{
		service:   service,
		validator: v,
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateJob handles POST /jobs requests. A schedule conflict is a 409 with
// the colliding bookings in the body; the client may retry with force=true
// after the dispatcher confirms.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.CreateJob(r.Context(), job.CreateJobInput{
		ClientName:        req.ClientName,
		ClientAddress:     req.ClientAddress,
		Description:       req.Description,
		ServiceDate:       req.ServiceDate,
		ScheduledTime:     req.ScheduledTime,
		EstimatedDuration: req.EstimatedDuration,
		AssignedTo:        req.AssignedTo,
		Priority:          req.Priority,
		Force:             req.Force,
	})
	if err != nil {
		h.writeServiceError(w, err, "JOB_CREATION_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, toJobResponse(created))
}

// ListJobs handles GET /jobs requests with optional status, assigned_to
// and q filters.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	f := job.Filter{
		AssignedTo: r.URL.Query().Get("assigned_to"),
		Query:      r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := job.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown status filter", "UNKNOWN_STATUS")
			return
		}
		f.Status = status
	}

	jobs, err := h.service.ListJobs(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(jobs)), Count: len(jobs)}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, err, "JOB_FETCH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(found))
}

// UpdateJob handles PATCH /jobs/{id} requests for detail fields.
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req UpdateJobRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateJob(r.Context(), r.PathValue("id"), job.UpdateJobInput{
		ClientName:    req.ClientName,
		ClientAddress: req.ClientAddress,
		Description:   req.Description,
		Priority:      req.Priority,
	})
	if err != nil {
		h.writeServiceError(w, err, "JOB_UPDATE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(updated))
}

// DeleteJob handles DELETE /jobs/{id} requests.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err, "JOB_DELETE_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransitionJob handles POST /jobs/{id}/transition requests.
func (h *Handlers) TransitionJob(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	status, err := job.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown status", "UNKNOWN_STATUS")
		return
	}

	updated, err := h.service.Transition(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.writeServiceError(w, err, "JOB_TRANSITION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(updated))
}

// ScheduleJob handles PUT /jobs/{id}/schedule requests: the backend of a
// calendar drag-and-drop or the edit form's schedule fields.
func (h *Handlers) ScheduleJob(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	moved, err := h.service.Reschedule(r.Context(), r.PathValue("id"), job.RescheduleInput{
		ServiceDate:       req.ServiceDate,
		ScheduledTime:     req.ScheduledTime,
		EstimatedDuration: req.EstimatedDuration,
		AssignedTo:        req.AssignedTo,
		Force:             req.Force,
	})
	if err != nil {
		h.writeServiceError(w, err, "JOB_SCHEDULE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(moved))
}

// CheckConflicts handles POST /schedule/conflicts requests, the dry-run
// check forms issue before saving.
func (h *Handlers) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req ConflictCheckRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.service.CheckConflicts(r.Context(), schedule.Candidate{
		Date:          req.ServiceDate,
		StartTime:     req.ScheduledTime,
		DurationHours: req.EstimatedDuration,
		AssignedTo:    req.AssignedTo,
	}, req.ExcludeID)
	if err != nil {
		h.logger.Error("conflict check failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "conflict check failed", "CONFLICT_CHECK_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toConflictResponse(res))
}

// CalendarDays handles GET /schedule/days?date=&view= requests.
func (h *Handlers) CalendarDays(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	view := schedule.ViewMode(r.URL.Query().Get("view"))
	if view == "" {
		view = schedule.ViewDay
	}
	if !view.IsValid() {
		writeError(w, http.StatusBadRequest, "view must be day, week or month", "INVALID_VIEW")
		return
	}

	days := schedule.BuildDays(ref, view)
	resp := DaysResponse{View: string(view), Days: make([]string, len(days))}
	for i, d := range days {
		resp.Days[i] = schedule.DateKey(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// DaySlots handles GET /schedule/slots?date= requests.
func (h *Handlers) DaySlots(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	slots, _, err := h.service.DaySchedule(r.Context(), ref, "")
	if err != nil {
		h.logger.Error("failed to build slots", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to build slots", "SLOTS_FAILED")
		return
	}

	resp := SlotsResponse{Date: schedule.DateKey(ref), Slots: make([]SlotResponse, len(slots))}
	for i, s := range slots {
		resp.Slots[i] = SlotResponse{ID: s.ID, Time: s.Time, DateKey: s.DateKey}
	}
	writeJSON(w, http.StatusOK, resp)
}

// DayOccupancy handles GET /schedule/occupancy?date=&worker= requests.
func (h *Handlers) DayOccupancy(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	worker := r.URL.Query().Get("worker")

	_, occupied, err := h.service.DaySchedule(r.Context(), ref, worker)
	if err != nil {
		h.logger.Error("failed to build occupancy", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to build occupancy", "OCCUPANCY_FAILED")
		return
	}

	resp := OccupancyResponse{
		Date:     schedule.DateKey(ref),
		Worker:   worker,
		Occupied: make([]OccupiedResponse, len(occupied)),
	}
	for i, occ := range occupied {
		dur := occ.Duration
		segments := schedule.SegmentsFor(schedule.Job{
			ScheduledTime:     occ.Start,
			EstimatedDuration: &dur,
		})
		segResp := make([]SegmentResponse, len(segments))
		for k, seg := range segments {
			segResp[k] = SegmentResponse{Start: seg.Start, End: seg.End}
		}
		resp.Occupied[i] = OccupiedResponse{
			Start:       occ.Start,
			End:         occ.End,
			JobID:       occ.JobID,
			ClientLabel: occ.ClientLabel,
			Duration:    occ.Duration,
			Priority:    occ.Priority,
			Segments:    segResp,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeAndValidate decodes the JSON body into dst and validates it,
// writing the error response itself when either step fails.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// dateParam reads the "date" query parameter, defaulting to today when
// absent. The handler layer is the only place "now" is read; everything
// below takes the date as an argument.
func (h *Handlers) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}
	ref, err := schedule.ParseLocalDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be an ISO date", "INVALID_DATE")
		return time.Time{}, false
	}
	return ref, true
}

// writeServiceError maps service errors onto HTTP statuses: not-found to
// 404, schedule conflicts and refused transitions to 409, anything else to
// 500 with the given code.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, code string) {
	var conflict *job.ConflictError
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, struct {
			ErrorResponse
			Conflicts ConflictResponse `json:"conflicts"`
		}{
			ErrorResponse: ErrorResponse{Error: conflict.Error(), Code: "SCHEDULE_CONFLICT"},
			Conflicts:     toConflictResponse(schedule.Result{HasOverlap: true, Overlapping: conflict.Overlapping}),
		})
	case errors.Is(err, job.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid state transition", "INVALID_TRANSITION")
	default:
		h.logger.Error("request failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error", code)
	}
}

// toJobResponse converts a domain job to its HTTP representation.
func toJobResponse(j *job.Job) JobResponse {
	c := j.Clone()
	resp := JobResponse{
		ID:                c.ID,
		ClientName:        c.ClientName,
		ClientAddress:     c.ClientAddress,
		Description:       c.Description,
		ServiceDate:       c.ServiceDate,
		ScheduledTime:     c.ScheduledTime,
		EstimatedDuration: c.EstimatedDuration,
		AssignedTo:        c.AssignedTo,
		Status:            string(c.Status),
		Priority:          c.Priority,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
	if !c.CompletedAt.IsZero() {
		resp.CompletedAt = c.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// toConflictResponse converts an overlap result, computing each colliding
// booking's end time for the warning text.
func toConflictResponse(res schedule.Result) ConflictResponse {
	resp := ConflictResponse{
		HasOverlap:  res.HasOverlap,
		Overlapping: make([]ConflictingJob, 0, len(res.Overlapping)),
	}
	for _, j := range res.Overlapping {
		cj := ConflictingJob{JobID: j.ID, ClientName: j.ClientName, Start: j.ScheduledTime}
		if j.EstimatedDuration != nil {
			if end, err := schedule.AddHours(j.ScheduledTime, *j.EstimatedDuration); err == nil {
				cj.End = end
			}
		}
		resp.Overlapping = append(resp.Overlapping, cj)
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

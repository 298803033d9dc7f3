package tracker

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=tracker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/coachai/internal/apperrors"
	"github.com/2beens/coachai/internal/gymstats/profile"
	"github.com/2beens/coachai/internal/gymstats/sessions"
	"github.com/2beens/coachai/internal/telemetry/tracing"
	"github.com/2beens/coachai/pkg"

	log "github.com/sirupsen/logrus"
)

const (
	maxAnalysisPayloadBytes = 1 << 20
	maxVideoBytes           = 256 << 20
	defaultSessionsLimit    = 20

	idempotencyKeyHeader = "Idempotency-Key"
)

type trackerService interface {
	Profile() (profile.Profile, error)
	Dashboard() (Dashboard, error)
	Sessions() ([]sessions.Session, error)
	UpcomingWorkouts() ([]profile.ScheduledWorkout, error)
	WriteReport(w io.Writer) error
	IngestOnce(ctx context.Context, key string, raw []byte) (profile.Profile, sessions.Session, bool, error)
	IngestVideoOnce(ctx context.Context, key string, video io.Reader, mimeType string) (profile.Profile, sessions.Session, bool, error)
	LogManualActivity(ctx context.Context, a profile.ManualActivity) (profile.Profile, error)
	UpdateWeight(ctx context.Context, weight float64) (profile.Profile, error)
	ScheduleWorkout(ctx context.Context, w profile.ScheduledWorkout) (profile.Profile, error)
}

type IngestResponse struct {
	Profile profile.Profile  `json:"profile"`
	Session sessions.Session `json:"session"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type WeightUpdateRequest struct {
	Weight *float64 `json:"weight"`
}

type SessionsListResponse struct {
	Sessions []sessions.Session `json:"sessions"`
	Total    int                `json:"total"`
}

type Handler struct {
	tracker trackerService
}

func NewHandler(tracker trackerService) *Handler {
	return &Handler{
		tracker: tracker,
	}
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	p, err := handler.tracker.Profile()
	if err != nil {
		writeError(w, "get profile", err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusOK)
}

func (handler *Handler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.dashboard")
	defer span.End()

	d, err := handler.tracker.Dashboard()
	if err != nil {
		writeError(w, "get dashboard", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (handler *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analysis.ingest")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}
	key, ok := idempotencyKey(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAnalysisPayloadBytes+1))
	if err != nil {
		log.Errorf("ingest analysis, read body: %s", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(raw) > maxAnalysisPayloadBytes {
		http.Error(w, "analysis payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	p, session, replayed, err := handler.tracker.IngestOnce(ctx, key, raw)
	if err != nil {
		writeError(w, "ingest analysis", err)
		return
	}

	log.Debugf("analysis ingested as session %s, replayed: %t", session.ID, replayed)
	writeIngestResponse(w, p, session, replayed)
}

func (handler *Handler) HandleIngestVideo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analysis.video")
	defer span.End()

	mimeType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mimeType, "video/") {
		http.Error(w, "invalid content type, expected a video", http.StatusUnsupportedMediaType)
		return
	}
	key, ok := idempotencyKey(w, r)
	if !ok {
		return
	}

	video := http.MaxBytesReader(w, r.Body, maxVideoBytes)
	p, session, replayed, err := handler.tracker.IngestVideoOnce(ctx, key, video, mimeType)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "video too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "ingest video", err)
		return
	}

	writeIngestResponse(w, p, session, replayed)
}

// idempotencyKey reads the optional key of a retryable upload. Writes the error response when it is invalid.
func idempotencyKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if len(key) > MaxIdempotencyKeyLen {
		pkg.WriteJSON(w, ErrorResponse{
			Error: "must not be longer than " + strconv.Itoa(MaxIdempotencyKeyLen) + " bytes",
			Field: idempotencyKeyHeader,
		}, http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// writeIngestResponse answers 201 for a new session and 200 when a retry got the stored one.
func writeIngestResponse(w http.ResponseWriter, p profile.Profile, session sessions.Session, replayed bool) {
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	pkg.WriteJSON(w, IngestResponse{Profile: p, Session: session}, status)
}

func (handler *Handler) HandleLogActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.log")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var activity profile.ManualActivity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		log.Errorf("log activity, unmarshal json params: %s", err)
		http.Error(w, "log activity failed", http.StatusBadRequest)
		return
	}

	p, err := handler.tracker.LogManualActivity(ctx, activity)
	if err != nil {
		writeError(w, "log activity", err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusCreated)
}

func (handler *Handler) HandleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.update")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req WeightUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update weight, unmarshal json params: %s", err)
		http.Error(w, "update weight failed", http.StatusBadRequest)
		return
	}
	if req.Weight == nil {
		writeError(w, "update weight", apperrors.NewValidationError("weight", "is required"))
		return
	}

	p, err := handler.tracker.UpdateWeight(ctx, *req.Weight)
	if err != nil {
		writeError(w, "update weight", err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusOK)
}

func (handler *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.add")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout profile.ScheduledWorkout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Errorf("schedule workout, unmarshal json params: %s", err)
		http.Error(w, "schedule workout failed", http.StatusBadRequest)
		return
	}

	p, err := handler.tracker.ScheduleWorkout(ctx, workout)
	if err != nil {
		writeError(w, "schedule workout", err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusCreated)
}

func (handler *Handler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedule.upcoming")
	defer span.End()

	workouts, err := handler.tracker.UpcomingWorkouts()
	if err != nil {
		writeError(w, "upcoming workouts", err)
		return
	}
	pkg.WriteJSON(w, workouts, http.StatusOK)
}

func (handler *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	limit := defaultSessionsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			http.Error(w, "error, limit must be a positive number", http.StatusBadRequest)
			return
		}
	}

	history, err := handler.tracker.Sessions()
	if err != nil {
		writeError(w, "list sessions", err)
		return
	}

	resp := SessionsListResponse{Total: len(history)}
	if limit < len(history) {
		history = history[:limit]
	}
	resp.Sessions = history
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.report")
	defer span.End()

	var buf bytes.Buffer
	if err := handler.tracker.WriteReport(&buf); err != nil {
		writeError(w, "write report", err)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.Text, buf.Bytes(), http.StatusOK)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == pkg.ContentType.JSON
}

// writeError maps domain errors to status codes. Validation failures carry the offending field.
func writeError(w http.ResponseWriter, op string, err error) {
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Debugf("%s: %s", op, err)
		pkg.WriteJSON(w, ErrorResponse{Error: validationErr.Reason, Field: validationErr.Field}, http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrNotFound):
		log.Warnf("%s: %s", op, err)
		pkg.WriteJSON(w, ErrorResponse{Error: err.Error()}, http.StatusServiceUnavailable)
	case errors.Is(err, ErrInferenceDisabled):
		pkg.WriteJSON(w, ErrorResponse{Error: err.Error()}, http.StatusNotImplemented)
	default:
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSON(w, ErrorResponse{Error: "internal error"}, http.StatusInternalServerError)
	}
}

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/coachai/internal/apperrors"
	"github.com/2beens/coachai/internal/calendar"
	"github.com/2beens/coachai/internal/gymstats/analysis"
	"github.com/2beens/coachai/internal/gymstats/badges"
	"github.com/2beens/coachai/internal/gymstats/profile"
	"github.com/2beens/coachai/internal/gymstats/series"
	"github.com/2beens/coachai/internal/gymstats/sessions"
	"github.com/2beens/coachai/internal/report"
	"github.com/2beens/coachai/internal/storage"
	"github.com/2beens/coachai/internal/telemetry/metrics"
	"github.com/2beens/coachai/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"
)

const (
	dashboardCalorieDays  = 7
	dashboardWeightPoints = 10
)

var ErrInferenceDisabled = errors.New("video inference is not configured")

// ErrReadOnly is returned by mutations of a tracker created with Params.ReadOnly.
var ErrReadOnly = errors.New("tracker is read only")

// errReplayed stops a mutation whose idempotency key already produced a session.
var errReplayed = errors.New("already ingested")

type videoAnalyzer interface {
	Analyze(ctx context.Context, video io.Reader, mimeType string) ([]byte, error)
}

// Params wires a Tracker. Inference is optional, without it IngestVideo
// fails with ErrInferenceDisabled. Without Replays idempotency keys are ignored.
// A ReadOnly tracker never writes to KV, not even the default profile on Load.
type Params struct {
	KV          storage.KV
	Engine      *profile.Engine
	Clock       calendar.Clock
	Metrics     *metrics.Manager // required
	ProfileID   string
	ProfileName string // given to the default profile created on first start
	Inference   videoAnalyzer
	Replays     *ReplayCache
	ReadOnly    bool
}

// snapshot is one committed state: the profile and the session history
// that were persisted together.
type snapshot struct {
	profile  profile.Profile
	sessions sessions.Store
}

// Tracker owns the profile and its session history. Mutations are serialized,
// persisted, and only then published to readers.
type Tracker struct {
	kv          storage.KV
	engine      *profile.Engine
	clock       calendar.Clock
	metrics     *metrics.Manager
	profileID   string
	profileName string
	inference   videoAnalyzer
	replays     *ReplayCache
	readOnly    bool

	mutex   sync.Mutex
	current atomic.Pointer[snapshot]
}

func New(params Params) *Tracker {
	clock := params.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	engine := params.Engine
	if engine == nil {
		engine = profile.NewEngine(clock, nil)
	}
	return &Tracker{
		kv:          params.KV,
		engine:      engine,
		clock:       clock,
		metrics:     params.Metrics,
		profileID:   params.ProfileID,
		profileName: params.ProfileName,
		inference:   params.Inference,
		replays:     params.Replays,
		readOnly:    params.ReadOnly,
	}
}

// Load reads the persisted state. Missing or unreadable records fall back to a
// default profile and an empty history, which are then written back unless the
// tracker is read only.
func (t *Tracker) Load(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	t.mutex.Lock()
	defer t.mutex.Unlock()

	p, profileFound, err := t.readProfile(ctx)
	if err != nil {
		return err
	}
	history, err := t.readSessions(ctx)
	if err != nil {
		return err
	}

	dirty := !profileFound
	if !profileFound {
		p = t.engine.Default(t.profileID)
		p.Name = t.profileName
		log.Infof("no stored profile, starting with a default one [%s]", p.ID)
	}

	refreshed := t.engine.Refresh(p)
	if refreshed.Streak != p.Streak || refreshed.Program != p.Program {
		log.Debugf("profile refreshed on load: streak %d -> %d", p.Streak, refreshed.Streak)
		dirty = true
	}

	loaded := &snapshot{
		profile:  refreshed,
		sessions: history,
	}
	if dirty && t.readOnly {
		log.Debugln("read only tracker, loaded profile is not written back")
	} else if dirty {
		if err := t.persist(ctx, loaded, loaded, !profileFound); err != nil {
			return fmt.Errorf("persist loaded profile: %w", err)
		}
	}

	t.publish(loaded)
	return nil
}

func (t *Tracker) readProfile(ctx context.Context) (profile.Profile, bool, error) {
	raw, found, err := t.kv.Get(ctx, storage.ProfileKey)
	if err != nil {
		t.metrics.CounterStorageErrors.WithLabelValues("get").Inc()
		return profile.Profile{}, false, fmt.Errorf("read profile: %w", err)
	}
	if !found {
		return profile.Profile{}, false, nil
	}

	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Warnf("stored profile is corrupt, ignoring it: %s", err)
		return profile.Profile{}, false, nil
	}
	if p.ID == "" {
		log.Warn("stored profile has no id, ignoring it")
		return profile.Profile{}, false, nil
	}
	return p, true, nil
}

func (t *Tracker) readSessions(ctx context.Context) (sessions.Store, error) {
	raw, found, err := t.kv.Get(ctx, storage.SessionsKey)
	if err != nil {
		t.metrics.CounterStorageErrors.WithLabelValues("get").Inc()
		return sessions.Store{}, fmt.Errorf("read sessions: %w", err)
	}
	if !found {
		return sessions.NewStore(nil), nil
	}

	var list []sessions.Session
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Warnf("stored sessions are corrupt, ignoring them: %s", err)
		return sessions.NewStore(nil), nil
	}
	return sessions.NewStore(list), nil
}

func (t *Tracker) snapshot() (*snapshot, error) {
	s := t.current.Load()
	if s == nil {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (t *Tracker) publish(s *snapshot) {
	t.current.Store(s)
	t.metrics.GaugeCurrentStreak.Set(float64(s.profile.Streak))
}

// Profile returns the last committed profile.
func (t *Tracker) Profile() (profile.Profile, error) {
	s, err := t.snapshot()
	if err != nil {
		return profile.Profile{}, err
	}
	return s.profile.Clone(), nil
}

// Sessions returns the session history, most recent first.
func (t *Tracker) Sessions() ([]sessions.Session, error) {
	s, err := t.snapshot()
	if err != nil {
		return nil, err
	}
	return s.sessions.All(), nil
}

type Dashboard struct {
	Streak           int                        `json:"streak"`
	TotalCalories    float64                    `json:"total_calories"`
	TotalHours       float64                    `json:"total_hours"`
	Badges           []BadgeView                `json:"badges"`
	Program          string                     `json:"program"`
	RecentCalories   series.Series              `json:"recent_calories"`
	RecentWeights    series.Series              `json:"recent_weights"`
	UpcomingWorkouts []profile.ScheduledWorkout `json:"upcoming_workouts"`
	LatestSessionID  string                     `json:"latest_session_id,omitempty"`
	SessionCount     int                        `json:"session_count"`
	ManualActivities int                        `json:"manual_activity_count"`
	LastActivityAt   *time.Time                 `json:"last_activity_at,omitempty"`
}

type BadgeView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Dashboard summarizes the profile with the recent series windows.
func (t *Tracker) Dashboard() (Dashboard, error) {
	s, err := t.snapshot()
	if err != nil {
		return Dashboard{}, err
	}

	p := s.profile
	badgeViews := make([]BadgeView, 0, len(p.Badges))
	for _, id := range p.Badges {
		badgeViews = append(badgeViews, BadgeView{ID: string(id), Title: badges.Title(id)})
	}

	d := Dashboard{
		Streak:           p.Streak,
		TotalCalories:    p.TotalCalories,
		TotalHours:       p.TotalHours,
		Badges:           badgeViews,
		Program:          p.Program,
		RecentCalories:   p.DailyCalories.Last(dashboardCalorieDays),
		RecentWeights:    p.WeightHistory.Last(dashboardWeightPoints),
		UpcomingWorkouts: t.engine.UpcomingWorkouts(p, t.clock.Now()),
		SessionCount:     s.sessions.Len(),
		ManualActivities: len(p.ManualActivities),
		LastActivityAt:   p.LastActivityAt,
	}
	if latest := s.sessions.Latest(1); len(latest) == 1 {
		d.LatestSessionID = latest[0].ID
	}
	return d, nil
}

// UpcomingWorkouts lists scheduled workouts that have not started yet, soonest first.
func (t *Tracker) UpcomingWorkouts() ([]profile.ScheduledWorkout, error) {
	s, err := t.snapshot()
	if err != nil {
		return nil, err
	}
	return t.engine.UpcomingWorkouts(s.profile, t.clock.Now()), nil
}

// WriteReport renders the plain text progress report of the current state.
func (t *Tracker) WriteReport(w io.Writer) error {
	s, err := t.snapshot()
	if err != nil {
		return err
	}
	now := t.clock.Now().In(t.engine.Location())
	return report.Render(w, s.profile, s.sessions.All(), now)
}

// Ingest validates a raw analysis payload and folds it into the profile as a new session.
// An invalid payload changes nothing.
func (t *Tracker) Ingest(ctx context.Context, raw []byte) (profile.Profile, sessions.Session, error) {
	p, session, _, err := t.IngestOnce(ctx, "", raw)
	return p, session, err
}

// IngestOnce is Ingest for requests carrying an idempotency key. When the key
// already produced a session, that session and the current profile are
// returned with replayed set, and nothing is ingested.
func (t *Tracker) IngestOnce(
	ctx context.Context,
	key string,
	raw []byte,
) (_ profile.Profile, _ sessions.Session, replayed bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.ingest")
	span.SetAttributes(attribute.Int("payload.size", len(raw)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if p, session, ok := t.replayed(key); ok {
		return p, session, true, nil
	}

	start := time.Now()
	defer func() {
		t.metrics.HistogramIngestionDuration.Observe(time.Since(start).Seconds())
	}()

	var result analysis.Result
	switch verdict := analysis.Validate(raw).(type) {
	case analysis.Invalid:
		t.metrics.CounterRejectedPayloads.WithLabelValues("analysis").Inc()
		log.Debugf("rejected analysis payload, field [%s]: %s", verdict.Field, verdict.Reason)
		return profile.Profile{}, sessions.Session{}, false, verdict.Err()
	case analysis.Valid:
		result = verdict.Result
	default:
		return profile.Profile{}, sessions.Session{}, false, fmt.Errorf("unexpected verdict %T", verdict)
	}

	var session sessions.Session
	committed, err := t.mutate(ctx, func(cur snapshot) (snapshot, bool, error) {
		// checked again under the lock, a concurrent retry may have won
		if existing, ok := t.replayedIn(cur, key); ok {
			session = existing
			return cur, false, errReplayed
		}

		next, err := t.engine.ApplyAnalysisResult(cur.profile, result)
		if err != nil {
			return cur, false, err
		}
		session = sessions.New(result, t.clock)
		if key != "" && t.replays != nil {
			t.replays.remember(key, session.ID)
		}
		return snapshot{
			profile:  next,
			sessions: cur.sessions.Prepend(session),
		}, true, nil
	})
	if errors.Is(err, errReplayed) {
		t.metrics.CounterReplayedIngestions.Inc()
		cur, err := t.snapshot()
		if err != nil {
			return profile.Profile{}, sessions.Session{}, false, err
		}
		return cur.profile.Clone(), session, true, nil
	}
	if err != nil {
		return profile.Profile{}, sessions.Session{}, false, err
	}

	t.metrics.CounterIngestions.Inc()
	span.SetAttributes(attribute.String("session.id", session.ID))
	log.Debugf("analysis session %s ingested, streak %d", session.ID, committed.profile.Streak)

	return committed.profile.Clone(), session, false, nil
}

// IngestVideo sends the video to the inference service and ingests its answer.
func (t *Tracker) IngestVideo(ctx context.Context, video io.Reader, mimeType string) (profile.Profile, sessions.Session, error) {
	p, session, _, err := t.IngestVideoOnce(ctx, "", video, mimeType)
	return p, session, err
}

// IngestVideoOnce is IngestVideo for requests carrying an idempotency key.
// A replayed key never reaches the inference service.
func (t *Tracker) IngestVideoOnce(
	ctx context.Context,
	key string,
	video io.Reader,
	mimeType string,
) (profile.Profile, sessions.Session, bool, error) {
	if t.inference == nil {
		return profile.Profile{}, sessions.Session{}, false, ErrInferenceDisabled
	}
	if t.readOnly {
		return profile.Profile{}, sessions.Session{}, false, ErrReadOnly
	}
	if _, err := t.snapshot(); err != nil {
		return profile.Profile{}, sessions.Session{}, false, err
	}
	if p, session, ok := t.replayed(key); ok {
		return p, session, true, nil
	}

	raw, err := t.inference.Analyze(ctx, video, mimeType)
	if err != nil {
		return profile.Profile{}, sessions.Session{}, false, fmt.Errorf("analyze video: %w", err)
	}
	return t.IngestOnce(ctx, key, raw)
}

// replayed looks the key up against the last committed snapshot.
func (t *Tracker) replayed(key string) (profile.Profile, sessions.Session, bool) {
	cur := t.current.Load()
	if cur == nil {
		return profile.Profile{}, sessions.Session{}, false
	}
	session, ok := t.replayedIn(*cur, key)
	if !ok {
		return profile.Profile{}, sessions.Session{}, false
	}
	t.metrics.CounterReplayedIngestions.Inc()
	log.Debugf("ingestion key [%s] already produced session %s", key, session.ID)
	return cur.profile.Clone(), session, true
}

// replayedIn finds the session the key produced. A remembered key whose session
// never got committed does not count.
func (t *Tracker) replayedIn(s snapshot, key string) (sessions.Session, bool) {
	if key == "" || t.replays == nil {
		return sessions.Session{}, false
	}
	id, ok := t.replays.sessionID(key)
	if !ok {
		return sessions.Session{}, false
	}
	return s.sessions.Get(id)
}

func (t *Tracker) LogManualActivity(ctx context.Context, a profile.ManualActivity) (_ profile.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.activity.log")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	committed, err := t.mutate(ctx, func(cur snapshot) (snapshot, bool, error) {
		next, err := t.engine.ApplyManualActivity(cur.profile, a)
		if err != nil {
			return cur, false, err
		}
		return snapshot{profile: next, sessions: cur.sessions}, false, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			t.metrics.CounterRejectedPayloads.WithLabelValues("activity").Inc()
		}
		return profile.Profile{}, err
	}

	t.metrics.CounterManualActivities.Inc()
	return committed.profile.Clone(), nil
}

func (t *Tracker) UpdateWeight(ctx context.Context, weight float64) (_ profile.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.weight.update")
	span.SetAttributes(attribute.Float64("weight", weight))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	committed, err := t.mutate(ctx, func(cur snapshot) (snapshot, bool, error) {
		next, err := t.engine.ApplyWeightUpdate(cur.profile, weight)
		if err != nil {
			return cur, false, err
		}
		return snapshot{profile: next, sessions: cur.sessions}, false, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			t.metrics.CounterRejectedPayloads.WithLabelValues("weight").Inc()
		}
		return profile.Profile{}, err
	}

	t.metrics.CounterWeightUpdates.Inc()
	return committed.profile.Clone(), nil
}

func (t *Tracker) ScheduleWorkout(ctx context.Context, w profile.ScheduledWorkout) (_ profile.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.schedule.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	committed, err := t.mutate(ctx, func(cur snapshot) (snapshot, bool, error) {
		next, err := t.engine.ApplySchedule(cur.profile, w)
		if err != nil {
			return cur, false, err
		}
		return snapshot{profile: next, sessions: cur.sessions}, false, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			t.metrics.CounterRejectedPayloads.WithLabelValues("schedule").Inc()
		}
		return profile.Profile{}, err
	}

	t.metrics.CounterScheduledWorkouts.Inc()
	return committed.profile.Clone(), nil
}

// mutate runs apply against the latest committed snapshot while holding the
// mutation lock. The result is persisted before it becomes visible to readers.
func (t *Tracker) mutate(
	ctx context.Context,
	apply func(cur snapshot) (next snapshot, sessionsChanged bool, err error),
) (*snapshot, error) {
	if t.readOnly {
		return nil, ErrReadOnly
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	cur, err := t.snapshot()
	if err != nil {
		return nil, err
	}

	next, sessionsChanged, err := apply(*cur)
	if err != nil {
		return nil, err
	}

	if err := t.persist(ctx, cur, &next, sessionsChanged); err != nil {
		return nil, err
	}

	t.publish(&next)
	return &next, nil
}

// persist writes the profile, together with the session history when it changed.
// Backends that can batch get both keys in one write. Otherwise the history is
// written first, and restored to prev if the profile write then fails.
func (t *Tracker) persist(ctx context.Context, prev, next *snapshot, sessionsChanged bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.persist")
	span.SetAttributes(attribute.Bool("sessions.changed", sessionsChanged))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	profileJSON, err := json.Marshal(next.profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if !sessionsChanged {
		if err := t.kv.Set(ctx, storage.ProfileKey, profileJSON); err != nil {
			t.metrics.CounterStorageErrors.WithLabelValues("set").Inc()
			return fmt.Errorf("write profile: %w", err)
		}
		return nil
	}

	sessionsJSON, err := json.Marshal(next.sessions.All())
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	if batch, ok := t.kv.(storage.BatchWriter); ok {
		if err := batch.SetMany(ctx, []storage.Entry{
			{Key: storage.SessionsKey, Value: sessionsJSON},
			{Key: storage.ProfileKey, Value: profileJSON},
		}); err != nil {
			t.metrics.CounterStorageErrors.WithLabelValues("set_many").Inc()
			return fmt.Errorf("write profile and sessions: %w", err)
		}
		return nil
	}

	if err := t.kv.Set(ctx, storage.SessionsKey, sessionsJSON); err != nil {
		t.metrics.CounterStorageErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("write sessions: %w", err)
	}

	profileErr := t.kv.Set(ctx, storage.ProfileKey, profileJSON)
	if profileErr == nil {
		return nil
	}
	t.metrics.CounterStorageErrors.WithLabelValues("set").Inc()
	err = fmt.Errorf("write profile: %w", profileErr)

	prevJSON, marshalErr := json.Marshal(prev.sessions.All())
	if marshalErr != nil {
		return multierr.Append(err, fmt.Errorf("marshal previous sessions: %w", marshalErr))
	}
	if restoreErr := t.kv.Set(ctx, storage.SessionsKey, prevJSON); restoreErr != nil {
		t.metrics.CounterStorageErrors.WithLabelValues("restore").Inc()
		log.Errorf("restore sessions after failed profile write: %s", restoreErr)
		return multierr.Append(err, fmt.Errorf("restore sessions: %w", restoreErr))
	}
	log.Warnf("profile write failed, session history restored: %s", profileErr)

	return err
}

package command

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memStateRepo struct {
	mu     sync.Mutex
	states map[string]*gamification.UserGamificationState

	// failSavesWithConflict makes the next N saves fail with a conflict.
	failSavesWithConflict int
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[string]*gamification.UserGamificationState)}
}

func (r *memStateRepo) FindByUserID(_ context.Context, userID string) (*gamification.UserGamificationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[userID]
	if !ok {
		return nil, shared.ErrStateNotFound
	}
	copied := *state
	return &copied, nil
}

func (r *memStateRepo) Save(_ context.Context, state *gamification.UserGamificationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSavesWithConflict > 0 {
		r.failSavesWithConflict--
		return shared.ErrLedgerConflict
	}
	copied := *state
	copied.Version++
	r.states[state.UserID] = &copied
	return nil
}

func (r *memStateRepo) FindByOrganization(_ context.Context, organizationID string) ([]*gamification.UserGamificationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*gamification.UserGamificationState
	for _, s := range r.states {
		if s.OrganizationID == organizationID {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

type memEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*leaderboard.Entry
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: make(map[string]*leaderboard.Entry)}
}

func entryKey(userID, organizationID string) string {
	return userID + "/" + organizationID
}

func (r *memEntryRepo) FindByUser(_ context.Context, userID, organizationID string) (*leaderboard.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[entryKey(userID, organizationID)]
	if !ok {
		return nil, shared.ErrLedgerEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *memEntryRepo) FindByOrganization(_ context.Context, organizationID string) ([]*leaderboard.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*leaderboard.Entry
	for _, e := range r.entries {
		if e.OrganizationID == organizationID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memEntryRepo) Save(_ context.Context, entry *leaderboard.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	copied.Version++
	r.entries[entryKey(entry.UserID, entry.OrganizationID)] = &copied
	return nil
}

func (r *memEntryRepo) SaveRanks(_ context.Context, entries []*leaderboard.Entry, period leaderboard.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		stored, ok := r.entries[entryKey(e.UserID, e.OrganizationID)]
		if !ok {
			continue
		}
		stored.SetRank(period, e.RankFor(period))
	}
	return nil
}

type memBadgeRepo struct {
	mu     sync.Mutex
	badges map[string]*badge.Badge
}

func newMemBadgeRepo(badges ...*badge.Badge) *memBadgeRepo {
	r := &memBadgeRepo{badges: make(map[string]*badge.Badge)}
	for _, b := range badges {
		r.badges[b.ID] = b
	}
	return r
}

func (r *memBadgeRepo) FindByID(_ context.Context, badgeID string) (*badge.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.badges[badgeID]
	if !ok {
		return nil, shared.ErrBadgeNotFound
	}
	return b, nil
}

func (r *memBadgeRepo) FindActiveByOrganization(_ context.Context, organizationID string) ([]*badge.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*badge.Badge
	for _, b := range r.badges {
		if b.OrganizationID == organizationID && b.IsActive {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *memBadgeRepo) FindByOrganization(_ context.Context, organizationID string) ([]*badge.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*badge.Badge
	for _, b := range r.badges {
		if b.OrganizationID == organizationID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *memBadgeRepo) Save(_ context.Context, b *badge.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badges[b.ID] = b
	return nil
}

func (r *memBadgeRepo) IncrementTotalAwarded(_ context.Context, badgeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.badges[badgeID]; ok {
		b.TotalAwarded++
	}
	return nil
}

type memAwardRepo struct {
	mu     sync.Mutex
	awards map[string]*badge.Award
}

func newMemAwardRepo() *memAwardRepo {
	return &memAwardRepo{awards: make(map[string]*badge.Award)}
}

func awardKey(userID, badgeID string) string {
	return userID + "/" + badgeID
}

func (r *memAwardRepo) Create(_ context.Context, award *badge.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey(award.UserID, award.BadgeID)
	if _, exists := r.awards[key]; exists {
		return shared.ErrBadgeAlreadyAwarded
	}
	r.awards[key] = award
	return nil
}

func (r *memAwardRepo) FindByUser(_ context.Context, userID string) ([]*badge.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*badge.Award
	for _, a := range r.awards {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAwardRepo) BadgeIDsForUser(_ context.Context, userID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[string]bool)
	for _, a := range r.awards {
		if a.UserID == userID {
			result[a.BadgeID] = true
		}
	}
	return result, nil
}

// stateMetrics reads metrics straight from the state repo so that
// total_points and level_reached criteria see freshly credited rewards.
type stateMetrics struct {
	states      *memStateRepo
	courseCount int
	maxScore    int
	moduleCount int
	perfect     int
	completed   map[string]bool
	err         error
}

func (m *stateMetrics) HasCompletedCourse(_ context.Context, _, courseID string) (bool, error) {
	return m.completed[courseID], m.err
}
func (m *stateMetrics) CompletedCourseCount(context.Context, string) (int, error) {
	return m.courseCount, m.err
}
func (m *stateMetrics) MaxPassedAssessmentScore(context.Context, string) (int, error) {
	return m.maxScore, m.err
}
func (m *stateMetrics) CurrentPoints(ctx context.Context, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	state, err := m.states.FindByUserID(ctx, userID)
	if err != nil {
		return 0, nil
	}
	return int(state.Points), nil
}
func (m *stateMetrics) CurrentLevel(ctx context.Context, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	state, err := m.states.FindByUserID(ctx, userID)
	if err != nil {
		return 1, nil
	}
	return int(state.Level), nil
}
func (m *stateMetrics) CurrentStreak(ctx context.Context, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	state, err := m.states.FindByUserID(ctx, userID)
	if err != nil {
		return 0, nil
	}
	return state.Streak.Current, nil
}
func (m *stateMetrics) CompletedModuleCount(context.Context, string) (int, error) {
	return m.moduleCount, m.err
}
func (m *stateMetrics) PerfectScoreAttemptCount(context.Context, string) (int, error) {
	return m.perfect, m.err
}

type recordedNotification struct {
	UserID  string
	Kind    NotificationKind
	Payload map[string]interface{}
}

type fakeDispatcher struct {
	mu            sync.Mutex
	notifications []recordedNotification
	err           error
}

func (d *fakeDispatcher) Notify(_ context.Context, userID string, kind NotificationKind, payload map[string]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.notifications = append(d.notifications, recordedNotification{UserID: userID, Kind: kind, Payload: payload})
	return nil
}

func (d *fakeDispatcher) kinds() []NotificationKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]NotificationKind, len(d.notifications))
	for i, n := range d.notifications {
		kinds[i] = n.Kind
	}
	return kinds
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventTypes() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

// ══════════════════════════════════════════════════════════════════════════════
// HARNESS
// ══════════════════════════════════════════════════════════════════════════════

type harness struct {
	states     *memStateRepo
	entries    *memEntryRepo
	badges     *memBadgeRepo
	awards     *memAwardRepo
	metrics    *stateMetrics
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	ledger     *LedgerService

	award       *AwardPointsHandler
	checkBadges *CheckAndAwardBadgesHandler
	adjust      *AdjustPointsHandler
	activity    *RecordActivityHandler
	ranks       *RecomputeRanksHandler
	createBadge *CreateBadgeHandler
}

func newHarness(badges ...*badge.Badge) *harness {
	h := &harness{
		states:     newMemStateRepo(),
		entries:    newMemEntryRepo(),
		badges:     newMemBadgeRepo(badges...),
		awards:     newMemAwardRepo(),
		dispatcher: &fakeDispatcher{},
		publisher:  &fakePublisher{},
	}
	h.metrics = &stateMetrics{states: h.states, completed: make(map[string]bool)}

	log := testLogger()
	h.ledger = NewLedgerService(h.states, h.entries)
	evaluator := badge.NewEvaluator(h.metrics, log)
	idGen := &seqIDGen{}

	h.checkBadges = NewCheckAndAwardBadgesHandler(
		h.badges, h.awards, evaluator, h.ledger, idGen, h.dispatcher, h.publisher, log)
	h.award = NewAwardPointsHandler(h.ledger, h.checkBadges, h.dispatcher, h.publisher, log)
	h.adjust = NewAdjustPointsHandler(h.ledger, h.dispatcher, h.publisher, log)
	h.activity = NewRecordActivityHandler(h.states, h.publisher, log)
	h.ranks = NewRecomputeRanksHandler(h.entries, nil, h.publisher, log)
	h.createBadge = NewCreateBadgeHandler(h.badges, idGen, h.publisher, log)

	return h
}

func mustBadge(id, orgID, name string, criteria badge.Criteria, reward int) *badge.Badge {
	b, err := badge.NewBadge(id, orgID, name, criteria, badge.RarityCommon, reward)
	if err != nil {
		panic(err)
	}
	return b
}

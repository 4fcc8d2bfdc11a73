package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"
)

// Persistence is the server-side XP store.
type Persistence interface {
	// AddXP applies a delta and returns the new authoritative total.
	AddXP(ctx context.Context, userID string, gain XPGain) (int, error)
	// FetchXP returns the authoritative snapshot.
	FetchXP(ctx context.Context, userID string) (XPSnapshot, error)
}

// Journal caches history and unlocks locally. All calls are best-effort.
type Journal interface {
	SaveTask(ctx context.Context, userID string, t TaskRecord) error
	SaveUnlock(ctx context.Context, userID string, achievementID string, at time.Time) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Rewards are the fixed XP amounts granted by the engine.
type Rewards struct {
	TaskCompletion int
	PriorityBonus  int
	AllTasksDone   int
	DailyPenalty   int
}

// DefaultRewards returns the standard reward table.
func DefaultRewards() Rewards {
	return Rewards{
		TaskCompletion: 5,
		PriorityBonus:  5,
		AllTasksDone:   20,
		DailyPenalty:   10,
	}
}

const (
	ReasonTaskCompleted = "Tarefa concluída"
	ReasonAllTasksDone  = "Todas as tarefas do dia concluídas"
	ReasonAchievement   = "Conquista desbloqueada"
	ReasonDailyPenalty  = "Nenhuma tarefa concluída"
	ReasonServerSync    = "Sincronização"
)

// DefaultSyncInterval is how often Start reconciles with the server.
const DefaultSyncInterval = 30 * time.Second

type Options struct {
	UserID      string
	Levels      *LevelTable
	Catalog     []AchievementDefinition
	Plans       PlanProvider
	Persistence Persistence
	Journal     Journal
	Notifier    Notifier
	Logger      *log.Logger
	Clock       Clock
	Rand        *rand.Rand
	Rewards     *Rewards

	SyncInterval time.Duration
	// IOTimeout bounds each detached persistence or journal call.
	IOTimeout time.Duration
}

// Seed is the locally cached state a session starts from. A nil Plan means
// no plan was cached and NewSession reads one from the provider.
type Seed struct {
	TotalXP  int
	Plan     *SubscriptionPlan
	History  []TaskRecord
	Unlocked map[string]time.Time
	Ledger   []XPEvent
}

// Session owns one user's stats, history and ledger. All mutations are
// serialized under mu; I/O happens outside it. The plan gate is served from
// the cached plan, which only RefreshPlan and Reconcile update.
type Session struct {
	userID       string
	levels       *LevelTable
	plans        PlanProvider
	persist      Persistence
	journal      Journal
	notifier     Notifier
	logger       *log.Logger
	clock        Clock
	rng          *rand.Rand
	rewards      Rewards
	syncInterval time.Duration
	detach       *Detacher

	mu          sync.Mutex
	stats       ProductivityStats
	history     *HistoryStore
	ledger      []XPEvent
	penalized   map[string]bool
	plan        SubscriptionPlan
	planKnown   bool
	lastSyncAt  time.Time
	lastSyncErr error

	loopMu   sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}
	closed   bool
}

// NewSession builds a session from seed. It panics when the catalog holds
// duplicate ids.
func NewSession(ctx context.Context, opts Options, seed Seed) *Session {
	if opts.Levels == nil {
		opts.Levels = DefaultLevels
	}
	if opts.Catalog == nil {
		opts.Catalog = Catalog
	}
	seen := map[string]bool{}
	for _, def := range opts.Catalog {
		if seen[def.ID] {
			panic(fmt.Sprintf("engine: duplicate achievement id %q", def.ID))
		}
		seen[def.ID] = true
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Rewards == nil {
		r := DefaultRewards()
		opts.Rewards = &r
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultSyncInterval
	}

	s := &Session{
		userID:       opts.UserID,
		levels:       opts.Levels,
		plans:        opts.Plans,
		persist:      opts.Persistence,
		journal:      opts.Journal,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		clock:        opts.Clock,
		rng:          opts.Rand,
		rewards:      *opts.Rewards,
		syncInterval: opts.SyncInterval,
		detach:       NewDetacher(opts.Logger, opts.IOTimeout),
		history:      NewHistoryStore(seed.History),
		ledger:       append([]XPEvent(nil), seed.Ledger...),
		penalized:    map[string]bool{},
	}

	achievements := NewAchievementStates(opts.Catalog)
	for i := range achievements {
		if at, ok := seed.Unlocked[achievements[i].ID]; ok {
			at := at
			achievements[i].Unlocked = true
			achievements[i].UnlockedAt = &at
		}
	}

	xp := seed.TotalXP
	if xp < 0 {
		xp = 0
	}
	if seed.Plan != nil && seed.Plan.MaxLevel >= 1 {
		s.plan, s.planKnown = *seed.Plan, true
	} else if p, err := s.fetchPlan(ctx); err == nil {
		s.plan, s.planKnown = p, true
	} else {
		s.logger.Printf("Warning: plan unavailable for %s, using free plan: %v", s.userID, err)
		s.plan = FreePlan()
	}
	s.stats = ProductivityStats{TotalXP: xp, Achievements: achievements}
	s.setLevel(applyGate(s.levels, xp, s.plan))
	s.stats.PreviousLevel = s.stats.CurrentLevel
	s.refreshDerived(s.clock.Now())
	return s
}

// UserID returns the session owner.
func (s *Session) UserID() string { return s.userID }

// Levels returns the level table in use.
func (s *Session) Levels() *LevelTable { return s.levels }

func (s *Session) fetchPlan(ctx context.Context) (SubscriptionPlan, error) {
	if s.plans == nil {
		return FreePlan(), nil
	}
	p, err := s.plans.Plan(ctx)
	if err != nil {
		return SubscriptionPlan{}, err
	}
	if p.MaxLevel < 1 {
		return SubscriptionPlan{}, fmt.Errorf("plan %q has max level %d", p.Plan, p.MaxLevel)
	}
	return p, nil
}

// RefreshPlan reads the plan from the provider and re-applies the gate. On
// failure the cached plan stays in force. A displayed level raised by a new
// plan is announced like any other level-up.
func (s *Session) RefreshPlan(ctx context.Context) error {
	p, err := s.fetchPlan(ctx)
	if err != nil {
		return fmt.Errorf("refresh plan: %w", err)
	}
	var eff effects
	s.mu.Lock()
	s.applyPlan(p, s.clock.Now(), &eff)
	s.mu.Unlock()

	s.flush(&eff)
	return nil
}

// applyPlan swaps the cached plan. The first plan after a fallback replaces a
// guess, so the level it reveals is adopted silently. Callers hold mu.
func (s *Session) applyPlan(p SubscriptionPlan, now time.Time, eff *effects) {
	wasKnown := s.planKnown
	prevShown := s.stats.CurrentLevel
	s.plan, s.planKnown = p, true

	g := applyGate(s.levels, s.stats.TotalXP, p)
	s.setLevel(g)
	if g.Level <= prevShown {
		return
	}
	if !wasKnown {
		s.stats.PreviousLevel = g.Level
		return
	}
	s.stats.PreviousLevel = prevShown
	s.stats.LevelUpPending = true
	eff.notes = append(eff.notes, levelUpNotification(g.LevelInfo, LevelUpMessage(g.Level, s.rng), now))
	s.refreshDerived(now)
	s.drainAchievements(now, eff)
}

func (s *Session) setLevel(g gatedLevel) {
	s.stats.CurrentLevel = g.Level
	s.stats.LevelName = g.Name
	s.stats.XPInCurrentLevel = g.XPInCurrentLevel
	s.stats.XPToNextLevel = g.XPToNextLevel
	s.stats.PlanCapped = g.Capped
}

// refreshDerived recomputes everything that is a function of history.
func (s *Session) refreshDerived(now time.Time) {
	records := s.history.Records()
	s.stats.TotalTasksCompleted = countCompleted(records, func(TaskRecord) bool { return true })
	s.stats.WeeklyStats = ComputeWeekly(records, s.ledger, now)
	s.stats.ConsecutiveDays = s.stats.WeeklyStats.CurrentStreak
}

// effects are collected under the lock and released after it.
type effects struct {
	notes   []Notification
	gains   []XPGain
	tasks   []TaskRecord
	unlocks []AchievementState
}

func (s *Session) flush(eff *effects) {
	for _, n := range eff.notes {
		s.notifier.Notify(n)
	}
	for _, g := range eff.gains {
		s.persistGain(g)
	}
	if s.journal == nil {
		return
	}
	for _, t := range eff.tasks {
		t := t
		s.detach.Go("save task "+t.ID, func(ctx context.Context) error {
			return s.journal.SaveTask(ctx, s.userID, t)
		})
	}
	for _, a := range eff.unlocks {
		id, at := a.ID, *a.UnlockedAt
		s.detach.Go("save unlock "+id, func(ctx context.Context) error {
			return s.journal.SaveUnlock(ctx, s.userID, id, at)
		})
	}
}

func (s *Session) persistGain(g XPGain) {
	if s.persist == nil {
		return
	}
	// Writes stay in order so the server clamps penalties the same way we did.
	s.detach.GoSerial("persist xp", func(ctx context.Context) error {
		if _, err := s.persist.AddXP(ctx, s.userID, g); err != nil {
			return fmt.Errorf("add xp %+d (%s): %w", g.XPGain, g.Reason, err)
		}
		return nil
	})
}

// Stats returns a copy of the reconciled view. It does no I/O.
func (s *Session) Stats(_ context.Context) ProductivityStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDerived(s.clock.Now())
	return cloneStats(s.stats)
}

// Snapshot returns the uncapped total and the level it maps to, without
// consulting the plan provider.
func (s *Session) Snapshot() XPSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return XPSnapshot{XP: s.stats.TotalXP, Level: s.levels.LevelFor(s.stats.TotalXP).Level}
}

// History returns a copy of the task history.
func (s *Session) History() []TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Records()
}

// Ledger returns a copy of the XP ledger.
func (s *Session) Ledger() []XPEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]XPEvent, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Plan returns the cached plan.
func (s *Session) Plan() SubscriptionPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// CachedPlan returns the cached plan and whether it was ever read from the
// provider, as opposed to the free fallback.
func (s *Session) CachedPlan() (SubscriptionPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan, s.planKnown
}

// CanAccess checks feature against the displayed level under the cached plan.
func (s *Session) CanAccess(_ context.Context, feature Feature) error {
	s.mu.Lock()
	xp, plan := s.stats.TotalXP, s.plan
	s.mu.Unlock()
	return CanAccessAtLevel(applyGate(s.levels, xp, plan).Level, feature, plan)
}

// AckLevelUp clears the pending level-up flag once the UI has shown it.
func (s *Session) AckLevelUp() {
	s.mu.Lock()
	s.stats.LevelUpPending = false
	s.mu.Unlock()
}

// NextAchievement returns the locked achievement closest to unlocking.
func (s *Session) NextAchievement() (AchievementState, AchievementProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NextAchievement(s.stats.Achievements, s.history.Records(), s.stats, s.clock.Now())
}

// AchievementProgress returns progress for every achievement in catalog order.
func (s *Session) AchievementProgress() []AchievementProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	records := s.history.Records()
	out := make([]AchievementProgress, len(s.stats.Achievements))
	for i, a := range s.stats.Achievements {
		out[i] = Progress(a, records, s.stats, now)
	}
	return out
}

// Start reconciles once and then on every sync interval until ctx is done or
// Close is called.
func (s *Session) Start(ctx context.Context) error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopDone = make(chan struct{})

	go func() {
		defer close(s.loopDone)
		s.Reconcile(ctx)
		ticker := time.NewTicker(s.syncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Reconcile(ctx)
			}
		}
	}()
	return nil
}

// Close stops the sync loop and waits for detached work to finish. Task
// operations fail with ErrSessionClosed afterwards; AddXP still updates the
// local view but its write is dropped.
func (s *Session) Close() error {
	s.loopMu.Lock()
	if s.closed {
		s.loopMu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.loopDone
	s.loopMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.detach.Close()
	return nil
}

func (s *Session) isClosed() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	return s.closed
}

// Wait blocks until detached persistence and journal calls have returned.
func (s *Session) Wait() {
	s.detach.Wait()
}

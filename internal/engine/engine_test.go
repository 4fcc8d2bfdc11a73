package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Kind
	}
	return out
}

func (r *recorder) count(kind NotificationKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}

// memServer is an in-memory Persistence.
type memServer struct {
	mu       sync.Mutex
	xp       int
	writes   []XPGain
	fetchErr error
	writeErr error
}

func (m *memServer) AddXP(_ context.Context, _ string, g XPGain) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, g)
	m.xp += g.XPGain
	if m.xp < 0 {
		m.xp = 0
	}
	return m.xp, nil
}

func (m *memServer) FetchXP(context.Context, string) (XPSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return XPSnapshot{}, m.fetchErr
	}
	return XPSnapshot{XP: m.xp, Level: DefaultLevels.LevelFor(m.xp).Level}, nil
}

func (m *memServer) set(xp int) {
	m.mu.Lock()
	m.xp = xp
	m.mu.Unlock()
}

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type testEnv struct {
	sess  *Session
	notes *recorder
	clock *fixedClock
}

func newTestSession(t *testing.T, opts Options, seed Seed) testEnv {
	t.Helper()
	notes := &recorder{}
	clock := &fixedClock{t: testNow}
	if opts.Notifier == nil {
		opts.Notifier = notes
	}
	opts.Clock = clock
	opts.Logger = log.New(io.Discard, "", 0)
	opts.Rand = rand.New(rand.NewPCG(1, 2))
	if opts.UserID == "" {
		opts.UserID = "u1"
	}
	if opts.Plans == nil {
		opts.Plans = StaticPlan(SubscriptionFor(PlanTier2))
	}
	s := NewSession(context.Background(), opts, seed)
	t.Cleanup(func() { _ = s.Close() })
	return testEnv{sess: s, notes: notes, clock: clock}
}

func TestAddXPLevelsUpOnSecondCall(t *testing.T) {
	table := MustLevelTable([]LevelDefinition{
		{Level: 1, Name: "Iniciante", XPRequired: 0},
		{Level: 2, Name: "Praticante", XPRequired: 100},
	})
	env := newTestSession(t, Options{Levels: table, Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	r1 := env.sess.AddXP(ctx, 60, "x", "")
	if r1.TotalXP != 60 || r1.LevelAfter != 1 || r1.LevelUp {
		t.Fatalf("first call = %+v, want 60 xp at level 1 without level-up", r1)
	}
	r2 := env.sess.AddXP(ctx, 60, "x", "")
	if r2.TotalXP != 120 || r2.LevelAfter != 2 || !r2.LevelUp {
		t.Fatalf("second call = %+v, want 120 xp at level 2 with level-up", r2)
	}

	kinds := env.notes.kinds()
	if len(kinds) != 2 || kinds[0] != NotifyXPDelta || kinds[1] != NotifyLevelUp {
		t.Fatalf("notifications = %v, want [xp_delta level_up]", kinds)
	}

	st := env.sess.Stats(ctx)
	if st.PreviousLevel != 1 || !st.LevelUpPending {
		t.Fatalf("baseline = (%d, %v), want (1, true)", st.PreviousLevel, st.LevelUpPending)
	}
	env.sess.AckLevelUp()
	if env.sess.Stats(ctx).LevelUpPending {
		t.Fatalf("expected level-up flag cleared after ack")
	}
}

func TestAddXPNeverNegative(t *testing.T) {
	env := newTestSession(t, Options{}, Seed{TotalXP: 40})
	ctx := context.Background()

	res := env.sess.AddXP(ctx, -1_000_000_000, "penalidade", "")
	if res.TotalXP != 0 {
		t.Fatalf("total xp = %d, want 0", res.TotalXP)
	}
	if res.Applied != -40 || res.Requested != -1_000_000_000 {
		t.Fatalf("applied/requested = %d/%d, want -40/-1e9", res.Applied, res.Requested)
	}
	if env.sess.Stats(ctx).TotalXP < 0 {
		t.Fatalf("negative xp")
	}
	for _, amount := range []int{5, -3, -100, 7, -1} {
		if got := env.sess.AddXP(ctx, amount, "x", "").TotalXP; got < 0 {
			t.Fatalf("total xp went negative: %d", got)
		}
	}
}

func TestPlanGateClampsDisplayedLevel(t *testing.T) {
	plan := SubscriptionPlan{Plan: PlanFree, MaxLevel: 3}
	env := newTestSession(t, Options{Plans: StaticPlan(plan), Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	level5 := DefaultLevels.XPRequiredForLevel(5)
	res := env.sess.AddXP(ctx, level5, "bônus", "")
	if !res.PlanLimited || res.LevelUp {
		t.Fatalf("result = %+v, want plan-limited without level-up", res)
	}
	st := env.sess.Stats(ctx)
	if st.CurrentLevel != 3 {
		t.Fatalf("displayed level = %d, want 3", st.CurrentLevel)
	}
	if st.TotalXP != level5 {
		t.Fatalf("total xp = %d, want %d", st.TotalXP, level5)
	}
	if st.LevelName != DefaultLevels.Def(3).Name {
		t.Fatalf("level name = %q, want %q", st.LevelName, DefaultLevels.Def(3).Name)
	}
	if !st.PlanCapped {
		t.Fatalf("expected PlanCapped")
	}
	kinds := env.notes.kinds()
	if len(kinds) != 1 || kinds[0] != NotifyPlanLimit {
		t.Fatalf("notifications = %v, want [plan_limit]", kinds)
	}

	env.notes.reset()
	env.sess.AddXP(ctx, 10, "x", "")
	if got := env.notes.kinds(); len(got) != 1 || got[0] != NotifyXPDelta {
		t.Fatalf("notifications while capped = %v, want [xp_delta]", got)
	}
}

func TestPlanUpgradeUnlocksEarnedLevels(t *testing.T) {
	var mu sync.Mutex
	plan := SubscriptionPlan{Plan: PlanFree, MaxLevel: 3}
	provider := PlanFunc(func(context.Context) (SubscriptionPlan, error) {
		mu.Lock()
		defer mu.Unlock()
		return plan, nil
	})
	level6 := DefaultLevels.XPRequiredForLevel(6)
	env := newTestSession(t, Options{Plans: provider, Catalog: []AchievementDefinition{}}, Seed{TotalXP: level6})
	ctx := context.Background()

	if got := env.sess.Stats(ctx).CurrentLevel; got != 3 {
		t.Fatalf("level under free plan = %d, want 3", got)
	}
	if err := env.sess.CanAccess(ctx, FeatureLibrary); err == nil {
		t.Fatalf("expected library locked at level 3")
	} else {
		var gerr GateError
		if !errors.As(err, &gerr) || !gerr.PlanLimited {
			t.Fatalf("err = %v, want plan-limited GateError", err)
		}
	}

	mu.Lock()
	plan = SubscriptionFor(PlanTier1)
	mu.Unlock()

	if got := env.sess.Stats(ctx).CurrentLevel; got != 3 {
		t.Fatalf("level before refresh = %d, want cached cap 3", got)
	}
	if err := env.sess.RefreshPlan(ctx); err != nil {
		t.Fatalf("RefreshPlan: %v", err)
	}
	st := env.sess.Stats(ctx)
	if st.CurrentLevel != 6 || st.PreviousLevel != 3 || !st.LevelUpPending {
		t.Fatalf("after upgrade = (level %d, prev %d, pending %v), want (6, 3, true)", st.CurrentLevel, st.PreviousLevel, st.LevelUpPending)
	}
	if kinds := env.notes.kinds(); len(kinds) != 1 || kinds[0] != NotifyLevelUp {
		t.Fatalf("notifications = %v, want [level_up]", kinds)
	}
	if err := env.sess.CanAccess(ctx, FeatureLibrary); err != nil {
		t.Fatalf("library after upgrade: %v", err)
	}

	// Reading stats again does not repeat the announcement.
	env.sess.Stats(ctx)
	if err := env.sess.RefreshPlan(ctx); err != nil {
		t.Fatalf("RefreshPlan: %v", err)
	}
	if n := env.notes.count(NotifyLevelUp); n != 1 {
		t.Fatalf("level-up notifications = %d, want 1", n)
	}
}

// flakyPlans serves plan until failing is set and counts every read.
type flakyPlans struct {
	mu      sync.Mutex
	plan    SubscriptionPlan
	failing bool
	calls   int
}

func (f *flakyPlans) Plan(context.Context) (SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing {
		return SubscriptionPlan{}, errors.New("billing down")
	}
	return f.plan, nil
}

func (f *flakyPlans) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyPlans) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPlanOutageKeepsCachedPlan(t *testing.T) {
	plans := &flakyPlans{plan: SubscriptionFor(PlanTier1)}
	server := &memServer{}
	level8 := DefaultLevels.XPRequiredForLevel(8)
	server.set(level8)
	env := newTestSession(t, Options{Plans: plans, Persistence: server, Catalog: []AchievementDefinition{}}, Seed{TotalXP: level8})
	ctx := context.Background()

	plans.setFailing(true)
	env.sess.Reconcile(ctx)
	r1 := env.sess.AddXP(ctx, 1, "x", "")
	if r1.LevelAfter != 8 || r1.PlanLimited {
		t.Fatalf("during outage = %+v, want level 8 unlimited", r1)
	}

	plans.setFailing(false)
	env.sess.Reconcile(ctx)
	r2 := env.sess.AddXP(ctx, 1, "x", "")
	if r2.LevelUp || r2.LevelAfter != 8 {
		t.Fatalf("after recovery = %+v, want level 8 without level-up", r2)
	}
	if n := env.notes.count(NotifyLevelUp); n != 0 {
		t.Fatalf("level-up notifications = %d, want 0", n)
	}
}

func TestOperationsServeGateFromCachedPlan(t *testing.T) {
	plans := &flakyPlans{plan: SubscriptionFor(PlanTier2)}
	env := newTestSession(t, Options{Plans: plans}, Seed{})
	ctx := context.Background()
	if n := plans.count(); n != 1 {
		t.Fatalf("plan reads at construction = %d, want 1", n)
	}

	env.sess.AddXP(ctx, 10, "x", "")
	if _, _, err := env.sess.CreateTask(ctx, CreateTaskInput{ID: "t", Text: "ler"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t", Text: "ler"}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	env.sess.Merge(XPSnapshot{XP: 500})
	env.sess.Stats(ctx)
	_ = env.sess.CanAccess(ctx, FeatureLibrary)

	if n := plans.count(); n != 1 {
		t.Fatalf("plan reads after operations = %d, want 1", n)
	}
	env.sess.Reconcile(ctx)
	if n := plans.count(); n != 2 {
		t.Fatalf("plan reads after reconcile = %d, want 2", n)
	}
}

func TestSeedPlanSkipsProviderRead(t *testing.T) {
	plans := &flakyPlans{plan: SubscriptionFor(PlanTier2), failing: true}
	cached := SubscriptionFor(PlanTier1)
	level8 := DefaultLevels.XPRequiredForLevel(8)
	env := newTestSession(t, Options{Plans: plans, Catalog: []AchievementDefinition{}}, Seed{TotalXP: level8, Plan: &cached})

	if n := plans.count(); n != 0 {
		t.Fatalf("plan reads = %d, want 0 with a cached plan", n)
	}
	if got := env.sess.Stats(context.Background()).CurrentLevel; got != 8 {
		t.Fatalf("level = %d, want 8 under the cached tier1 plan", got)
	}
	if p, known := env.sess.CachedPlan(); !known || p.Plan != PlanTier1 {
		t.Fatalf("cached plan = (%v, %v), want tier1 known", p.Plan, known)
	}
}

func TestFirstPlanAfterFallbackIsSilent(t *testing.T) {
	plans := &flakyPlans{plan: SubscriptionFor(PlanTier1), failing: true}
	level8 := DefaultLevels.XPRequiredForLevel(8)
	env := newTestSession(t, Options{Plans: plans, Catalog: []AchievementDefinition{}}, Seed{TotalXP: level8})
	ctx := context.Background()

	if _, known := env.sess.CachedPlan(); known {
		t.Fatalf("fallback plan reported as known")
	}
	plans.setFailing(false)
	if err := env.sess.RefreshPlan(ctx); err != nil {
		t.Fatalf("RefreshPlan: %v", err)
	}
	st := env.sess.Stats(ctx)
	if st.CurrentLevel != 8 || st.LevelUpPending {
		t.Fatalf("after first plan = (level %d, pending %v), want (8, false)", st.CurrentLevel, st.LevelUpPending)
	}
	if n := env.notes.count(NotifyLevelUp); n != 0 {
		t.Fatalf("level-up notifications = %d, want 0", n)
	}
}

func TestPlanUnavailableFallsBackToFree(t *testing.T) {
	failing := PlanFunc(func(context.Context) (SubscriptionPlan, error) {
		return SubscriptionPlan{}, errors.New("billing down")
	})
	env := newTestSession(t, Options{Plans: failing, Catalog: []AchievementDefinition{}}, Seed{TotalXP: 9_999})
	if got, want := env.sess.Stats(context.Background()).CurrentLevel, FreePlan().MaxLevel; got != want {
		t.Fatalf("level = %d, want free cap %d", got, want)
	}
}

func TestCompletePriorityTaskWithFirstAchievement(t *testing.T) {
	env := newTestSession(t, Options{}, Seed{})
	ctx := context.Background()

	res, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t1", Text: "Ler capítulo", CreatedAt: testNow.Add(-time.Hour), Priority: true})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.XPAwarded != 35 {
		t.Fatalf("xp awarded = %d, want 35", res.XPAwarded)
	}
	st := env.sess.Stats(ctx)
	if st.TotalXP != 35 {
		t.Fatalf("total xp = %d, want 35", st.TotalXP)
	}

	kinds := env.notes.kinds()
	if len(kinds) != 2 || kinds[0] != NotifyXPDelta || kinds[1] != NotifyAchievement {
		t.Fatalf("notifications = %v, want [xp_delta achievement]", kinds)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "first_task" {
		t.Fatalf("unlocked = %+v, want first_task", res.Unlocked)
	}
	for _, a := range st.Achievements {
		if a.ID == "first_task" && (!a.Unlocked || a.UnlockedAt == nil) {
			t.Fatalf("first_task not marked unlocked: %+v", a)
		}
	}

	rec, err := env.sess.Task("t1")
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if !rec.CreatedAt.Equal(testNow.Add(-time.Hour)) || rec.CompletedAt == nil {
		t.Fatalf("record = %+v, want original created_at and completed_at set", rec)
	}
}

func TestAchievementUnlocksOnlyOnce(t *testing.T) {
	env := newTestSession(t, Options{}, Seed{})
	ctx := context.Background()

	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "a", Text: "a"}); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	env.notes.reset()
	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "b", Text: "b"}); err != nil {
		t.Fatalf("complete b: %v", err)
	}
	if n := env.notes.count(NotifyAchievement); n != 0 {
		t.Fatalf("achievement notifications on re-satisfy = %d, want 0", n)
	}
	env.sess.AddXP(ctx, 1, "x", "")
	if n := env.notes.count(NotifyAchievement); n != 0 {
		t.Fatalf("achievement notifications after AddXP = %d, want 0", n)
	}

	rewards := 0
	for _, e := range env.sess.Ledger() {
		if e.Reason == ReasonAchievement+": Primeiro Passo" {
			rewards++
		}
	}
	if rewards != 1 {
		t.Fatalf("first_task reward granted %d times, want 1", rewards)
	}
}

func TestCompleteTaskRejectsDuplicates(t *testing.T) {
	env := newTestSession(t, Options{}, Seed{})
	ctx := context.Background()

	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t1"}); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t1"}); err == nil {
		t.Fatalf("expected error completing twice")
	}
	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "  "}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestAllTasksDoneBonus(t *testing.T) {
	env := newTestSession(t, Options{Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	for _, text := range []string{"um", "dois"} {
		if _, _, err := env.sess.CreateTask(ctx, CreateTaskInput{ID: text, Text: text}); err != nil {
			t.Fatalf("CreateTask %s: %v", text, err)
		}
	}
	first, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "um", Text: "um"})
	if err != nil {
		t.Fatalf("complete um: %v", err)
	}
	if first.AllDoneBonus {
		t.Fatalf("bonus granted with a pending task left")
	}
	second, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "dois", Text: "dois"})
	if err != nil {
		t.Fatalf("complete dois: %v", err)
	}
	if !second.AllDoneBonus {
		t.Fatalf("expected all-done bonus on last task")
	}
	want := DefaultRewards().TaskCompletion + DefaultRewards().AllTasksDone
	if second.XPAwarded != want {
		t.Fatalf("xp awarded = %d, want %d", second.XPAwarded, want)
	}
}

func TestSingleTaskDayGetsNoAllDoneBonus(t *testing.T) {
	env := newTestSession(t, Options{Catalog: []AchievementDefinition{}}, Seed{})
	res, err := env.sess.CompleteTask(context.Background(), TaskRecord{ID: "solo"})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.AllDoneBonus {
		t.Fatalf("bonus requires more than one task today")
	}
}

func TestAchievementChainReachesFixedPoint(t *testing.T) {
	catalog := []AchievementDefinition{
		{ID: "one", Name: "One", XPReward: 100, Requirement: Requirement{KindTasksCompleted, 1}},
		{ID: "xp", Name: "XP", XPReward: 200, Requirement: Requirement{KindTotalXP, 100}},
		{ID: "lvl", Name: "Lvl", XPReward: 50, Requirement: Requirement{KindLevel, 3}},
		{ID: "never", Name: "Never", XPReward: 10, Requirement: Requirement{KindUnknown, 1}},
	}
	env := newTestSession(t, Options{Catalog: catalog}, Seed{})
	ctx := context.Background()

	res, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t"})
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if len(res.Unlocked) != 3 {
		t.Fatalf("unlocked %d achievements, want 3", len(res.Unlocked))
	}
	wantXP := 5 + 100 + 200 + 50
	if st := env.sess.Stats(ctx); st.TotalXP != wantXP {
		t.Fatalf("total xp = %d, want %d", st.TotalXP, wantXP)
	}
	if n := env.notes.count(NotifyAchievement); n != 3 {
		t.Fatalf("achievement notifications = %d, want 3", n)
	}
	if !res.LevelUp || res.LevelAfter != DefaultLevels.LevelFor(wantXP).Level {
		t.Fatalf("result = %+v, want level-up to %d", res, DefaultLevels.LevelFor(wantXP).Level)
	}
}

func TestReconcileAntiRegression(t *testing.T) {
	server := &memServer{}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}}, Seed{TotalXP: 80})
	ctx := context.Background()

	server.set(50)
	res := env.sess.Reconcile(ctx)
	if res.Applied {
		t.Fatalf("reconcile applied a regressing snapshot")
	}
	if got := env.sess.Stats(ctx).TotalXP; got != 80 {
		t.Fatalf("total xp = %d, want 80", got)
	}

	server.set(90)
	res = env.sess.Reconcile(ctx)
	if !res.Applied {
		t.Fatalf("expected snapshot applied")
	}
	if got := env.sess.Stats(ctx).TotalXP; got != 90 {
		t.Fatalf("total xp = %d, want 90", got)
	}
}

func TestReconcileServerLevelUpIsIdempotent(t *testing.T) {
	server := &memServer{}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}}, Seed{TotalXP: 10})
	ctx := context.Background()

	server.set(DefaultLevels.XPRequiredForLevel(3))
	first := env.sess.Reconcile(ctx)
	if !first.LevelUp {
		t.Fatalf("expected admin-granted xp to count as a level-up")
	}
	second := env.sess.Reconcile(ctx)
	if second.LevelUp {
		t.Fatalf("second reconcile repeated the level-up")
	}
	if n := env.notes.count(NotifyLevelUp); n != 1 {
		t.Fatalf("level-up notifications = %d, want 1", n)
	}
}

func TestReconcileRespectsPlanCap(t *testing.T) {
	server := &memServer{}
	plan := StaticPlan(SubscriptionPlan{Plan: PlanFree, MaxLevel: 2})
	env := newTestSession(t, Options{Persistence: server, Plans: plan, Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	server.set(DefaultLevels.XPRequiredForLevel(8))
	env.sess.Reconcile(ctx)
	if got := env.sess.Stats(ctx).CurrentLevel; got > 2 {
		t.Fatalf("displayed level = %d exceeds cap 2", got)
	}
}

func TestReconcileFetchFailureIsSwallowed(t *testing.T) {
	server := &memServer{fetchErr: errors.New("offline")}
	env := newTestSession(t, Options{Persistence: server}, Seed{TotalXP: 30})
	res := env.sess.Reconcile(context.Background())
	if res.Err == nil || res.Applied {
		t.Fatalf("result = %+v, want error without apply", res)
	}
	if got := env.sess.Stats(context.Background()).TotalXP; got != 30 {
		t.Fatalf("total xp = %d, want 30", got)
	}
	if _, err := env.sess.LastSync(); err == nil {
		t.Fatalf("expected last sync error recorded")
	}
}

func TestPersistFailureKeepsOptimisticState(t *testing.T) {
	server := &memServer{writeErr: errors.New("503")}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	env.sess.AddXP(ctx, 40, "x", "")
	env.sess.Wait()
	if got := env.sess.Stats(ctx).TotalXP; got != 40 {
		t.Fatalf("total xp = %d, want 40 after failed write", got)
	}
}

func TestPersistSendsOneWritePerCall(t *testing.T) {
	server := &memServer{}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	env.sess.AddXP(ctx, 10, "a", "")
	env.sess.AddXP(ctx, -3, "b", "")
	env.sess.Wait()

	server.mu.Lock()
	defer server.mu.Unlock()
	if len(server.writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(server.writes))
	}
	if server.xp != 7 {
		t.Fatalf("server xp = %d, want 7", server.xp)
	}
}

func TestStartReconcilesOnSessionReady(t *testing.T) {
	server := &memServer{xp: 150}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}, SyncInterval: time.Hour}, Seed{})
	ctx := context.Background()

	if err := env.sess.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for env.sess.Stats(ctx).TotalXP != 150 {
		if time.Now().After(deadline) {
			t.Fatalf("session did not reconcile on start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := env.sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := env.sess.Start(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Start after Close = %v, want ErrSessionClosed", err)
	}
}

func TestDailyPenaltyOncePerDay(t *testing.T) {
	env := newTestSession(t, Options{Catalog: []AchievementDefinition{}}, Seed{TotalXP: 50})
	ctx := context.Background()
	yesterday := testNow.AddDate(0, 0, -1)

	res, ok := env.sess.ApplyDailyPenalty(ctx, yesterday)
	if !ok || res.Applied != -DefaultRewards().DailyPenalty {
		t.Fatalf("penalty = (%+v, %v), want applied", res, ok)
	}
	if _, ok := env.sess.ApplyDailyPenalty(ctx, yesterday); ok {
		t.Fatalf("penalty applied twice for the same day")
	}

	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "t"}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if _, ok := env.sess.ApplyDailyPenalty(ctx, testNow); ok {
		t.Fatalf("penalty applied on a day with a completion")
	}
}

func TestNewSessionPanicsOnDuplicateAchievement(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	dup := []AchievementDefinition{{ID: "a", XPReward: 1}, {ID: "a", XPReward: 1}}
	NewSession(context.Background(), Options{Catalog: dup}, Seed{})
}

func TestAchievementRewardLevelUpPrecedesUnlock(t *testing.T) {
	table := MustLevelTable([]LevelDefinition{
		{Level: 1, Name: "Iniciante", XPRequired: 0},
		{Level: 2, Name: "Praticante", XPRequired: 100},
	})
	catalog := []AchievementDefinition{
		{ID: "one", Name: "One", XPReward: 200, Requirement: Requirement{KindTasksCompleted, 1}},
	}
	env := newTestSession(t, Options{Levels: table, Catalog: catalog}, Seed{})

	if _, err := env.sess.CompleteTask(context.Background(), TaskRecord{ID: "t"}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	kinds := env.notes.kinds()
	want := []NotificationKind{NotifyXPDelta, NotifyLevelUp, NotifyAchievement}
	if len(kinds) != len(want) {
		t.Fatalf("notifications = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", kinds, want)
		}
	}
}

func TestClosedSessionDropsWrites(t *testing.T) {
	server := &memServer{}
	env := newTestSession(t, Options{Persistence: server, Catalog: []AchievementDefinition{}}, Seed{})
	ctx := context.Background()

	env.sess.AddXP(ctx, 10, "x", "")
	if err := env.sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := env.sess.CompleteTask(ctx, TaskRecord{ID: "late"}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("CompleteTask after Close = %v, want ErrSessionClosed", err)
	}
	if _, _, err := env.sess.CreateTask(ctx, CreateTaskInput{Text: "late"}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("CreateTask after Close = %v, want ErrSessionClosed", err)
	}
	if _, ok := env.sess.ApplyDailyPenalty(ctx, testNow.AddDate(0, 0, -1)); ok {
		t.Fatalf("penalty applied after Close")
	}
	env.sess.AddXP(ctx, 5, "x", "")
	env.sess.Wait()

	server.mu.Lock()
	defer server.mu.Unlock()
	if len(server.writes) != 1 || server.xp != 10 {
		t.Fatalf("server writes = %d (xp %d), want only the write before Close", len(server.writes), server.xp)
	}
}

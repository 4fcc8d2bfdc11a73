package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

type boardModel struct {
	ctx     context.Context
	session *engine.Session

	width  int
	height int

	stats engine.ProductivityStats
	plan  engine.SubscriptionPlan
	tasks []engine.TaskRecord

	next         engine.AchievementState
	nextProgress engine.AchievementProgress
	hasNext      bool

	selected int
	lastLog  string
	loading  bool
}

type loadedMsg struct {
	stats        engine.ProductivityStats
	plan         engine.SubscriptionPlan
	tasks        []engine.TaskRecord
	next         engine.AchievementState
	nextProgress engine.AchievementProgress
	hasNext      bool
}

type completedMsg struct {
	res *engine.CompleteResult
	err error
}

type syncedMsg struct {
	res engine.ReconcileResult
}

func newBoardModel(ctx context.Context, session *engine.Session) boardModel {
	return boardModel{
		ctx:     ctx,
		session: session,
		loading: true,
		lastLog: "Carregado.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		stats := m.session.Stats(m.ctx)
		next, p, ok := m.session.NextAchievement()
		return loadedMsg{
			stats:        stats,
			plan:         m.session.Plan(),
			tasks:        pendingTasks(m.session.History()),
			next:         next,
			nextProgress: p,
			hasNext:      ok,
		}
	}
}

func (m boardModel) completeCmd(t engine.TaskRecord) tea.Cmd {
	return func() tea.Msg {
		res, err := m.session.CompleteTask(m.ctx, t)
		return completedMsg{res: res, err: err}
	}
}

func (m boardModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		return syncedMsg{res: m.session.Reconcile(m.ctx)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.stats = msg.stats
		m.plan = msg.plan
		m.tasks = msg.tasks
		m.next, m.nextProgress, m.hasNext = msg.next, msg.nextProgress, msg.hasNext
		if m.selected >= len(m.tasks) {
			m.selected = len(m.tasks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Falha ao concluir: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = completeLog(msg.res)
		return m, m.loadCmd()
	case syncedMsg:
		switch {
		case msg.res.Err != nil:
			m.lastLog = "Sincronização falhou: " + msg.res.Err.Error()
		case msg.res.Applied:
			m.lastLog = fmt.Sprintf("Sincronizado: %d XP do servidor.", msg.res.ServerXP)
		default:
			m.lastLog = fmt.Sprintf("Sincronizado às %s.", time.Now().Format("15:04:05"))
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Sincronizando…"
			return m, m.syncCmd()
		case "enter":
			if m.stats.LevelUpPending {
				m.session.AckLevelUp()
				return m, m.loadCmd()
			}
			return m, nil
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.tasks)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ":
			if m.selected < 0 || m.selected >= len(m.tasks) {
				return m, nil
			}
			t := m.tasks[m.selected]
			m.lastLog = fmt.Sprintf("Concluindo %q…", t.Text)
			return m, m.completeCmd(t)
		}
	}
	return m, nil
}

func completeLog(res *engine.CompleteResult) string {
	s := fmt.Sprintf("+%d XP (nível %d → %d)", res.XPAwarded, res.LevelBefore, res.LevelAfter)
	if res.AllDoneBonus {
		s += ", bônus do dia"
	}
	for _, a := range res.Unlocked {
		s += fmt.Sprintf(", %s %s", a.Icon, a.Name)
	}
	return s
}

// pendingTasks returns open tasks, priority first, then oldest.
func pendingTasks(history []engine.TaskRecord) []engine.TaskRecord {
	var out []engine.TaskRecord
	for _, t := range history {
		if !t.Completed {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m boardModel) View() string {
	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 30
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 18 {
			leftW = 18
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	max := len(linesLeft)
	if len(linesRight) > max {
		max = len(linesRight)
	}

	var body strings.Builder
	for i := 0; i < max; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.loading && m.stats.CurrentLevel == 0 {
		return "levelup | carregando…"
	}
	st := m.stats
	bar := ui.ProgressBar(st.XPInCurrentLevel, st.XPInCurrentLevel+st.XPToNextLevel, 30)
	h := fmt.Sprintf("levelup | %s | Nível %d %s | XP %d %s", m.session.UserID(), st.CurrentLevel, st.LevelName, st.TotalXP, bar)
	if st.PlanCapped {
		h += " " + ui.BadgeCapped
	}
	if st.LevelUpPending {
		h += "\n" + ui.BadgeLevelUp + fmt.Sprintf(" %d → %d (enter)", st.PreviousLevel, st.CurrentLevel)
	}
	return h
}

func (m boardModel) renderSidebar() string {
	st := m.stats
	lines := []string{
		"Progresso",
		fmt.Sprintf("- plano: %s (máx. %d)", m.plan.Plan, m.plan.MaxLevel),
		fmt.Sprintf("- concluídas: %d", st.TotalTasksCompleted),
		fmt.Sprintf("- sequência: %d dia(s)", st.ConsecutiveDays),
		fmt.Sprintf("- conquistas: %d/%d", engine.CountUnlocked(st.Achievements), len(st.Achievements)),
		"",
		"Próxima conquista",
	}
	if m.hasNext {
		lines = append(lines,
			fmt.Sprintf("%s %s", m.next.Icon, m.next.Name),
			fmt.Sprintf("%s %d/%d", ui.PercentBar(m.nextProgress.Percentage, 14), m.nextProgress.Current, m.nextProgress.Required),
		)
	} else {
		lines = append(lines, "(todas desbloqueadas)")
	}
	lines = append(lines, "",
		"Teclas",
		"- ↑/↓ ou j/k: mover",
		"- c/espaço: concluir",
		"- r: sincronizar",
		"- q: sair",
	)
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading && len(m.tasks) == 0 {
		return "Carregando…"
	}
	out := []string{"Tarefas"}
	if len(m.tasks) == 0 {
		out = append(out, "(nenhuma tarefa pendente)")
		return strings.Join(out, "\n")
	}
	for i, t := range m.tasks {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := ""
		if t.Priority {
			mark = "[!] "
		}
		out = append(out, fmt.Sprintf("%s%s%s", cursor, mark, t.Text))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

package boardcmder

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type boardView int

const (
	viewOverview boardView = iota
	viewCustomer
)

type boardModel struct {
	driver      storage.Driver
	memories    *memory.Service
	limit       int
	customers   []memory.CustomerSummary
	profile     *customer.Profile
	history     []customer.Observation
	total       int
	view        boardView
	cursor      int
	obsCursor   int
	width       int
	height      int
	searching   bool
	searchInput string
	query       string
	loadErr     error
	keys        boardKeyMap
	help        help.Model
}

var (
	boardTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	boardMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boardDimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	boardSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	boardDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	boardHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("39")).Bold(true)
	boardErrStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	boardSourceVoice    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boardSourceSMS      = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	boardSourceWhatsApp = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
)

type boardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Search  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Back, k.Search, k.Refresh, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Enter, k.Back}, {k.Search, k.Refresh, k.Quit}}
}

func defaultKeyMap() boardKeyMap {
	return boardKeyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "drill")),
		Back:    key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type customersLoadedMsg struct {
	customers []memory.CustomerSummary
	err       error
}

type customerLoadedMsg struct {
	profile *customer.Profile
	history []customer.Observation
	total   int
	err     error
}

type searchLoadedMsg struct {
	query   string
	history []customer.Observation
	err     error
}

func runBoardTUI(ctx context.Context, driver storage.Driver, memories *memory.Service, phone string, limit int) error {
	model := newBoardModel(driver, memories, limit)

	customers := memories.ListCustomers(ctx)
	if customers == nil {
		return fmt.Errorf("could not list customers")
	}
	model.customers = customers

	if phone != "" {
		profile, err := driver.GetProfile(ctx, phone)
		if err != nil {
			if storage.IsNotFound(err) {
				return fmt.Errorf("no customer with phone %s", phone)
			}
			return err
		}
		history, err := driver.RecentObservations(ctx, phone, limit)
		if err != nil {
			return err
		}
		total, err := driver.CountObservations(ctx, phone)
		if err != nil {
			return err
		}
		model.view = viewCustomer
		model.profile = profile
		model.history = history
		model.total = total
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newBoardModel(driver storage.Driver, memories *memory.Service, limit int) boardModel {
	return boardModel{
		driver:   driver,
		memories: memories,
		limit:    limit,
		view:     viewOverview,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

func (m boardModel) Init() bubbletea.Cmd {
	return nil
}

func (m boardModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case customersLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.customers = msg.customers
		if m.cursor >= len(m.customers) {
			m.cursor = clamp(m.cursor, len(m.customers)-1)
		}
		return m, nil
	case customerLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.profile = msg.profile
		m.history = msg.history
		m.total = msg.total
		m.obsCursor = 0
		m.query = ""
		m.searching = false
		m.view = viewCustomer
		return m, nil
	case searchLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.query = msg.query
		m.history = msg.history
		m.obsCursor = 0
		return m, nil
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m boardModel) View() string {
	switch m.view {
	case viewOverview:
		return m.viewOverview()
	case viewCustomer:
		return m.viewCustomer()
	}
	return m.viewOverview()
}

func (m boardModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "l", "enter":
		if m.view == viewOverview {
			return m.enterCustomer()
		}
	case "h", "esc":
		if m.view == viewCustomer {
			if m.query != "" && m.profile != nil {
				// Clear the active search before leaving the customer.
				return m, loadCustomerCmd(m.driver, m.profile.Phone, m.limit)
			}
			m.view = viewOverview
			return m, loadCustomersCmd(m.memories)
		}
	case "/":
		if m.view == viewCustomer {
			m.searching = true
			m.searchInput = ""
			return m, nil
		}
	case "r":
		if m.view == viewOverview {
			return m, loadCustomersCmd(m.memories)
		}
		if m.profile != nil {
			return m, loadCustomerCmd(m.driver, m.profile.Phone, m.limit)
		}
	}

	return m, nil
}

func (m boardModel) handleSearchKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, bubbletea.Quit
	case "esc":
		m.searching = false
		m.searchInput = ""
		return m, nil
	case "enter":
		m.searching = false
		query := strings.TrimSpace(m.searchInput)
		m.searchInput = ""
		if query == "" || m.profile == nil {
			return m, nil
		}
		return m, loadSearchCmd(m.driver, m.profile.Phone, query, m.limit)
	case "backspace":
		if len(m.searchInput) > 0 {
			runes := []rune(m.searchInput)
			m.searchInput = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if msg.Type == bubbletea.KeyRunes || msg.String() == " " {
		m.searchInput += string(msg.Runes)
	}
	return m, nil
}

func (m boardModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	if m.view == viewOverview {
		if len(m.customers) == 0 {
			return m, nil
		}
		m.cursor = clamp(m.cursor+delta, len(m.customers)-1)
		return m, nil
	}

	if len(m.history) == 0 {
		return m, nil
	}
	m.obsCursor = clamp(m.obsCursor+delta, len(m.history)-1)
	return m, nil
}

func (m boardModel) enterCustomer() (bubbletea.Model, bubbletea.Cmd) {
	if len(m.customers) == 0 {
		return m, nil
	}

	row := m.customers[m.cursor]
	return m, loadCustomerCmd(m.driver, row.Profile.Phone, m.limit)
}

func (m boardModel) viewOverview() string {
	totalObservations := 0
	for _, row := range m.customers {
		totalObservations += row.Observations
	}

	headerLeft := boardTitleStyle.Render("memline board")
	headerRight := boardMutedStyle.Render(fmt.Sprintf("%d customers · %d observations", len(m.customers), totalObservations))
	header := renderHeaderLine(m.width, headerLeft, headerRight)

	lines := make([]string, 0, len(m.customers)+8)
	lines = append(lines, header, renderRule(m.width), "")

	if m.loadErr != nil {
		lines = append(lines, boardErrStyle.Render("load failed: "+m.loadErr.Error()), "")
	}

	if len(m.customers) == 0 {
		lines = append(lines, boardMutedStyle.Render("no customers recorded yet"))
		lines = append(lines, "", m.viewFooter())
		return strings.Join(lines, "\n")
	}

	lines = append(lines, boardSectionStyle.Render("customers"), renderRule(m.width))
	lines = append(lines, boardMutedStyle.Render("  phone            name                  email                        obs  updated"))

	maxVisible := m.listHeight(len(lines))
	start, end := visibleRange(len(m.customers), m.cursor, maxVisible)
	for i := start; i < end; i++ {
		row := m.customers[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		line := fmt.Sprintf("%s %-16s %-21s %-28s %4s  %s",
			cursor,
			fitCell(row.Profile.Phone, 16),
			fitCell(derefOr(row.Profile.Name, "-"), 21),
			fitCell(derefOr(row.Profile.Email, "-"), 28),
			strconv.Itoa(row.Observations),
			row.Profile.UpdatedAt.Format("Jan 2 15:04"),
		)

		if row.Observations == 0 {
			line = boardDimStyle.Render(line)
		}
		if i == m.cursor {
			line = boardHighlightStyle.Render(line)
		}

		lines = append(lines, line)
	}

	lines = append(lines, "", m.viewFooter())

	return strings.Join(lines, "\n")
}

func (m boardModel) viewCustomer() string {
	if m.profile == nil {
		return boardMutedStyle.Render("no customer selected")
	}

	headerLeft := boardTitleStyle.Render("memline board › " + m.profile.Phone)
	headerRight := boardMutedStyle.Render(fmt.Sprintf("%d observations", m.total))
	header := renderHeaderLine(m.width, headerLeft, headerRight)

	lines := make([]string, 0, len(m.history)+12)
	lines = append(lines, header, renderRule(m.width), "")

	if m.loadErr != nil {
		lines = append(lines, boardErrStyle.Render("load failed: "+m.loadErr.Error()), "")
	}

	lines = append(lines, boardSectionStyle.Render("profile"), renderRule(m.width))
	lines = append(lines, fmt.Sprintf("name: %-24s email: %s", derefOr(m.profile.Name, "-"), derefOr(m.profile.Email, "-")))
	lines = append(lines, boardMutedStyle.Render(fmt.Sprintf("first seen %s · last update %s",
		m.profile.CreatedAt.Format("Jan 2, 2006"),
		m.profile.UpdatedAt.Format("Jan 2, 2006"),
	)))
	lines = append(lines, "")

	if m.searching {
		lines = append(lines, boardTitleStyle.Render("search: ")+m.searchInput+boardMutedStyle.Render("▌"), "")
	}

	title := "observations"
	switch {
	case m.query != "":
		title = fmt.Sprintf("observations matching %q (%d)", m.query, len(m.history))
	case m.total > len(m.history):
		title = fmt.Sprintf("observations (latest %d of %d)", len(m.history), m.total)
	}
	lines = append(lines, boardSectionStyle.Render(title), renderRule(m.width))

	if len(m.history) == 0 {
		empty := "no observations recorded"
		if m.query != "" {
			empty = "no observations match; esc to clear"
		}
		lines = append(lines, boardMutedStyle.Render(empty))
		lines = append(lines, "", m.viewFooter())
		return strings.Join(lines, "\n")
	}

	maxVisible := m.listHeight(len(lines))
	start, end := visibleRange(len(m.history), m.obsCursor, maxVisible)
	for i := start; i < end; i++ {
		obs := m.history[i]
		cursor := " "
		if i == m.obsCursor {
			cursor = ">"
		}

		contentWidth := m.width - 34
		if contentWidth < 20 {
			contentWidth = 20
		}

		line := fmt.Sprintf("%s %s  %s  %s",
			cursor,
			obs.OccurredAt.Format("Jan 2 15:04"),
			sourceLabel(obs.Source),
			ansi.Truncate(obs.Content, contentWidth, "..."),
		)

		if i == m.obsCursor {
			line = boardHighlightStyle.Render(line)
		}

		lines = append(lines, line)
	}

	selected := m.history[m.obsCursor]
	lines = append(lines, "", boardSectionStyle.Render("observation"), renderRule(m.width))
	lines = append(lines, boardMutedStyle.Render(fmt.Sprintf("%s · %s · %s",
		selected.ID, selected.Source, selected.OccurredAt.Format("Jan 2, 2006 15:04"))))
	lines = append(lines, wrapText(selected.Content, max(20, m.width-2))...)

	lines = append(lines, "", m.viewFooter())

	return strings.Join(lines, "\n")
}

func (m boardModel) viewFooter() string {
	return boardMutedStyle.Render(m.help.View(m.keys))
}

// listHeight bounds scrolling lists to what fits on screen below the lines
// already rendered, leaving room for the footer.
func (m boardModel) listHeight(used int) int {
	screenHeight := m.height
	if screenHeight <= 0 {
		screenHeight = 40
	}
	return max(screenHeight-used-8, 5)
}

func loadCustomersCmd(memories *memory.Service) bubbletea.Cmd {
	return func() bubbletea.Msg {
		customers := memories.ListCustomers(context.Background())
		if customers == nil {
			return customersLoadedMsg{err: fmt.Errorf("could not list customers")}
		}
		return customersLoadedMsg{customers: customers}
	}
}

func loadCustomerCmd(driver storage.Driver, phone string, limit int) bubbletea.Cmd {
	return func() bubbletea.Msg {
		ctx := context.Background()

		profile, err := driver.GetProfile(ctx, phone)
		if err != nil {
			return customerLoadedMsg{err: err}
		}
		history, err := driver.RecentObservations(ctx, phone, limit)
		if err != nil {
			return customerLoadedMsg{err: err}
		}
		total, err := driver.CountObservations(ctx, phone)
		if err != nil {
			return customerLoadedMsg{err: err}
		}

		return customerLoadedMsg{profile: profile, history: history, total: total}
	}
}

func loadSearchCmd(driver storage.Driver, phone, query string, limit int) bubbletea.Cmd {
	return func() bubbletea.Msg {
		history, err := driver.SearchObservations(context.Background(), phone, query, limit)
		if err != nil {
			return searchLoadedMsg{err: err}
		}
		return searchLoadedMsg{query: query, history: history}
	}
}

func sourceLabel(source customer.Source) string {
	switch source {
	case customer.SourceVoice:
		return boardSourceVoice.Render("voice   ")
	case customer.SourceSMS:
		return boardSourceSMS.Render("sms     ")
	case customer.SourceWhatsApp:
		return boardSourceWhatsApp.Render("whatsapp")
	default:
		return fitCell(string(source), 8)
	}
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	spacing := lineWidth - leftWidth - rightWidth
	return left + strings.Repeat(" ", spacing) + right
}

func renderRule(width int) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	return boardDividerStyle.Render(strings.Repeat("─", lineWidth))
}

func fitCell(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) > width {
		return ansi.Truncate(value, width, "...")
	}
	return value + strings.Repeat(" ", width-lipgloss.Width(value))
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := []string{}
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
			current = current + " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

package main

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/browse"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
)

var (
	priceCycle = []listing.PriceTier{listing.TierAll, listing.TierFree, listing.TierPaid}
	levelCycle = []string{listing.All, string(domain.LevelBeginner), string(domain.LevelIntermediate), string(domain.LevelAdvanced)}
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: `browse opens a full-screen catalog page. Type to search, then press
tab to use the keyboard filters shown at the bottom of the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log output would tear the alternate screen.
			log := root.logger(io.Discard)
			src, err := root.newProvider(log)
			if err != nil {
				return err
			}

			var prog *tea.Program
			ctrl := browse.NewController(src, browse.Options{
				Debounce: root.debounce,
				PageSize: root.pageSize,
				Logger:   log,
				OnChange: func() {
					if prog != nil {
						prog.Send(resultsMsg{})
					}
				},
			})
			defer ctrl.Close()

			prog = tea.NewProgram(
				newBrowseModel(cmd.Context(), ctrl),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = prog.Run()
			return err
		},
	}
}

// resultsMsg reports that a search result landed in the controller.
type resultsMsg struct{}

// loadedMsg carries the outcome of the initial collection fetch.
type loadedMsg struct{ err error }

var _ tea.Model = browseModel{}

type browseModel struct {
	ctx   context.Context
	ctrl  *browse.Controller
	input textinput.Model

	categories []string
	category   int
	level      int
	price      int
	sort       int

	width int
}

func newBrowseModel(ctx context.Context, ctrl *browse.Controller) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search courses"
	ti.Prompt = "/ "
	ti.Focus()

	return browseModel{
		ctx:        ctx,
		ctrl:       ctrl,
		input:      ti,
		categories: []string{listing.All},
	}
}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load)
}

func (m browseModel) load() tea.Msg {
	return loadedMsg{err: m.ctrl.Load(m.ctx)}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		m.categories = categoryCycle(m.ctrl.View().Matched)
		return m, nil

	case resultsMsg:
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m browseModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "enter":
		m.input.Blur()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.ctrl.SetSearch(v)
	}
	return m, cmd
}

func (m browseModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "/":
		return m, m.input.Focus()
	case "n", "right":
		m.ctrl.NextPage()
	case "p", "left":
		m.ctrl.PrevPage()
	case "s":
		m.sort = next(m.sort, len(listing.SortKeys))
		m.ctrl.SetSort(listing.SortKeys[m.sort])
	case "f":
		m.price = next(m.price, len(priceCycle))
		m.ctrl.SetPrice(priceCycle[m.price])
	case "l":
		m.level = next(m.level, len(levelCycle))
		m.ctrl.SetLevel(levelCycle[m.level])
	case "c":
		m.category = next(m.category, len(m.categories))
		m.ctrl.SetCategory(m.categories[m.category])
	case "r":
		m.category, m.level, m.price, m.sort = 0, 0, 0, 0
		m.input.SetValue("")
		m.ctrl.Reset()
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Edupress courses"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	p := m.ctrl.Params()
	b.WriteString(strings.Join([]string{
		filterLabel("category", p.Category),
		filterLabel("level", p.Level),
		filterLabel("price", string(p.Price)),
		filterLabel("sort", string(p.Sort)),
	}, "  "))
	b.WriteString("\n\n")

	switch {
	case m.ctrl.Loading():
		b.WriteString(styles.loading.Render("Searching..."))
		b.WriteString("\n")
	case m.ctrl.Err() != nil:
		b.WriteString(styles.error.Render("Could not load courses: " + m.ctrl.Err().Error()))
		b.WriteString("\n")
	default:
		var out strings.Builder
		writeCourses(&out, m.ctrl.View())
		b.WriteString(out.String())
	}

	b.WriteString("\n")
	b.WriteString(styles.muted.Render(helpLine(m.input.Focused())))
	return b.String()
}

func filterLabel(name, value string) string {
	return styles.muted.Render(name+":") + " " + styles.active.Render(value)
}

func helpLine(typing bool) string {
	if typing {
		return "tab: filters  esc: quit"
	}
	return "/: search  n/p: page  s: sort  f: price  l: level  c: category  r: reset  q: quit"
}

func next(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i + 1) % n
}

// categoryCycle returns listing.All followed by the distinct course
// categories in name order.
func categoryCycle(courses []domain.Course) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, c := range courses {
		if c.Category == "" {
			continue
		}
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		names = append(names, c.Category)
	}
	slices.Sort(names)
	return append([]string{listing.All}, names...)
}

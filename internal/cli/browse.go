package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitlane/pkg/errors"
	"github.com/matzehuels/gitlane/pkg/pipeline"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

// browseCommand opens the graph in a scrollable terminal view.
func (c *CLI) browseCommand() *cobra.Command {
	var f graphFlags

	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Page through the history graph in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), cmd, pathArg(args), &f)
		},
	}
	f.addLoadFlags(cmd)
	f.addColorFlag(cmd)
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, cmd *cobra.Command, path string, f *graphFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	f.applyConfig(cmd, cfg)
	if err := validateColor(f.color); err != nil {
		return err
	}
	f.format = pipeline.FormatText

	opts := f.options(path, cfg)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	m := newBrowseModel(ctx, runner, opts, laneOptions(f.color, os.Stdout)...)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return final.(browseModel).err
}

// =============================================================================
// Key Bindings
// =============================================================================

type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var browseKeys = browseKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("b/pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "f", " "), key.WithHelp("f/pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Refresh, k.Help, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom},
		{k.Refresh, k.Help, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

type graphLoadedMsg struct {
	content string
	commits int
	lanes   int
	cached  bool
}

type graphErrMsg struct{ err error }

// browseModel shows "Loading..." until the first load finishes, then the
// graph or the error.
type browseModel struct {
	ctx      context.Context
	runner   *pipeline.Runner
	opts     pipeline.Options
	textOpts []text.Option

	viewport viewport.Model
	help     help.Model
	ready    bool
	loading  bool

	result graphLoadedMsg
	err    error
}

const (
	browseHeaderHeight = 2
	browseFooterHeight = 1
)

var (
	browseHeaderStyle = lipgloss.NewStyle().Foreground(colorGray)
	browseEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)

func newBrowseModel(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, textOpts ...text.Option) browseModel {
	return browseModel{
		ctx:      ctx,
		runner:   runner,
		opts:     opts,
		textOpts: textOpts,
		help:     help.New(),
		loading:  true,
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.load(false)
}

func (m browseModel) load(refresh bool) tea.Cmd {
	opts := m.opts
	opts.Refresh = opts.Refresh || refresh
	return func() tea.Msg {
		res, err := m.runner.Execute(m.ctx, opts, m.textOpts...)
		if err != nil {
			return graphErrMsg{err: err}
		}
		return graphLoadedMsg{
			content: strings.TrimSuffix(string(res.Output), "\n"),
			commits: res.Stats.Commits,
			lanes:   res.Stats.MaxWidth,
			cached:  res.CacheInfo.HistoryHit,
		}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-browseHeaderHeight-browseFooterHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.help.Width = msg.Width
		m.setContent()
		return m, nil

	case graphLoadedMsg:
		m.loading = false
		m.err = nil
		m.result = msg
		m.setContent()
		return m, nil

	case graphErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browseKeys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, browseKeys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load(true)
		case key.Matches(msg, browseKeys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, browseKeys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *browseModel) setContent() {
	if !m.ready {
		return
	}
	if m.result.content == "" {
		m.viewport.SetContent(browseEmptyStyle.Render("No commits."))
		return
	}
	m.viewport.SetContent(m.result.content)
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(StyleError.Render("Error: " + errors.UserMessage(m.err)))
		b.WriteString("\n")
	case !m.ready || (m.loading && m.result.content == ""):
		b.WriteString(StyleDim.Render("Loading..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(browseKeys))
	return b.String()
}

func (m browseModel) header() string {
	title := StyleTitle.Render(appName) + " " + StyleValue.Render(m.opts.Path)
	if m.loading || m.err != nil {
		return title
	}
	status := iconFresh
	if m.result.cached {
		status = iconCached
	}
	stats := fmt.Sprintf("%d commits · %d lanes · %s", m.result.commits, m.result.lanes, status)
	if m.ready && m.result.content != "" {
		stats += fmt.Sprintf(" · %3.f%%", m.viewport.ScrollPercent()*100)
	}
	return title + "  " + browseHeaderStyle.Render(stats)
}

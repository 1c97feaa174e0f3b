// Package tui is the terminal flashcard player. It drives a quiz
// session against a running server: one question at a time, a typed
// answer, reveal, advance.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ardikafs/kartusoal/internal/identity"
	"github.com/ardikafs/kartusoal/internal/model"
)

// quizAPI is the slice of the HTTP client the player needs.
type quizAPI interface {
	Start(ctx context.Context, identity, codeName string) (model.Session, bool, error)
	Advance(ctx context.Context, identity, codeName string, number int) (model.Session, error)
	Delete(ctx context.Context, identity, codeName string) error
}

type state int

const (
	stateLoading state = iota
	stateQuestion
	stateRevealed
	stateCompleted
	stateError
)

type sessionLoadedMsg struct {
	session model.Session
	isNew   bool
	err     error
}

type advancedMsg struct {
	session model.Session
	err     error
}

type finishedMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	questionStyle = lipgloss.NewStyle().Padding(1, 0)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Padding(1, 0)
	yoursStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Player is the Bubble Tea model for one quiz run.
type Player struct {
	api      quizAPI
	ids      identity.Store
	codeName string

	identity string
	session  model.Session
	typed    string
	input    textinput.Model
	state    state
	errMsg   string
	width    int
}

// NewPlayer creates a player for the given topic.
func NewPlayer(api quizAPI, ids identity.Store, codeName string) Player {
	ti := textinput.New()
	ti.Placeholder = "jawaban Anda"
	ti.Focus()
	return Player{
		api:      api,
		ids:      ids,
		codeName: codeName,
		input:    ti,
		state:    stateLoading,
	}
}

func (p Player) Init() tea.Cmd {
	return tea.Batch(p.input.Focus(), p.startSession())
}

func (p Player) startSession() tea.Cmd {
	return func() tea.Msg {
		id, err := p.ids.GetOrCreate()
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sess, isNew, err := p.api.Start(ctx, id, p.codeName)
		return sessionLoadedMsg{session: sess, isNew: isNew, err: err}
	}
}

func (p Player) advance() tea.Cmd {
	id, codeName, next := p.identity, p.codeName, p.session.CurrentNumber+1
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sess, err := p.api.Advance(ctx, id, codeName, next)
		return advancedMsg{session: sess, err: err}
	}
}

// finish deletes the session server-side and forgets the local
// identity. The local clear happens even when the remote delete
// fails: a fresh identity simply starts a fresh session next time.
func (p Player) finish() tea.Cmd {
	id, codeName := p.identity, p.codeName
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = p.api.Delete(ctx, id, codeName)
		_ = p.ids.Clear()
		return finishedMsg{}
	}
}

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil

	case sessionLoadedMsg:
		if msg.err != nil {
			p.state = stateError
			p.errMsg = msg.err.Error()
			return p, nil
		}
		id, _ := p.ids.Get()
		p.identity = id
		p.session = msg.session
		if p.session.Completed() {
			p.state = stateCompleted
		} else {
			p.state = stateQuestion
		}
		return p, nil

	case advancedMsg:
		if msg.err != nil {
			p.state = stateError
			p.errMsg = msg.err.Error()
			return p, nil
		}
		p.session = msg.session
		p.typed = ""
		p.input.Reset()
		if p.session.Completed() {
			p.state = stateCompleted
		} else {
			p.state = stateQuestion
		}
		return p, nil

	case finishedMsg:
		return p, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// Plain quit keeps the session for a later resume.
			return p, tea.Quit
		case "ctrl+d":
			return p, p.finish()
		}

		switch p.state {
		case stateQuestion:
			if msg.String() == "enter" {
				p.typed = p.input.Value()
				p.state = stateRevealed
				return p, nil
			}
		case stateRevealed:
			if msg.String() == "enter" {
				return p, p.advance()
			}
			return p, nil
		case stateCompleted:
			if msg.String() == "enter" {
				return p, p.finish()
			}
			return p, nil
		case stateError:
			return p, tea.Quit
		}
	}

	if p.state == stateQuestion {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p Player) View() tea.View {
	return tea.NewView(p.view())
}

func (p Player) view() string {
	var b strings.Builder

	switch p.state {
	case stateLoading:
		b.WriteString("memuat sesi...\n")

	case stateError:
		b.WriteString(errorStyle.Render("error: "+p.errMsg) + "\n")
		b.WriteString(helpStyle.Render("tekan tombol apa saja untuk keluar"))

	case stateCompleted:
		b.WriteString(titleStyle.Render(p.session.Document.Title) + "\n\n")
		b.WriteString(fmt.Sprintf("Selesai! Semua %d soal sudah dilewati.\n", p.session.Document.TotalQuestions))
		b.WriteString(helpStyle.Render("enter: selesai dan hapus sesi • ctrl+c: keluar"))

	case stateQuestion, stateRevealed:
		q, ok := p.session.Document.QuestionAt(p.session.CurrentNumber)
		if !ok {
			b.WriteString(errorStyle.Render("posisi soal di luar jangkauan"))
			break
		}
		b.WriteString(titleStyle.Render(p.session.Document.Title))
		b.WriteString(categoryStyle.Render(fmt.Sprintf("  [%s]  soal %d/%d",
			p.session.Document.CategoryAt(p.session.CurrentNumber),
			p.session.CurrentNumber, p.session.Document.TotalQuestions)))
		b.WriteString("\n")
		b.WriteString(questionStyle.Render(q.Question) + "\n")

		if p.state == stateQuestion {
			b.WriteString(p.input.View() + "\n")
			b.WriteString(helpStyle.Render("enter: lihat jawaban • ctrl+d: akhiri sesi • ctrl+c: keluar"))
		} else {
			if p.typed != "" {
				b.WriteString(yoursStyle.Render("jawaban Anda: "+p.typed) + "\n")
			}
			b.WriteString(answerStyle.Render("jawaban: "+q.Answer) + "\n")
			b.WriteString(helpStyle.Render("enter: soal berikutnya • ctrl+c: keluar"))
		}
	}

	return b.String()
}

// Run starts the player program.
func Run(api quizAPI, ids identity.Store, codeName string) error {
	p := tea.NewProgram(NewPlayer(api, ids, codeName))
	_, err := p.Run()
	return err
}

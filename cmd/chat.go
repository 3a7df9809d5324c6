package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mynotes/internal/assistant/interpreter"
	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/service"
	"mynotes/internal/assistant/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an assistant session on the same data the server uses.
Without an AI key every message is answered by the local interpreter.
Type "exit" or press Ctrl-D to quit.`,
	RunE: runChat,
}

var (
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	styleNotice    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	stylePrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// terminalSink prints assistant replies and notifications. The user's own
// messages are already on screen.
type terminalSink struct {
	out   io.Writer
	color bool
}

func (t *terminalSink) render(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

func (t *terminalSink) MessageAdded(m model.ChatMessage) {
	if m.Role != model.RoleAssistant {
		return
	}
	fmt.Fprintln(t.out, t.render(styleAssistant, m.Content))
}

func (t *terminalSink) Notify(n session.Notification) {
	fmt.Fprintln(t.out, t.render(styleNotice, n.Title+": "+n.Description))
}

func (t *terminalSink) PendingChanged(bool)   {}
func (t *terminalSink) InputChanged(string)   {}
func (t *terminalSink) ListeningChanged(bool) {}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, db := openStore(ctx)
	if db != nil {
		defer db.Close()
	}

	completer, err := service.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	proxy := service.NewProxy(completer, cfg.AI.Temperature, cfg.AI.MaxTokens)

	out := cmd.OutOrStdout()
	sink := &terminalSink{out: out, color: isTerminal(out)}
	s := session.New(store, proxy, interpreter.New(store), sink)

	// The greeting was added before the sink could see it.
	for _, m := range s.History() {
		sink.MessageAdded(m)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, sink.render(stylePrompt, "> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		s.Send(ctx, line)
	}
}

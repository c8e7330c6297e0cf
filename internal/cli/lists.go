package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roach88/todos/internal/todo"
)

// ListsOptions holds flags for the lists command.
type ListsOptions struct {
	DatabaseOptions
	Todos bool
}

// ListSummary is one list in the lists command output.
type ListSummary struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Completed bool        `json:"completed"`
	Remaining int         `json:"remaining"`
	Total     int         `json:"total"`
	Todos     []todo.Todo `json:"todos,omitempty"`
}

// NewListsCommand creates the lists command.
func NewListsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListsOptions{DatabaseOptions: DatabaseOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Print the lists stored in the database",
		Long: `Print every list in the database, incomplete lists first, with the
number of remaining todos. With --todos each list's todos are printed too.

Example:
  todos lists
  todos lists --todos --db ./todos.db
  todos lists --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLists(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database DSN or SQLite path (overrides DATABASE_URL)")
	cmd.Flags().BoolVar(&opts.Todos, "todos", false, "include each list's todos")

	return cmd
}

func runLists(opts *ListsOptions, cmd *cobra.Command) error {
	cfg, err := opts.databaseConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	lists, err := st.AllLists(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read lists", err)
	}

	summaries := summarize(lists, opts.Todos)
	return opts.formatter(cmd).Success(summaries, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, renderLists(w, summaries))
		return err
	})
}

// summarize orders lists and todos by the completion rules.
func summarize(lists []todo.List, withTodos bool) []ListSummary {
	sorted := todo.SortLists(lists)
	out := make([]ListSummary, 0, len(sorted))
	for _, l := range sorted {
		s := ListSummary{
			ID:        l.ID,
			Title:     l.Title,
			Completed: todo.IsListCompleted(l),
			Remaining: todo.RemainingCount(l),
			Total:     len(l.Todos),
		}
		if withTodos {
			s.Todos = todo.SortTodos(l.Todos)
		}
		out = append(out, s)
	}
	return out
}

// renderLists draws the summaries in a bordered panel. Styles come from a
// renderer bound to w, so color is dropped when w is not a terminal.
func renderLists(w io.Writer, lists []ListSummary) string {
	r := lipgloss.NewRenderer(w)
	var (
		titleStyle   = r.NewStyle().Bold(true)
		doneStyle    = r.NewStyle().Foreground(lipgloss.Color("42"))
		pendingStyle = r.NewStyle().Foreground(lipgloss.Color("214"))
		mutedStyle   = r.NewStyle().Faint(true)
		panelStyle   = r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(0, 1)
	)

	var lines []string
	done := 0
	for _, l := range lists {
		if l.Completed {
			done++
		}
	}
	lines = append(lines, fmt.Sprintf("%s  %d lists, %d complete",
		titleStyle.Render("Todos"), len(lists), done))
	lines = append(lines, "")

	if len(lists) == 0 {
		lines = append(lines, mutedStyle.Render("no lists"))
	}
	for _, l := range lists {
		mark := pendingStyle.Render("☐")
		if l.Completed {
			mark = doneStyle.Render("☑")
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", mark, l.Title,
			mutedStyle.Render(fmt.Sprintf("%d/%d remaining", l.Remaining, l.Total))))

		for _, t := range l.Todos {
			box := "•"
			if t.Completed {
				box = "✔"
			}
			lines = append(lines, "    "+mutedStyle.Render(box)+" "+t.Title)
		}
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

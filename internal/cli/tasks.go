package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/chepyr/go-task-board/internal/taskclient"
	"github.com/spf13/cobra"
)

const shortIDLen = 8

var boardColumns = []struct {
	status models.Status
	title  string
}{
	{models.StatusNotStarted, "NOT STARTED"},
	{models.StatusWIP, "IN PROGRESS"},
	{models.StatusCompleted, "COMPLETED"},
}

func listCmd(a *app) *cobra.Command {
	var active, asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "board"},
		Short:   "Show your tasks grouped by status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			if err := a.tasks.List(a.context(cmd), s); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				tasks := a.tasks.Tasks()
				if active {
					tasks = a.tasks.Active()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			if active {
				printTasks(out, a.tasks.Active())
				return nil
			}
			printBoard(out, a.tasks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only tasks that are not completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

func addCmd(a *app) *cobra.Command {
	var d taskclient.Draft
	var priority, status string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			d.Title = strings.Join(args, " ")
			d.Priority = models.Priority(priority)
			d.Status = models.Status(status)
			task, err := a.tasks.Create(a.context(cmd), s, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", shortID(task.ID), task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&d.Description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority: "+models.PriorityList())
	cmd.Flags().StringVarP(&status, "status", "s", "", "initial status: "+models.StatusList())
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("invalid status %q, must be one of: %s", args[1], models.StatusList())
			}
			return a.updateTask(cmd, args[0], func(s taskclient.Session, task models.Task) (models.Task, error) {
				if !slices.Contains(task.Status.Transitions(), status) {
					return models.Task{}, fmt.Errorf("task %s is already %s", shortID(task.ID), status)
				}
				return a.tasks.SetStatus(a.context(cmd), s, task.ID, status)
			})
		},
	}
}

func doneCmd(a *app) *cobra.Command {
	return toggleCmd(a, "done <id>", "Mark a task completed", true)
}

func reopenCmd(a *app) *cobra.Command {
	return toggleCmd(a, "reopen <id>", "Move a completed task back to not started", false)
}

func toggleCmd(a *app, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateTask(cmd, args[0], func(s taskclient.Session, task models.Task) (models.Task, error) {
				return a.tasks.ToggleCompleted(a.context(cmd), s, task.ID, completed)
			})
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var title, description, priority, status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description, priority or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				st := models.Status(status)
				patch.Status = &st
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to change, pass at least one of --title, --description, --priority, --status")
			}
			return a.updateTask(cmd, args[0], func(s taskclient.Session, task models.Task) (models.Task, error) {
				return a.tasks.Update(a.context(cmd), s, task.ID, patch)
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority: "+models.PriorityList())
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status: "+models.StatusList())
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSession()
			if err != nil {
				return err
			}
			task, err := a.resolveTask(cmd, s, args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Delete(a.context(cmd), s, task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", shortID(task.ID), task.Title)
			return nil
		},
	}
}

func (a *app) updateTask(cmd *cobra.Command, ref string, update func(taskclient.Session, models.Task) (models.Task, error)) error {
	s, err := a.loadSession()
	if err != nil {
		return err
	}
	current, err := a.resolveTask(cmd, s, ref)
	if err != nil {
		return err
	}
	task, err := update(s, current)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q [%s, %s]\n", shortID(task.ID), task.Title, task.Priority, task.Status)
	return nil
}

// resolveTask accepts a full task id or a unique prefix of one.
func (a *app) resolveTask(cmd *cobra.Command, s taskclient.Session, ref string) (models.Task, error) {
	if err := a.tasks.List(a.context(cmd), s); err != nil {
		return models.Task{}, err
	}
	var matches []models.Task
	for _, t := range a.tasks.Tasks() {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("%q matches %d tasks, use a longer id", ref, len(matches))
	}
}

func printBoard(out io.Writer, c *taskclient.Client) {
	counts := c.Counts()
	for i, col := range boardColumns {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d)\n", col.title, counts[col.status])
		printTasks(out, c.ByStatus(col.status))
	}
}

func printTasks(out io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range tasks {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", shortID(t.ID), t.Priority, t.Title)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

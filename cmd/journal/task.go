package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suhass434/journal-assistant/internal/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Create tasks from natural language",
	Long:  `Sends free-form text to the extraction endpoint. One input can produce several tasks ("buy milk and call mom tomorrow").`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's tasks grouped by status",
	RunE:  runTaskToday,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [text]",
	Short: "Mark tasks complete from natural language",
	Long:  `Matches a statement like "done with the report" or "finished 40 questions" against the day's tasks.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDone,
}

var taskOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Show overdue tasks",
	RunE:  runTaskOverdue,
}

var taskSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the AI daily summary",
	RunE:  runTaskSummary,
}

var taskProgressCmd = &cobra.Command{
	Use:   "progress [task-id] [text]",
	Short: "Record progress on a quantitative task",
	Long:  `Updates a quantitative task either with --amount, or by parsing free text like "solved 20 more".`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskProgress,
}

var (
	taskDate     string
	taskStatus   string
	taskPriority string

	progressAmount int
	progressSet    bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskTodayCmd, taskDoneCmd, taskOverdueCmd, taskSummaryCmd, taskProgressCmd)

	taskListCmd.Flags().StringVar(&taskDate, "date", "", "Filter by scheduled date (YYYY-MM-DD)")
	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in_progress, completed, cancelled)")
	taskListCmd.Flags().StringVar(&taskPriority, "priority", "", "Filter by priority (low, medium, high, urgent)")

	taskDoneCmd.Flags().StringVar(&taskDate, "date", "", "Which day's tasks to match against (YYYY-MM-DD)")
	taskSummaryCmd.Flags().StringVar(&taskDate, "date", "", "Date to summarize (YYYY-MM-DD)")

	taskProgressCmd.Flags().IntVar(&progressAmount, "amount", -1, "Amount completed (skips text parsing)")
	taskProgressCmd.Flags().BoolVar(&progressSet, "set", false, "Treat --amount as the absolute completed count instead of an increment")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	text := joinArgs(args)
	resp, err := apiPost("/api/tasks/extract", map[string]string{"text": text})
	if err != nil {
		return err
	}

	var result struct {
		Tasks                 []models.Task `json:"tasks"`
		NeedsClarification    bool          `json:"needs_clarification"`
		ClarificationQuestion string        `json:"clarification_question"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	for _, task := range result.Tasks {
		fmt.Printf("Created: %s  (%s %s, %s)\n", task.Name, task.ScheduledDate, task.ScheduledTime, task.Priority)
	}
	if result.NeedsClarification && result.ClarificationQuestion != "" {
		fmt.Printf("\n%s\n", result.ClarificationQuestion)
	}
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if taskDate != "" {
		q.Set("date", taskDate)
	}
	if taskStatus != "" {
		q.Set("status", taskStatus)
	}
	if taskPriority != "" {
		q.Set("priority", taskPriority)
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var result struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	printTaskTable(result.Tasks)
	return nil
}

func runTaskToday(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/tasks/today")
	if err != nil {
		return err
	}

	var result struct {
		Date       string        `json:"date"`
		Pending    []models.Task `json:"pending"`
		InProgress []models.Task `json:"in_progress"`
		Completed  []models.Task `json:"completed"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Tasks for %s\n\n", result.Date)
	printGroup("Pending", result.Pending)
	printGroup("In progress", result.InProgress)
	printGroup("Completed", result.Completed)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	body := map[string]string{"text": joinArgs(args)}
	if taskDate != "" {
		body["date"] = taskDate
	}
	resp, err := apiPost("/api/tasks/complete", body)
	if err != nil {
		return err
	}

	var result struct {
		Message               string        `json:"message"`
		CompletedTasks        []models.Task `json:"completed_tasks"`
		UpdatedTasks          []models.Task `json:"updated_tasks"`
		NeedsClarification    bool          `json:"needs_clarification"`
		ClarificationQuestion string        `json:"clarification_question"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Println(result.Message)
		return nil
	}
	for _, task := range result.CompletedTasks {
		fmt.Printf("Completed: %s\n", task.Name)
	}
	for _, task := range result.UpdatedTasks {
		if task.Progress != nil {
			fmt.Printf("Progress:  %s  %d/%d %s\n", task.Name, task.Progress.Completed, task.Progress.Total, task.Progress.Unit)
		}
	}
	if result.NeedsClarification && result.ClarificationQuestion != "" {
		fmt.Printf("\n%s\n", result.ClarificationQuestion)
	}
	return nil
}

func runTaskOverdue(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/tasks/overdue")
	if err != nil {
		return err
	}

	var result struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	printTaskTable(result.Tasks)
	return nil
}

func runTaskSummary(cmd *cobra.Command, args []string) error {
	path := "/api/tasks/summary"
	if taskDate != "" {
		path += "?date=" + url.QueryEscape(taskDate)
	}
	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var result struct {
		Date    string `json:"date"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	fmt.Printf("%s\n\n%s\n", result.Date, result.Summary)
	return nil
}

func runTaskProgress(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	body := map[string]interface{}{}
	if progressAmount >= 0 {
		body["amount"] = progressAmount
		if progressSet {
			body["is_increment"] = false
		}
	} else {
		if len(args) < 2 {
			return fmt.Errorf("provide --amount or a text description, e.g. %q", "solved 20 more")
		}
		body["progress_text"] = joinArgs(args[1:])
	}

	resp, err := apiPost("/api/tasks/"+taskID+"/progress", body)
	if err != nil {
		return err
	}

	var result struct {
		Task models.Task `json:"task"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	t := result.Task
	if t.Progress != nil {
		fmt.Printf("%s: %d/%d %s (%s)\n", t.Name, t.Progress.Completed, t.Progress.Total, t.Progress.Unit, t.Status)
	} else {
		fmt.Printf("%s: %s\n", t.Name, t.Status)
	}
	return nil
}

func printTaskTable(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDATE\tSTATUS\tPRIORITY")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.Name, t.ScheduledDate, t.Status, t.Priority)
	}
	w.Flush()
}

func printGroup(label string, tasks []models.Task) {
	fmt.Printf("%s (%d)\n", label, len(tasks))
	for _, t := range tasks {
		marker := " "
		if t.Progress != nil {
			marker = fmt.Sprintf(" [%d/%d]", t.Progress.Completed, t.Progress.Total)
		}
		fmt.Printf("  - %s%s\n", t.Name, marker)
	}
	fmt.Println()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func joinArgs(args []string) string {
	text := ""
	for i, a := range args {
		if i > 0 {
			text += " "
		}
		text += a
	}
	return text
}

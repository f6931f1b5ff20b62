package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suhass434/journal-assistant/internal/models"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage long-horizon goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new goal",
	RunE:  runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	RunE:  runGoalList,
}

var goalProgressCmd = &cobra.Command{
	Use:   "progress [goal-id]",
	Short: "Record progress on a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalProgress,
}

var (
	goalTitle string
	goalDesc  string
	goalNote  string
)

func init() {
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalProgressCmd)

	goalAddCmd.Flags().StringVar(&goalTitle, "title", "", "Goal title (required)")
	goalAddCmd.Flags().StringVar(&goalDesc, "desc", "", "Goal description")
	goalAddCmd.MarkFlagRequired("title")

	goalProgressCmd.Flags().StringVar(&goalNote, "note", "", "Progress note")
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/goals", map[string]string{
		"title":       goalTitle,
		"description": goalDesc,
	})
	if err != nil {
		return err
	}

	var result struct {
		Goal models.Goal `json:"goal"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	fmt.Printf("Created goal: %s\n", result.Goal.ID)
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/goals")
	if err != nil {
		return err
	}

	var result struct {
		Goals []models.Goal `json:"goals"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	if len(result.Goals) == 0 {
		fmt.Println("No goals found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPROGRESS NOTES")
	for _, g := range result.Goals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", shortID(g.ID), g.Title, g.Status, len(g.Progress))
	}
	return w.Flush()
}

func runGoalProgress(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/goals/"+args[0]+"/progress", map[string]string{"note": goalNote})
	if err != nil {
		return err
	}

	var result struct {
		Goal models.Goal `json:"goal"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	fmt.Printf("Recorded progress on %q (%d notes)\n", result.Goal.Title, len(result.Goal.Progress))
	return nil
}

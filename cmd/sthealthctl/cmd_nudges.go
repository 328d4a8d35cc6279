package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// evaluateCmd asks the scheduler to look for a nudge opportunity now
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Trigger a nudge opportunity check",
	Long: `Asks the scheduler to evaluate for a nudge opportunity immediately
instead of waiting for the periodic loop. The check runs in the
background; use 'sthealthctl status' to see the outcome.`,
	RunE: runEvaluate,
}

// statusCmd shows the scheduler state and any live nudge
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scheduler state and the current nudge, if any",
	RunE:  runStatus,
}

// ackCmd acknowledges the displayed nudge
var ackCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge the currently displayed nudge",
	RunE:  runAck,
}

// dismissCmd dismisses the displayed nudge
var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the currently displayed nudge",
	RunE:  runDismiss,
}

var historyLimit int

// historyCmd lists archived nudges
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past nudges and how they were resolved",
	RunE:  runHistory,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	var resp models.NudgeStateResponse
	if err := newClient().post("/nudges/evaluate", nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Evaluation requested, scheduler is %s\n", resp.State)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	var resp models.NudgeStateResponse
	if err := newClient().get("/nudges/current", &resp); err != nil {
		return err
	}
	printState(&resp)
	return nil
}

func runAck(cmd *cobra.Command, args []string) error {
	var resp models.NudgeStateResponse
	if err := newClient().post("/nudges/current/acknowledge", nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Acknowledged, scheduler is %s\n", resp.State)
	return nil
}

func runDismiss(cmd *cobra.Command, args []string) error {
	var resp models.NudgeStateResponse
	if err := newClient().post("/nudges/current/dismiss", nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Dismissed, scheduler is %s\n", resp.State)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	var resp models.NudgeListResponse
	if err := newClient().get("/nudges?limit="+strconv.Itoa(historyLimit), &resp); err != nil {
		return err
	}
	if len(resp.Nudges) == 0 {
		fmt.Println("No nudges delivered yet.")
		return nil
	}

	for _, n := range resp.Nudges {
		ts := time.Unix(n.GeneratedAt, 0).UTC().Format("2006-01-02 15:04")
		outcome := "pending"
		if n.Response != nil {
			outcome = string(*n.Response)
		}
		fmt.Printf("%s  %-20s %-12s %s\n", ts, n.Type, outcome, n.Content)
	}
	fmt.Printf("Total: %d nudges\n", resp.Total)
	return nil
}

func printState(st *models.NudgeStateResponse) {
	fmt.Printf("State: %s\n", st.State)
	if !st.Visible || st.Nudge == nil {
		return
	}
	n := st.Nudge
	fmt.Printf("Nudge: %s (%s)\n", n.Type, n.Framework)
	fmt.Printf("  %s\n", n.Content)
	if n.DeliveredAt != nil {
		fmt.Printf("Delivered: %s\n", time.Unix(*n.DeliveredAt, 0).UTC().Format(time.RFC3339))
	}
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of nudges to list")

	rootCmd.AddCommand(evaluateCmd, statusCmd, ackCmd, dismissCmd, historyCmd)
}

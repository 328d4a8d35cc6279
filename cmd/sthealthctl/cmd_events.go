package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

var (
	recordDuration  float64
	recordIntensity float64
	recordAt        int64
	recordMeta      []string
)

// recordCmd records one engagement event
var recordCmd = &cobra.Command{
	Use:   "record <context> <item-identifier> <interaction>",
	Short: "Record a single engagement event",
	Long: `Records one engagement event against the server.

Contexts:     reflection, workshop, atlas, cards, profile, onboarding
Interactions: view, focus, explore, hesitate, reconsider, abandon, complete, revisit

Example:
  sthealthctl record workshop hypothesis_self_worth hesitate --duration 12.5 --intensity 0.8`,
	Args: cobra.ExactArgs(3),
	RunE: runRecord,
}

var (
	eventsConcept string
	eventsContext string
	eventsSince   int64
	eventsUntil   int64
	eventsLimit   int
)

// eventsCmd lists recorded events
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded engagement events",
	RunE:  runEvents,
}

var resetYes bool

// resetCmd wipes the engagement log
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every recorded engagement event",
	RunE:  runReset,
}

func runRecord(cmd *cobra.Command, args []string) error {
	req := models.RecordEventRequest{
		Context:         models.EngagementContext(args[0]),
		ItemIdentifier:  args[1],
		InteractionType: models.InteractionType(args[2]),
		Duration:        recordDuration,
		Intensity:       recordIntensity,
		Timestamp:       recordAt,
	}
	for _, pair := range recordMeta {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --meta %q, want key=value", pair)
		}
		if req.Metadata == nil {
			req.Metadata = map[string]string{}
		}
		req.Metadata[k] = v
	}

	var resp models.RecordEventResponse
	if err := newClient().post("/events", req, &resp); err != nil {
		return err
	}
	fmt.Printf("Recorded %s\n", resp.ID)
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if eventsConcept != "" {
		q.Set("concept", eventsConcept)
	}
	if eventsContext != "" {
		q.Set("context", eventsContext)
	}
	if eventsSince > 0 {
		q.Set("since", strconv.FormatInt(eventsSince, 10))
	}
	if eventsUntil > 0 {
		q.Set("until", strconv.FormatInt(eventsUntil, 10))
	}
	if eventsLimit > 0 {
		q.Set("limit", strconv.Itoa(eventsLimit))
	}

	path := "/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp models.EventsResponse
	if err := newClient().get(path, &resp); err != nil {
		return err
	}
	if len(resp.Events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}

	for _, e := range resp.Events {
		ts := time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Printf("%s  %-10s %-10s %6.1fs  i=%.2f  %s\n",
			ts, e.Context, e.InteractionType, e.Duration, e.Intensity, e.ItemIdentifier)
	}
	fmt.Printf("Total: %d events\n", resp.Total)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		fmt.Print("This deletes every engagement event. Type 'yes' to continue: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var resp models.ResetResponse
	if err := newClient().post("/events/reset", nil, &resp); err != nil {
		return err
	}
	fmt.Printf("Deleted %d events\n", resp.Deleted)
	return nil
}

func init() {
	recordCmd.Flags().Float64Var(&recordDuration, "duration", 0, "event duration in seconds")
	recordCmd.Flags().Float64Var(&recordIntensity, "intensity", 0.5, "interaction intensity between 0 and 1")
	recordCmd.Flags().Int64Var(&recordAt, "at", 0, "unix timestamp of the event (default now)")
	recordCmd.Flags().StringArrayVar(&recordMeta, "meta", nil, "metadata entry as key=value (repeatable)")

	eventsCmd.Flags().StringVar(&eventsConcept, "concept", "", "substring match against item identifiers and metadata")
	eventsCmd.Flags().StringVar(&eventsContext, "context", "", "comma-separated context filter")
	eventsCmd.Flags().Int64Var(&eventsSince, "since", 0, "lower bound unix timestamp, inclusive")
	eventsCmd.Flags().Int64Var(&eventsUntil, "until", 0, "upper bound unix timestamp, inclusive")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "maximum number of events to return")

	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(recordCmd, eventsCmd, resetCmd)
}

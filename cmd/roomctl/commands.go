package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"roomsync/pkg/client"

	"github.com/spf13/cobra"
)

const (
	EnvServerURL     = "ROOMSYNC_URL"
	defaultServerURL = "http://localhost:8080"
)

var (
	serverURL   string
	timeout     time.Duration
	roomFilter  string
	activeOnly  bool
	statusQuery string
	byNumber    bool

	rootCmd = &cobra.Command{
		Use:           "roomctl",
		Short:         "Operate a running roomsync engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run a reconciliation sweep now and print its report",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}

	roomStatusCmd = &cobra.Command{
		Use:   "room-status [room id | room number]",
		Short: "Show a room with its current stay, upcoming bookings and open tasks",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoomStatus,
	}

	tasksCmd = &cobra.Command{
		Use:   "tasks",
		Short: "List the housekeeping queue in priority order",
		Args:  cobra.NoArgs,
		RunE:  runTasks,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create mongo collections, validators and indexes",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
)

func init() {
	defaultURL := os.Getenv(EnvServerURL)
	if defaultURL == "" {
		defaultURL = defaultServerURL
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "base URL of the roomsync service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	roomStatusCmd.Flags().BoolVar(&byNumber, "number", false, "look the room up by its number instead of its id")

	tasksCmd.Flags().StringVar(&roomFilter, "room", "", "only tasks for this room id")
	tasksCmd.Flags().BoolVar(&activeOnly, "active", true, "only pending and in-progress tasks")
	tasksCmd.Flags().StringVar(&statusQuery, "status", "", "comma separated task statuses")

	rootCmd.AddCommand(sweepCmd, roomStatusCmd, tasksCmd, migrateCmd)
}

func newClient() *client.HttpClient {
	return client.NewHttpClient(serverURL, timeout, client.WithUserAgent("roomctl"))
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := newClient().Post(ctx, "/api/v1/reconciliation/sweep", nil)
	if err != nil {
		return fmt.Errorf("sweep request failed: %w", err)
	}
	return printData(cmd, resp)
}

func runRoomStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := newClient().Get(ctx, roomStatusPath(args[0]))
	if err != nil {
		return fmt.Errorf("room status request failed: %w", err)
	}
	return printData(cmd, resp)
}

func roomStatusPath(ref string) string {
	if byNumber {
		return "/api/v1/rooms/number/" + url.PathEscape(ref) + "/status"
	}
	return "/api/v1/rooms/id/" + url.PathEscape(ref) + "/status"
}

func runTasks(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := newClient().Get(ctx, "/api/v1/housekeeping/tasks?"+taskQuery().Encode())
	if err != nil {
		return fmt.Errorf("task list request failed: %w", err)
	}
	return printData(cmd, resp)
}

func taskQuery() url.Values {
	q := url.Values{}
	if roomFilter != "" {
		q.Set("room_id", roomFilter)
	}
	if activeOnly {
		q.Set("active", "true")
	}
	if statusQuery != "" {
		q.Set("status", statusQuery)
	}
	return q
}

// printData writes the response's data field as indented JSON, or returns
// the service error.
func printData(cmd *cobra.Command, resp *client.Response) error {
	if !resp.OK() {
		return fmt.Errorf("%s: %s", resp.Status, resp.ErrorMessage())
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	return out.Encode(body.Data)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shahzod418/musicbox/pkg/musicbox"
	"github.com/shahzod418/musicbox/pkg/musicbox/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove storage namespaces whose owner no longer exists",
	Args:  cobra.NoArgs,
	RunE: withService(func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error {
		report, err := svc.SweepOrphans(ctx)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		if jsonOutput {
			return printJSON(out, report)
		}
		fmt.Fprintf(out, "Scanned: %d\n", report.Scanned)
		fmt.Fprintf(out, "Removed: %d\n", len(report.Removed))
		for _, owner := range report.Removed {
			fmt.Fprintf(out, "  %s/%d\n", owner.Role, owner.ID)
		}
		return nil
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE: withService(func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error {
		users, err := svc.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if jsonOutput {
			return printJSON(out, users)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tEMAIL\tNAME\tROLE\tCREATED\n")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	}),
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a user's role (user or admin)",
	Args:  cobra.ExactArgs(2),
	RunE: withService(func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		user, err := svc.UpdateUserRole(ctx, id, musicbox.Role(args[1]))
		if err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		if jsonOutput {
			return printJSON(out, user)
		}
		fmt.Fprintf(out, "User %d is now %s\n", user.ID, user.Role)
		return nil
	}),
}

var removeArtistCmd = &cobra.Command{
	Use:   "remove-artist <artist-id>",
	Short: "Remove an artist, its catalogue and its files",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := svc.RemoveArtist(ctx, id); err != nil {
			return fmt.Errorf("failed to remove artist: %w", err)
		}
		fmt.Fprintf(out, "Artist %d removed\n", id)
		return nil
	}),
}

var removeUserCmd = &cobra.Command{
	Use:   "remove-user <user-id>",
	Short: "Remove a user, its artist profile and all of their files",
	Args:  cobra.ExactArgs(1),
	RunE: withService(func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := svc.RemoveUser(ctx, id); err != nil {
			return fmt.Errorf("failed to remove user: %w", err)
		}
		fmt.Fprintf(out, "User %d removed\n", id)
		return nil
	}),
}

type serviceFunc func(ctx context.Context, svc musicbox.Service, out io.Writer, args []string) error

// newService builds the service commands run against; tests replace it
var newService = func(ctx context.Context) (musicbox.Service, func(), error) {
	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return cfg.BuildService(ctx, logger)
}

func withService(fn serviceFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, cleanup, err := newService(ctx)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer cleanup()
		return fn(ctx, svc, cmd.OutOrStdout(), args)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/database"
)

const queryTimeout = 10 * time.Second

// withPool connects, runs fn and closes the pool.
func withPool(ctx context.Context, cfg *config.Config, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return fn(ctx, pool)
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), database.Schema())
				return err
			}
			return withPool(cmd.Context(), cfg, func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}

func reviewsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Moderate customer reviews",
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List reviews waiting for moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), cfg, func(ctx context.Context, pool *pgxpool.Pool) error {
				rows, err := pool.Query(ctx, `
					SELECT id, name, rating, body
					FROM reviews
					WHERE status = 'pending'
					ORDER BY created_at`)
				if err != nil {
					return fmt.Errorf("list pending reviews: %w", err)
				}
				defer rows.Close()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tRATING\tNAME\tTEXT")
				for rows.Next() {
					var (
						id     int64
						name   string
						rating int
						body   string
					)
					if err := rows.Scan(&id, &name, &rating, &body); err != nil {
						return err
					}
					fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", id, rating, name, truncate(body, 60))
				}
				if err := rows.Err(); err != nil {
					return err
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(pending, setReviewStatusCmd(cfg, "approve", "approved"), setReviewStatusCmd(cfg, "reject", "rejected"))
	return cmd
}

func setReviewStatusCmd(cfg *config.Config, verb, status string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <review-id>",
		Short: "Mark a review " + status,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}
			return withPool(cmd.Context(), cfg, func(ctx context.Context, pool *pgxpool.Pool) error {
				tag, err := pool.Exec(ctx, `UPDATE reviews SET status = $2 WHERE id = $1`, id, status)
				if err != nil {
					return fmt.Errorf("update review %d: %w", id, err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("review %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Review %d %s.\n", id, status)
				return nil
			})
		},
	}
}

func bookingsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage bookings",
	}

	confirm := &cobra.Command{
		Use:   "confirm <booking-id>",
		Short: "Confirm a pending booking after an offline payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid booking id %q", args[0])
			}
			return withPool(cmd.Context(), cfg, func(ctx context.Context, pool *pgxpool.Pool) error {
				tag, err := pool.Exec(ctx, `
					UPDATE bookings
					SET status = 'confirmed', updated_at = NOW()
					WHERE id = $1 AND status = 'pending'`, id)
				if err != nil {
					return fmt.Errorf("confirm booking %d: %w", id, err)
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("booking %d not found or not pending", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Booking %d confirmed; its dates are now blocked.\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(confirm)
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

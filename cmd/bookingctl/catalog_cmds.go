package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/internal/recommend"
	"github.com/diagnosis/provence-bookings/internal/schedule"
	"github.com/diagnosis/provence-bookings/pkg/config"
)

func scheduleCmd(cfg *config.Config) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "schedule [experience-id]",
		Short: "List the offered weeks for the next twelve months",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			now := time.Now()
			if from != "" {
				if now, err = dates.Parse(from); err != nil {
					return err
				}
			}

			var slots []schedule.Slot
			if len(args) == 1 {
				if _, ok := cat.Lookup(args[0]); !ok {
					return fmt.Errorf("unknown experience %q", args[0])
				}
				slots = schedule.ForExperience(cat.Experiences, args[0], now)
			} else {
				slots = schedule.All(cat.Experiences, now)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHECK-IN\tCHECK-OUT\tEXPERIENCE\tDATES")
			for _, s := range slots {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.CheckIn, s.CheckOut, s.ExperienceID, s.Label)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "generate as of this date (YYYY-MM-DD)")
	return cmd
}

func recommendCmd(cfg *config.Config) *cobra.Command {
	var answers recommend.Answers

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Score the catalog against questionnaire answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			matches := recommend.Recommend(cat.Experiences, answers)
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No strong match; show all experiences.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tID\tNAME")
			for _, m := range matches {
				fmt.Fprintf(w, "%d\t%s\t%s\n", m.Score, m.ID, m.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&answers.Interests, "interest", nil, "interest tag (repeatable)")
	cmd.Flags().StringVar(&answers.ActivityLevel, "activity", "", "activity level: active, moderate or relaxed")
	cmd.Flags().StringVar(&answers.GroupPreference, "group", "", "group preference: social, mixed or solo")
	return cmd
}

func quoteCmd(cfg *config.Config) *cobra.Command {
	var (
		req      pricing.Request
		checkIn  string
		checkOut string
		occ      string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay with the configured rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			nights, err := dates.NightsBetween(checkIn, checkOut)
			if err != nil {
				return err
			}
			req.Nights = nights
			req.Occupancy = pricing.Occupancy(strings.ToLower(occ))

			b, err := pricing.NewEngine(cfg.Pricing.Policy(), cat).Quote(req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(w, "Nightly rate (per guest)\t%s\t\n", pricing.FormatUSD(b.NightlyRate))
			fmt.Fprintf(w, "Trip (%d nights)\t%s\t\n", b.Nights, pricing.FormatUSD(b.TripTotal))
			fmt.Fprintf(w, "Extra days (%d nights)\t%s\t\n", b.ExtraNights, pricing.FormatUSD(b.ExtraDaysTotal))
			fmt.Fprintf(w, "Add-ons\t%s\t\n", pricing.FormatUSD(b.AddOnsTotal))
			fmt.Fprintf(w, "Total\t%s\t\n", pricing.FormatUSD(b.TotalAmount))
			fmt.Fprintf(w, "Deposit\t%s\t\n", pricing.FormatUSD(b.DepositAmount))
			fmt.Fprintf(w, "Remaining balance\t%s\t\n", pricing.FormatUSD(b.RemainingBalance))
			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&occ, "occupancy", string(pricing.OccupancyDouble), "single or double")
	f.IntVar(&req.TotalGuests, "guests", 1, "total guests")
	f.StringVar(&checkIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	f.StringVar(&checkOut, "check-out", "", "check-out date (YYYY-MM-DD)")
	f.IntVar(&req.ExtraNightsBefore, "extra-before", 0, "extra nights before the trip")
	f.IntVar(&req.ExtraNightsAfter, "extra-after", 0, "extra nights after the trip")
	f.StringSliceVar(&req.AddOns, "add-on", nil, "add-on id (repeatable)")
	f.BoolVar(&req.DepositPaid, "deposit-paid", false, "subtract the deposit from the balance")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkordes/trip-logbook/internal/bootstrap"
	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/export"
	"github.com/pkordes/trip-logbook/internal/service"
)

// withApp opens the app for the duration of one command.
func withApp(open appOpener, run func(cmd *cobra.Command, app *bootstrap.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return run(cmd, app, args)
	}
}

func newStartCmd(open appOpener) *cobra.Command {
	var date, clock, km string

	cmd := &cobra.Command{
		Use:   "start <destination>",
		Short: "Start a trip",
		Long:  `Start a new trip. Date and time default to now. Fails while another trip is in progress.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			trip, err := app.Trips.StartTrip(cmd.Context(), service.StartTripInput{
				Date:          date,
				DepartureTime: clock,
				StartKm:       domain.Reading(km),
				Destination:   strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Trip %d to %s started on %s at %s (km %d)\n",
				trip.ID, trip.Destination, trip.Date, trip.DepartureTime(), trip.StartKm)
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "departure date, DD/MM/YYYY (default today)")
	cmd.Flags().StringVar(&clock, "time", "", "departure time, HH:MM (default now)")
	cmd.Flags().StringVar(&km, "km", "", "odometer reading at departure")
	_ = cmd.MarkFlagRequired("km")
	return cmd
}

func newFinishCmd(open appOpener) *cobra.Command {
	var date, clock, km string
	var id int64

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Finish the trip in progress",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			trip, err := app.Trips.FinishTrip(cmd.Context(), service.FinishTripInput{
				ID:          id,
				Date:        date,
				ArrivalTime: clock,
				EndKm:       domain.Reading(km),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Trip %d to %s finished: %d km in %s\n",
				trip.ID, trip.Destination, trip.Distance(), trip.Duration())
			return nil
		}),
	}
	cmd.Flags().Int64Var(&id, "id", 0, "trip to finish; must be the active one (optional)")
	cmd.Flags().StringVar(&date, "date", "", "arrival date, DD/MM/YYYY (default today)")
	cmd.Flags().StringVar(&clock, "time", "", "arrival time, HH:MM (default now)")
	cmd.Flags().StringVar(&km, "km", "", "odometer reading at arrival")
	_ = cmd.MarkFlagRequired("km")
	return cmd
}

func newActiveCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the trip in progress",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			trip, found, err := app.Trips.ActiveTrip(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No trip in progress.")
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderHistory([]domain.TripRecord{trip.ToRecord(trip.ID)}))
			return nil
		}),
	}
}

func newListCmd(open appOpener) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the trip history, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			records, err := app.Trips.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No trips recorded.")
				return nil
			}
			shown := domain.Paginate(records, domain.NewPaginationParams(&page, &limit))
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderHistory(shown))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d trips\n", len(shown), len(records))
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&limit, "limit", 0, "trips per page, max 100 (default all)")
	return cmd
}

func newUpdateCmd(open appOpener) *cobra.Command {
	var set map[string]string

	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Edit a recorded trip",
		Long:    `Edit fields of a recorded trip. Editable fields: data, hora_saida, km_inicial, destino.`,
		Example: `  logbook update 3 --set destino="Rio de Janeiro" --set km_inicial=1200`,
		Args:    cobra.ExactArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trip id %q", args[0])
			}
			patch, err := domain.ParseTripPatch(set)
			if err != nil {
				return err
			}
			trip, err := app.Trips.UpdateFields(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderHistory([]domain.TripRecord{trip.ToRecord(trip.ID)}))
			return nil
		}),
	}
	cmd.Flags().StringToStringVar(&set, "set", nil, "field=value to change (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newImportCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the history with the trips in a json, csv or xlsx file",
		Long: `Replace the whole history with the trips read from a file in one of the export
formats. Invalid rows are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			format, err := export.FormatFromPath(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := export.Decode(f, format)
			if err != nil {
				return err
			}
			result, err := app.Trips.ReplaceAll(cmd.Context(), records)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trips, skipped %d\n", result.Kept, result.Skipped)
			return nil
		}),
	}
}

func newExportCmd(open appOpener) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history to xlsx, json or csv",
		Args:  cobra.NoArgs,
		RunE: withApp(open, func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			f, err := domain.ParseExportFormat(format)
			if err != nil {
				return err
			}
			path, err := app.Export.ExportAs(cmd.Context(), f, output)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "xlsx (or excel), json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default a timestamped name in EXPORT_DIR)")
	return cmd
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/disease"
	"github.com/i474232898/crop-advisory/internal/planner"
	"github.com/i474232898/crop-advisory/internal/weather"
)

const dateLayout = "2006-01-02"

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the weather prefetch scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return errors.New("serve is not available in this build")
			}
			return app.Serve(cmd.Context())
		},
	}
}

func newPlanCmd(app *App) *cobra.Command {
	var (
		crop, sowing, location, asOf string
		acres                        float64
		asJSON                       bool
		temp, humidity, rain, wind   float64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the fertilizer plan for a field",
		Example: `  crop-advisor plan --crop Rice --sowing 2024-06-01 --location "Ludhiana, Punjab" --acres 2
  crop-advisor plan --crop Tomato --sowing 2024-03-10 --location Pune --acres 1 --temp 34 --humidity 85`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sowingDate, err := parseDate("sowing", sowing)
			if err != nil {
				return err
			}
			asOfDate, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}

			req := planner.Request{
				Crop:       crop,
				SowingDate: sowingDate,
				Location:   location,
				Acres:      acres,
				AsOf:       asOfDate,
			}
			if weatherFlagsSet(cmd) {
				req.Weather = &weather.WeatherSnapshot{
					Timestamp:   time.Now().UTC(),
					Temperature: temp,
					Humidity:    humidity,
					PrecipMM:    rain,
					WindKph:     wind,
					Condition:   weather.ConditionUnknown,
				}
			}

			plan, err := app.Planner.Plan(req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			fmt.Fprint(cmd.OutOrStdout(), planner.Summary(plan))
			return nil
		},
	}

	cmd.Flags().StringVar(&crop, "crop", "", "Crop name")
	cmd.Flags().StringVar(&sowing, "sowing", "", "Sowing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&location, "location", "", `Field location, e.g. "Ludhiana, Punjab"`)
	cmd.Flags().Float64Var(&acres, "acres", 0, "Field size in acres")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate on this date instead of today (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	cmd.Flags().Float64Var(&temp, "temp", 0, "Current temperature in °C")
	cmd.Flags().Float64Var(&humidity, "humidity", 0, "Current relative humidity in %")
	cmd.Flags().Float64Var(&rain, "rain", 0, "Recent rainfall in mm")
	cmd.Flags().Float64Var(&wind, "wind", 0, "Wind speed in km/h")
	for _, f := range []string{"crop", "sowing", "location", "acres"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func weatherFlagsSet(cmd *cobra.Command) bool {
	for _, f := range []string{"temp", "humidity", "rain", "wind"} {
		if cmd.Flags().Changed(f) {
			return true
		}
	}
	return false
}

func newStageCmd(app *App) *cobra.Command {
	var crop, sowing, asOf string

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Show the growth stage of a crop sown on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sowingDate, err := parseDate("sowing", sowing)
			if err != nil {
				return err
			}
			asOfDate, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}

			profile, st, err := app.Planner.Stage(crop, sowingDate, asOfDate)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s sown %s: %s (stage %d of %d, day %d)\n",
				profile.Name(), sowingDate.Format(dateLayout), st.Stage.Name,
				st.Index+1, len(profile.Stages()), st.ElapsedDays)
			switch {
			case st.SeasonComplete:
				fmt.Fprintln(out, "Season complete.")
			case st.NextStage != "":
				fmt.Fprintf(out, "%d days until %s.\n", st.DaysRemaining, st.NextStage)
			default:
				fmt.Fprintf(out, "%d days until harvest.\n", st.DaysRemaining)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&crop, "crop", "", "Crop name")
	cmd.Flags().StringVar(&sowing, "sowing", "", "Sowing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate on this date instead of today (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("crop")
	_ = cmd.MarkFlagRequired("sowing")

	return cmd
}

func newCropsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "crops [name]",
		Short: "List supported crops, or show one crop's stage table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			catalog := app.Planner.Catalog()

			if len(args) == 0 {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CROP\tSEASON (DAYS)\tBASE N/P/K PER ACRE")
				for _, c := range catalog.Crops() {
					b := c.Base()
					fmt.Fprintf(w, "%s\t%d\t%g/%g/%g\n", c.Name(), c.SeasonDays(), b.N, b.P, b.K)
				}
				return w.Flush()
			}

			c, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: base %s kg per acre, %d-day season\n", c.Name(), c.Base(), c.SeasonDays())
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tDAYS\tNPK MULTIPLIER")
			for _, s := range c.Stages() {
				fmt.Fprintf(w, "%s\t%d\t%g\n", s.Name, s.DurationDays, s.NPKMultiplier)
			}
			return w.Flush()
		},
	}
}

func newRegionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "region <location>",
		Short: "Show which agronomic region a location falls in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Planner.Regions().Resolve(strings.Join(args, " "))
			if err != nil {
				return err
			}
			m := res.Region.Multiplier
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (multipliers N %g, P %g, K %g)\n", res.City, res.Region.ID, m.N, m.P, m.K)
			if !res.Matched {
				fmt.Fprintln(cmd.OutOrStdout(), "Location not recognised; using the default region.")
			}
			return nil
		},
	}
}

func newDiseasesCmd(app *App) *cobra.Command {
	var language string
	var narration bool

	cmd := &cobra.Command{
		Use:   "diseases <crop>",
		Short: "Describe common diseases of a crop using the configured model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Diseases == nil {
				return disease.ErrNotConfigured
			}
			if language == "" {
				language = app.DefaultLanguage
			}
			res, err := app.Diseases.Analyze(cmd.Context(), args[0], language)
			if err != nil {
				return err
			}
			text := res.Text
			if narration {
				text = res.Narration
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Response language (default from ANALYSIS_LANGUAGE)")
	cmd.Flags().BoolVar(&narration, "narration", false, "Print plain text without markdown emphasis")

	return cmd
}

func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", agronomy.ErrInvalidInput, flag, s)
	}
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

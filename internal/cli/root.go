package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/i474232898/crop-advisory/internal/disease"
	"github.com/i474232898/crop-advisory/internal/planner"
)

// App holds the components CLI commands run against.
type App struct {
	Planner  *planner.Planner
	Diseases *disease.Analyzer

	// Serve runs the HTTP API until ctx is cancelled. Nil disables "serve".
	Serve func(ctx context.Context) error

	DefaultLanguage string
}

// NewRootCmd creates the top-level "crop-advisor" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "crop-advisor",
		Short:         "Fertilizer and weather advice for a planted field",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newPlanCmd(app),
		newStageCmd(app),
		newCropsCmd(app),
		newRegionCmd(app),
		newDiseasesCmd(app),
	)

	return root
}

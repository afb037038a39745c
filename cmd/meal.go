package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fitbridge/pkg/meal"
)

func newMealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meal HH:MM",
		Short: "Print the meal type for a local time of day",
		Long: `Prints the Fitbit meal type fitbridge assigns to a food logged at the
given local time when no mealTypeId is passed.`,
		Example: "  fitbridge meal 07:30\n  fitbridge meal 9:05",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse("15:04", args[0])
			if err != nil {
				return fmt.Errorf("expected a 24 hour time like 07:30, got %q", args[0])
			}
			m := meal.ClassifyTime(t)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", m, int(m))
			return nil
		},
	}
}

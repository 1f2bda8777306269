package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
)

var warmConcurrency int

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Resolve all restaurant addresses into the place store",
	Long: `Walks every restaurant and resolves its address, persisting the
coordinates. Addresses already in the place store cost a single read.
Failures are logged and skipped.`,
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 3, "concurrent resolutions")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	restaurants, err := database.NewRestaurantStore(database.Pool()).List(ctx)
	if err != nil {
		return err
	}

	addresses := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		if r.Address != "" {
			addresses = append(addresses, r.Address)
		}
	}

	warmer := geocoder.NewWarmer(newResolver(), warmConcurrency)
	return warmer.Warm(ctx, addresses)
}

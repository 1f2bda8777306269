package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
	httpclient "github.com/starburger/order-service/internal/http"
)

var geocodeForce bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address to coordinates through the place store",
	Long: `Resolves an address to latitude/longitude. Uses the place store
first; on a miss the external provider is called and the result persisted.
With --force the stored coordinates are dropped and resolved afresh.`,
	Args: cobra.ExactArgs(1),
	RunE: runGeocode,
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodeForce, "force", false, "drop stored coordinates and re-resolve")
	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, args []string) error {
	address := args[0]
	ctx := context.Background()

	resolver := newResolver()

	var (
		point geocoder.Point
		err   error
	)
	if geocodeForce {
		point, err = resolver.ForceResolve(ctx, address)
	} else {
		point, err = resolver.Resolve(ctx, address)
	}
	if err != nil {
		return fmt.Errorf("resolve %q: %w", address, err)
	}

	fmt.Printf("%s\nlatitude:  %f\nlongitude: %f\n", address, point.Latitude, point.Longitude)
	return nil
}

// newResolver builds a resolver from the loaded config and the shared pool.
func newResolver() *geocoder.Resolver {
	placeStore := database.NewPlaceStore(database.Pool())
	client := geocoder.NewClient(
		httpclient.NewClient(httpclient.Config{
			Timeout:           cfg.Geocoder.Timeout,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
			Burst:             cfg.Geocoder.Burst,
		}),
		geocoder.Config{
			BaseURL: cfg.Geocoder.BaseURL,
			APIKey:  cfg.Geocoder.APIKey,
		},
	)
	return geocoder.NewResolver(placeStore, client)
}

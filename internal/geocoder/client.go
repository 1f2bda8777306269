// Package geocoder resolves street addresses to geographic coordinates
// through an external Yandex-style geocoding provider, backed by a
// persistent place store so every address is geocoded at most once.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpclient "github.com/starburger/order-service/internal/http"
)

// ErrNotFound is returned when the provider finds zero matches for an address.
var ErrNotFound = errors.New("geocoder: address not found")

// TransientError wraps a network or HTTP failure talking to the provider.
// Callers treat it the same as ErrNotFound (no coordinates), but the two are
// logged and counted separately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("geocoder: provider unreachable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Point is a resolved coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// response mirrors the provider's JSON structure. The found count lives in
// response metadata as a string; each match carries a "<lon> <lat>" position.
type response struct {
	Response struct {
		GeoObjectCollection struct {
			MetaDataProperty struct {
				GeocoderResponseMetaData struct {
					Found string `json:"found"`
				} `json:"GeocoderResponseMetaData"`
			} `json:"metaDataProperty"`
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// Config holds the geocoding provider settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client calls the external geocoding provider.
// It has no side effects; persistence of resolved coordinates is the
// Resolver's responsibility.
type Client struct {
	http   *httpclient.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a geocoder client using the given throttled HTTP client.
func NewClient(httpClient *httpclient.Client, config Config) *Client {
	return &Client{
		http:   httpClient,
		config: config,
		logger: log.With().Str("component", "geocoder").Logger(),
	}
}

// Geocode resolves an address to coordinates.
// Returns ErrNotFound when the provider has zero matches and a
// *TransientError on network or HTTP failure. On success it picks the first
// (most relevant) match.
func (c *Client) Geocode(ctx context.Context, address string) (Point, error) {
	query := url.Values{}
	query.Set("geocode", address)
	query.Set("apikey", c.config.APIKey)
	query.Set("format", "json")
	requestURL := c.config.BaseURL + "?" + query.Encode()

	body, err := c.http.GetBytes(ctx, requestURL)
	if err != nil {
		geocodeRequests.WithLabelValues("transient").Inc()
		c.logger.Warn().Err(err).Str("address", address).Msg("Geocoder request failed")
		return Point{}, &TransientError{Err: err}
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		geocodeRequests.WithLabelValues("transient").Inc()
		c.logger.Warn().Err(err).Str("address", address).Msg("Geocoder returned malformed JSON")
		return Point{}, &TransientError{Err: err}
	}

	collection := parsed.Response.GeoObjectCollection
	if collection.MetaDataProperty.GeocoderResponseMetaData.Found == "0" ||
		len(collection.FeatureMember) == 0 {
		geocodeRequests.WithLabelValues("not_found").Inc()
		c.logger.Info().Str("address", address).Msg("Geocoder found no matches")
		return Point{}, ErrNotFound
	}

	mostRelevant := collection.FeatureMember[0]
	point, err := parsePos(mostRelevant.GeoObject.Point.Pos)
	if err != nil {
		geocodeRequests.WithLabelValues("transient").Inc()
		c.logger.Warn().Err(err).Str("address", address).Msg("Geocoder returned malformed position")
		return Point{}, &TransientError{Err: err}
	}

	geocodeRequests.WithLabelValues("ok").Inc()
	return point, nil
}

// parsePos parses the provider's "<longitude> <latitude>" position string.
func parsePos(pos string) (Point, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("unexpected position format %q", pos)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
	}

	return Point{Latitude: lat, Longitude: lon}, nil
}

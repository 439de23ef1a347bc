package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnresolvedSite marks a site row left without coordinates.
var ErrUnresolvedSite = errors.New("site has no coordinates")

// ResolveSites fills site rows that lack coordinates by forward geocoding
// their name. Rows the geocoder cannot place stay unresolved and are reported;
// no default coordinate is ever substituted. With a nil geocoder the rows are
// returned as-is and every unresolved row is reported.
func ResolveSites(ctx context.Context, rows []SiteRow, geocoder Geocoder, region string, logger *slog.Logger) ([]SiteRow, []error) {
	out := make([]SiteRow, len(rows))
	copy(out, rows)

	var diags []error
	for i, row := range out {
		if row.Resolved() {
			continue
		}
		if geocoder == nil {
			diags = append(diags, fmt.Errorf("site %q: %w", row.Name, ErrUnresolvedSite))
			continue
		}

		result, err := geocoder.ForwardGeocode(ctx, row.Name, region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"site", row.Name,
				"region", region,
				"error", err,
			)
			diags = append(diags, fmt.Errorf("site %q: %w: %w", row.Name, ErrUnresolvedSite, err))
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			diags = append(diags, fmt.Errorf("site %q: %w: no geocoding match", row.Name, ErrUnresolvedSite))
			continue
		}
		if !(Geo{Lat: result.Lat, Lon: result.Lon}).Valid() {
			diags = append(diags, fmt.Errorf("site %q: %w: invalid geocoding result (%g, %g)", row.Name, ErrUnresolvedSite, result.Lat, result.Lon))
			continue
		}

		lat, lon := result.Lat, result.Lon
		out[i].Lat = &lat
		out[i].Lon = &lon
		logger.Debug("site geocoded",
			"site", row.Name,
			"lat", lat,
			"lon", lon,
			"place", result.PlaceName,
			"confidence", result.Confidence,
		)
	}
	return out, diags
}

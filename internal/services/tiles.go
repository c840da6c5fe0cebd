package services

import (
	"context"
	"fmt"
)

// SatelliteTile fetches one ESRI World Imagery tile. Note the upstream
// path order is z/y/x, not z/x/y.
func (c *Client) SatelliteTile(ctx context.Context, z, x, y int) ([]byte, error) {
	u := fmt.Sprintf("%s/tile/%d/%d/%d", c.tileURL, z, y, x)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("satellite tile %d/%d/%d: %w", z, x, y, err)
	}
	return body, nil
}

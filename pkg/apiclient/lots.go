package apiclient

import (
	"github.com/marmos91/lotpurge/pkg/api/handlers"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

// ListLots returns every lot known to the service.
func (c *Client) ListLots() ([]lotman.Lot, error) {
	return listResources[lotman.Lot](c, "/api/v1/lots")
}

// GetLot returns a lot by name.
func (c *Client) GetLot(name string) (*lotman.Lot, error) {
	return getResource[lotman.Lot](c, resourcePath("/api/v1/lots/%s", name))
}

// CreateLot creates a lot and returns it as stored.
func (c *Client) CreateLot(lot *lotman.Lot) (*lotman.Lot, error) {
	return createResource[lotman.Lot](c, "/api/v1/lots", lot)
}

// DeleteLot removes a lot.
func (c *Client) DeleteLot(name string) error {
	return deleteResource(c, resourcePath("/api/v1/lots/%s", name))
}

// LotUsage returns a lot's usage components.
func (c *Client) LotUsage(name string) (*handlers.LotUsageResponse, error) {
	return getResource[handlers.LotUsageResponse](c, resourcePath("/api/v1/lots/%s/usage", name))
}

// LotDirs returns the directories a lot governs.
func (c *Client) LotDirs(name string, recursive bool) ([]lotman.LotDir, error) {
	return listResources[lotman.LotDir](c, recursiveQuery(resourcePath("/api/v1/lots/%s/dirs", name), recursive))
}

// LotsPast returns the lots past a deadline or allotment.
func (c *Client) LotsPast(past lotman.Past, recursive bool) ([]string, error) {
	resp, err := getResource[handlers.PastResponse](c, recursiveQuery(resourcePath("/api/v1/lots/past/%s", past.String()), recursive))
	if err != nil {
		return nil, err
	}
	return resp.Lots, nil
}

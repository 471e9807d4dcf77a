package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
)

// Dashboard API paths. Only the first page of each listing is fetched.
const (
	organizationsPath        = "/organizations"
	networksPath             = "/organizations/%s/networks"
	networkDevicesPath       = "/networks/%s/devices"
	deviceStatusesPath       = "/organizations/%s/devices/statuses"
	deviceAvailabilitiesPath = "/networks/%s/devices/%s/availabilities"
)

// GetOrganizations retrieves all organizations accessible with the API key.
func (c *DashboardClient) GetOrganizations(ctx context.Context) ([]mdcmodels.Organization, error) {
	return fetchList[mdcmodels.Organization](ctx, c, organizationsPath)
}

// GetNetworks retrieves the networks of an organization.
func (c *DashboardClient) GetNetworks(ctx context.Context, orgID string) ([]mdcmodels.Network, error) {
	return fetchList[mdcmodels.Network](ctx, c, fmt.Sprintf(networksPath, url.PathEscape(orgID)))
}

// GetNetworkInventory retrieves the devices claimed into a network.
func (c *DashboardClient) GetNetworkInventory(ctx context.Context, networkID string) ([]mdcmodels.Device, error) {
	return fetchList[mdcmodels.Device](ctx, c, fmt.Sprintf(networkDevicesPath, url.PathEscape(networkID)))
}

// GetDeviceStatuses retrieves the status of every device in an organization.
func (c *DashboardClient) GetDeviceStatuses(ctx context.Context, orgID string) ([]mdcmodels.DeviceStatus, error) {
	return fetchList[mdcmodels.DeviceStatus](ctx, c, fmt.Sprintf(deviceStatusesPath, url.PathEscape(orgID)))
}

// GetDeviceAvailabilities retrieves the availability history of one device.
func (c *DashboardClient) GetDeviceAvailabilities(ctx context.Context, networkID, serial string) ([]mdcmodels.AvailabilityPoint, error) {
	path := fmt.Sprintf(deviceAvailabilitiesPath, url.PathEscape(networkID), url.PathEscape(serial))
	return fetchList[mdcmodels.AvailabilityPoint](ctx, c, path)
}

// fetchList GETs path and decodes a JSON array. On failure it logs and returns
// an empty list together with the error, so callers that only care about data
// can ignore the error.
func fetchList[T any](ctx context.Context, c *DashboardClient, path string) ([]T, error) {
	body, err := c.Get(ctx, path)
	if err != nil {
		c.logRequestError(path, err)
		return []T{}, err
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		err = &DecodeError{URL: c.baseURL + path, Err: err}
		c.logRequestError(path, err)
		return []T{}, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

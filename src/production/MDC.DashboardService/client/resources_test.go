package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
)

func TestFetchersUseDashboardPaths(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	srv.SetJSON("/organizations", []mdcmodels.Organization{{ID: "549236", Name: "DevNet Sandbox"}})
	srv.SetJSON("/organizations/549236/networks", []mdcmodels.Network{{ID: "L_1", Name: "Lab", OrganizationID: "549236"}})
	srv.SetRaw("/networks/L_1/devices", http.StatusOK, `[{"serial":"Q2QN-9J8L-SLPD","model":"MR84","firmware":"wireless-29-5","url":"https://n1.meraki.com/manage/nodes/show/1"}]`)
	srv.SetJSON("/organizations/549236/devices/statuses", []mdcmodels.DeviceStatus{{Serial: "Q2QN-9J8L-SLPD", Status: mdcmodels.DeviceStateOnline}})
	srv.SetRaw("/networks/L_1/devices/Q2QN-9J8L-SLPD/availabilities", http.StatusOK, `[{"startTs":"2024-01-01T00:00:00Z","status":"online"}]`)

	orgs, err := c.GetOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "DevNet Sandbox", orgs[0].Name)

	networks, err := c.GetNetworks(ctx, orgs[0].ID)
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, "L_1", networks[0].ID)

	devices, err := c.GetNetworkInventory(ctx, networks[0].ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "MR84", devices[0].Model)
	assert.Equal(t, "wireless-29-5", devices[0].Firmware)
	assert.Contains(t, devices[0].Raw, "url")

	statuses, err := c.GetDeviceStatuses(ctx, orgs[0].ID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, mdcmodels.DeviceStateOnline, statuses[0].Status)

	points, err := c.GetDeviceAvailabilities(ctx, "L_1", "Q2QN-9J8L-SLPD")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "online", points[0]["status"])

	assert.Equal(t, []string{
		"/organizations",
		"/organizations/549236/networks",
		"/networks/L_1/devices",
		"/organizations/549236/devices/statuses",
		"/networks/L_1/devices/Q2QN-9J8L-SLPD/availabilities",
	}, srv.Requests())
}

func TestFetchersFallBackToEmptyList(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	srv.SetError("/organizations", http.StatusForbidden, "no access")

	orgs, err := c.GetOrganizations(ctx)
	assert.NotNil(t, orgs)
	assert.Empty(t, orgs)
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))

	// unregistered path answers 404
	networks, err := c.GetNetworks(ctx, "nope")
	assert.NotNil(t, networks)
	assert.Empty(t, networks)
	assert.Error(t, err)
}

func TestFetcherRejectsNonListBody(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetRaw("/networks/N_1/devices", http.StatusOK, `{"errors":["oops"]}`)

	devices, err := c.GetNetworkInventory(context.Background(), "N_1")
	assert.Empty(t, devices)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestFetcherNullBodyIsEmptyList(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetRaw("/organizations/1/devices/statuses", http.StatusOK, `null`)

	statuses, err := c.GetDeviceStatuses(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, statuses)
	assert.Empty(t, statuses)
}

func TestFetcherEscapesIdentifiers(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetJSON("/organizations/a b/networks", []mdcmodels.Network{{ID: "N", Name: "n"}})

	networks, err := c.GetNetworks(context.Background(), "a b")
	require.NoError(t, err)
	assert.Len(t, networks, 1)
}

package runner

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
	report "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Report"
)

// Output files, written relative to the configured output directory.
const (
	OrganizationsFile = "organizations.json"
	NetworksFile      = "networks.json"
	DevicesFile       = "devices.json"
	ReportFile        = "network_report.json"
)

// Dashboard is the subset of the dashboard client the report run needs.
type Dashboard interface {
	GetOrganizations(ctx context.Context) ([]mdcmodels.Organization, error)
	GetNetworks(ctx context.Context, orgID string) ([]mdcmodels.Network, error)
	GetNetworkInventory(ctx context.Context, networkID string) ([]mdcmodels.Device, error)
	GetDeviceStatuses(ctx context.Context, orgID string) ([]mdcmodels.DeviceStatus, error)
}

// Saver persists a JSON document and reports whether it succeeded.
type Saver interface {
	Save(data interface{}, filename string) bool
	Path(filename string) string
}

// Publisher forwards a finished report. It is optional.
type Publisher interface {
	PublishReport(ctx context.Context, networkID string, report mdcmodels.Report) error
}

// Runner performs one report run against the first organization and its
// first network.
type Runner struct {
	dashboard Dashboard
	saver     Saver
	builder   *report.Builder
	publisher Publisher
	out       io.Writer
	logger    *logger.Logger
}

// New creates a Runner. publisher may be nil.
func New(dashboard Dashboard, saver Saver, builder *report.Builder, publisher Publisher, out io.Writer, log *logger.Logger) *Runner {
	if builder == nil {
		builder = report.NewBuilder(nil)
	}
	return &Runner{
		dashboard: dashboard,
		saver:     saver,
		builder:   builder,
		publisher: publisher,
		out:       out,
		logger:    log.WithComponent("runner"),
	}
}

// Run fetches organizations, networks, inventory and statuses, writes them
// out and prints a report summary. Remote and save failures are reported and
// absorbed; only cancellation of ctx is returned as an error.
func (r *Runner) Run(ctx context.Context) error {
	r.println("Fetching Meraki organization data...")
	organizations, err := r.dashboard.GetOrganizations(ctx)
	if err := r.interrupted(ctx, "organizations", err); err != nil {
		return err
	}
	if len(organizations) == 0 {
		r.println("No organizations found or API error occurred.")
		return nil
	}
	r.save(organizations, OrganizationsFile)

	org := organizations[0]
	r.printf("Organization: %s\n", org.Name)

	networks, err := r.dashboard.GetNetworks(ctx, org.ID)
	if err := r.interrupted(ctx, "networks", err); err != nil {
		return err
	}
	if len(networks) == 0 {
		r.println("No networks found.")
		return nil
	}
	r.save(networks, NetworksFile)

	network := networks[0]
	r.printf("Network: %s\n", network.Name)

	devices, err := r.dashboard.GetNetworkInventory(ctx, network.ID)
	if err := r.interrupted(ctx, "inventory", err); err != nil {
		return err
	}
	r.printf("Devices: %d found\n", len(devices))
	r.save(devices, DevicesFile)

	r.println("\nFetching device status information...")
	statuses, err := r.dashboard.GetDeviceStatuses(ctx, org.ID)
	if err := r.interrupted(ctx, "statuses", err); err != nil {
		return err
	}
	if len(statuses) == 0 {
		r.println("Unable to retrieve device status information.")
		return nil
	}

	r.println("\nGenerating network report...")
	rep := r.builder.Build(org.Name, network.Name, devices, statuses)
	r.save(rep, ReportFile)

	if r.publisher != nil {
		if err := r.publisher.PublishReport(ctx, network.ID, rep); err != nil {
			r.logger.WithField("network_id", network.ID).ErrorWithError(err, "Failed to publish network report")
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}
	}

	r.printSummary(rep)
	return nil
}

// interrupted returns the context error once the run has been cancelled.
// Other fetch errors have already been logged by the client and only leave an
// empty list behind.
func (r *Runner) interrupted(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		r.logger.WithField("step", step).Debug("Continuing with empty result")
	}
	return nil
}

func (r *Runner) save(data interface{}, filename string) {
	path := r.saver.Path(filename)
	if r.saver.Save(data, filename) {
		r.printf("Data saved to %s\n", path)
		return
	}
	r.printf("Error saving to %s\n", path)
}

func (r *Runner) printSummary(rep mdcmodels.Report) {
	r.println("\nNetwork Report Summary:")
	r.printf("  Organization: %s\n", rep.Organization)
	r.printf("  Network: %s\n", rep.Network)
	r.printf("  Total Devices: %d\n", rep.Summary.TotalDevices)
	r.printf("  Online: %d\n", rep.Summary.OnlineDevices)
	r.printf("  Offline: %d\n", rep.Summary.OfflineDevices)
	r.printf("  Availability: %s%%\n", FormatPercentage(rep.Summary.AvailabilityPercentage))

	if len(rep.Devices) == 0 {
		return
	}
	r.println("")

	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Serial", "Name", "Model", "Status"})
	table.SetAutoWrapText(false)
	for _, d := range rep.Devices {
		table.Append([]string{d.Serial, d.Name, d.Model, colorStatus(d.Status)})
	}
	table.Render()
}

// FormatPercentage renders whole values with one decimal ("50.0") and keeps
// up to two decimals otherwise ("33.33").
func FormatPercentage(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func colorStatus(status mdcmodels.DeviceState) string {
	switch status {
	case mdcmodels.DeviceStateOnline:
		return color.GreenString(string(status))
	case mdcmodels.DeviceStateOffline:
		return color.RedString(string(status))
	case mdcmodels.DeviceStateAlerting:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}

func (r *Runner) println(msg string) {
	fmt.Fprintln(r.out, msg)
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

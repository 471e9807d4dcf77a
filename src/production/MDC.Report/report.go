package report

import (
	"strconv"

	"github.com/jonboulle/clockwork"
	mdcmodels "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Models"
)

// Builder assembles network reports, stamping them with its clock.
type Builder struct {
	clock clockwork.Clock
}

// NewBuilder returns a Builder; a nil clock means the wall clock.
func NewBuilder(clock clockwork.Clock) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Builder{clock: clock}
}

// MergeDeviceStatuses joins inventory records with their status by serial.
// Every device appears once, in input order; devices without a status record
// get "unknown". When statuses repeat a serial the last one wins.
func MergeDeviceStatuses(devices []mdcmodels.Device, statuses []mdcmodels.DeviceStatus) []mdcmodels.DetailedDevice {
	lookup := make(map[mdcmodels.Serial]mdcmodels.DeviceState, len(statuses))
	for _, s := range statuses {
		if s.Serial == "" {
			continue
		}
		lookup[mdcmodels.Serial(s.Serial)] = s.Status
	}

	detailed := make([]mdcmodels.DetailedDevice, 0, len(devices))
	for _, d := range devices {
		status, ok := lookup[mdcmodels.Serial(d.Serial)]
		if !ok {
			status = mdcmodels.DeviceStateUnknown
		}
		detailed = append(detailed, mdcmodels.DetailedDevice{
			Device: d.Clone(),
			Status: status,
		})
	}
	return detailed
}

// Summarize counts devices by status.
func Summarize(devices []mdcmodels.DetailedDevice) mdcmodels.ReportSummary {
	summary := mdcmodels.ReportSummary{TotalDevices: len(devices)}
	for _, d := range devices {
		switch d.Status {
		case mdcmodels.DeviceStateOnline:
			summary.OnlineDevices++
		case mdcmodels.DeviceStateOffline:
			summary.OfflineDevices++
		}
	}
	if summary.TotalDevices > 0 {
		summary.AvailabilityPercentage = roundTo(float64(summary.OnlineDevices)/float64(summary.TotalDevices)*100, 2)
	}
	return summary
}

// Build merges devices with statuses and produces a report for one network.
func (b *Builder) Build(orgName, networkName string, devices []mdcmodels.Device, statuses []mdcmodels.DeviceStatus) mdcmodels.Report {
	detailed := MergeDeviceStatuses(devices, statuses)

	return mdcmodels.Report{
		Timestamp:    b.clock.Now(),
		Organization: orgName,
		Network:      networkName,
		Summary:      Summarize(detailed),
		Devices:      detailed,
	}
}

// roundTo rounds to the given number of decimals from the exact binary value,
// with exact ties going to the even digit.
func roundTo(v float64, places int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

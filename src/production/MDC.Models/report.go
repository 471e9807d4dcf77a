package mdcmodels

import "time"

// Report is the aggregated network document written to network_report.json
type Report struct {
	Timestamp    time.Time        `json:"timestamp"`
	Organization string           `json:"organization"`
	Network      string           `json:"network"`
	Summary      ReportSummary    `json:"summary"`
	Devices      []DetailedDevice `json:"devices"`
}

// ReportSummary holds the device counts of a report
type ReportSummary struct {
	TotalDevices           int     `json:"total_devices"`
	OnlineDevices          int     `json:"online_devices"`
	OfflineDevices         int     `json:"offline_devices"`
	AvailabilityPercentage float64 `json:"availability_percentage"`
}

package mdcmodels

import (
	"encoding/json"
	"slices"
)

// Serial is the device unique identifier
type Serial string

// DeviceState is the connectivity state reported by the dashboard
type DeviceState string

const (
	DeviceStateOnline   DeviceState = "online"
	DeviceStateOffline  DeviceState = "offline"
	DeviceStateAlerting DeviceState = "alerting"
	DeviceStateDormant  DeviceState = "dormant"
	DeviceStateUnknown  DeviceState = "unknown"
)

// Device is an inventory record from /networks/{networkId}/devices.
//
// A decoded device keeps every field the dashboard returned in Raw and
// encodes from it, so empty strings, nulls and fields not modelled here all
// survive. Devices built in code have no Raw and encode from the typed fields.
type Device struct {
	Serial      string   `json:"serial"`
	Model       string   `json:"model"`
	Name        string   `json:"name,omitempty"`
	NetworkID   string   `json:"networkId,omitempty"`
	Mac         string   `json:"mac,omitempty"`
	LanIP       string   `json:"lanIp,omitempty"`
	Firmware    string   `json:"firmware,omitempty"`
	ProductType string   `json:"productType,omitempty"` // one of ["appliance", "camera", "cellularGateway", "sensor", "switch", "wireless", ...]
	Address     string   `json:"address,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`

	Raw RawFields `json:"-"`
}

type plainDevice Device

// Clone returns a copy of d that shares no slices or maps with it.
func (d Device) Clone() Device {
	c := d
	c.Tags = slices.Clone(d.Tags)
	c.Raw = d.Raw.Clone()
	if d.Lat != nil {
		lat := *d.Lat
		c.Lat = &lat
	}
	if d.Lng != nil {
		lng := *d.Lng
		c.Lng = &lng
	}
	return c
}

func (d *Device) UnmarshalJSON(data []byte) error {
	var v Device
	raw, err := decodeRecord(data, map[string]interface{}{
		"serial":      &v.Serial,
		"model":       &v.Model,
		"name":        &v.Name,
		"networkId":   &v.NetworkID,
		"mac":         &v.Mac,
		"lanIp":       &v.LanIP,
		"firmware":    &v.Firmware,
		"productType": &v.ProductType,
		"address":     &v.Address,
		"notes":       &v.Notes,
		"tags":        &v.Tags,
		"lat":         &v.Lat,
		"lng":         &v.Lng,
	})
	if err != nil {
		return err
	}
	v.Raw = raw
	*d = v
	return nil
}

func (d Device) MarshalJSON() ([]byte, error) {
	return encodeRecord(plainDevice(d), d.Raw, nil)
}

// DetailedDevice is an inventory record joined with its status
type DetailedDevice struct {
	Device
	Status DeviceState `json:"status"`
}

func (d DetailedDevice) MarshalJSON() ([]byte, error) {
	return encodeRecord(plainDevice(d.Device), d.Device.Raw, map[string]interface{}{
		"status": d.Status,
	})
}

func (d *DetailedDevice) UnmarshalJSON(data []byte) error {
	var device Device
	if err := device.UnmarshalJSON(data); err != nil {
		return err
	}

	status := DeviceStateUnknown
	if raw, ok := device.Raw["status"]; ok {
		if err := json.Unmarshal(raw, &status); err != nil || status == "" {
			status = DeviceStateUnknown
		}
		delete(device.Raw, "status")
	}

	d.Device = device
	d.Status = status
	return nil
}

// DeviceStatus contains dynamic device attributes from
// /organizations/{organizationId}/devices/statuses
type DeviceStatus struct {
	Serial         string      `json:"serial"`
	Status         DeviceState `json:"status"` // one of ["online", "alerting", "offline", "dormant"]
	Name           string      `json:"name,omitempty"`
	NetworkID      string      `json:"networkId,omitempty"`
	Mac            string      `json:"mac,omitempty"`
	PublicIP       string      `json:"publicIp,omitempty"`
	LanIP          string      `json:"lanIp,omitempty"`
	Gateway        string      `json:"gateway,omitempty"`
	IPType         string      `json:"ipType,omitempty"`
	PrimaryDNS     string      `json:"primaryDns,omitempty"`
	SecondaryDNS   string      `json:"secondaryDns,omitempty"`
	LastReportedAt string      `json:"lastReportedAt,omitempty"`
	ProductType    string      `json:"productType,omitempty"`
	Model          string      `json:"model,omitempty"`
}

// UnmarshalJSON decodes a status record field by field, so one malformed
// field does not fail the whole statuses listing.
func (s *DeviceStatus) UnmarshalJSON(data []byte) error {
	var v DeviceStatus
	_, err := decodeRecord(data, map[string]interface{}{
		"serial":         &v.Serial,
		"status":         &v.Status,
		"name":           &v.Name,
		"networkId":      &v.NetworkID,
		"mac":            &v.Mac,
		"publicIp":       &v.PublicIP,
		"lanIp":          &v.LanIP,
		"gateway":        &v.Gateway,
		"ipType":         &v.IPType,
		"primaryDns":     &v.PrimaryDNS,
		"secondaryDns":   &v.SecondaryDNS,
		"lastReportedAt": &v.LastReportedAt,
		"productType":    &v.ProductType,
		"model":          &v.Model,
	})
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AvailabilityPoint is one entry of a device's availability history. The
// schema varies by product type, so it is kept as raw JSON fields.
type AvailabilityPoint map[string]interface{}

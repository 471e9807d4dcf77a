package mdcmodels

// Organization is a dashboard tenant as returned by /organizations.
// Decoded organizations keep every returned field in Raw.
type Organization struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	URL  string     `json:"url,omitempty"`
	API  *APIStatus `json:"api,omitempty"`

	Raw RawFields `json:"-"`
}

// APIStatus tells whether API access is enabled for an organization
type APIStatus struct {
	Enabled bool `json:"enabled"`
}

type plainOrganization Organization

func (o *Organization) UnmarshalJSON(data []byte) error {
	var v Organization
	raw, err := decodeRecord(data, map[string]interface{}{
		"id":   &v.ID,
		"name": &v.Name,
		"url":  &v.URL,
		"api":  &v.API,
	})
	if err != nil {
		return err
	}
	v.Raw = raw
	*o = v
	return nil
}

func (o Organization) MarshalJSON() ([]byte, error) {
	return encodeRecord(plainOrganization(o), o.Raw, nil)
}

// Network is a site or logical grouping of devices within an organization
type Network struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organizationId,omitempty"`
	Name           string   `json:"name"`
	ProductTypes   []string `json:"productTypes,omitempty"`
	TimeZone       string   `json:"timeZone,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	URL            string   `json:"url,omitempty"`
	Notes          string   `json:"notes,omitempty"`

	Raw RawFields `json:"-"`
}

type plainNetwork Network

func (n *Network) UnmarshalJSON(data []byte) error {
	var v Network
	raw, err := decodeRecord(data, map[string]interface{}{
		"id":             &v.ID,
		"organizationId": &v.OrganizationID,
		"name":           &v.Name,
		"productTypes":   &v.ProductTypes,
		"timeZone":       &v.TimeZone,
		"tags":           &v.Tags,
		"url":            &v.URL,
		"notes":          &v.Notes,
	})
	if err != nil {
		return err
	}
	v.Raw = raw
	*n = v
	return nil
}

func (n Network) MarshalJSON() ([]byte, error) {
	return encodeRecord(plainNetwork(n), n.Raw, nil)
}

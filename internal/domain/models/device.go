package models

// DeviceInfo is the structured device record attached to sessions, parsed
// from the User-Agent header. A typed record rather than a free-form blob so
// log consumers can match on fields.
type DeviceInfo struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Mobile         bool   `json:"mobile"`
	Bot            bool   `json:"bot"`
	Raw            string `json:"raw,omitempty"`
}

package models

// RawRecord is the text of each cell of one registry table row, in column
// order. Its length is whatever the page had; check before indexing.
type RawRecord []string

// RawTable is a registry response before extraction. NoMatch is set when the
// page carried an explicit "no results" marker; callers must treat it and an
// empty Rows slice as independent not-found signals.
type RawTable struct {
	Rows    []RawRecord
	NoMatch bool
}

func (t RawTable) Empty() bool {
	return len(t.Rows) == 0
}

// Record is one certified terminal extracted from a RawRecord.
type Record struct {
	CertificateID    string `json:"certificateId"`
	DeviceIdentifier string `json:"deviceIdentifier"`
	ModelName        string `json:"modelName"`
	ModelVersion     string `json:"modelVersion,omitempty"`
	CertifiedDate    string `json:"certifiedDate"`
	ExpiryDate       string `json:"expiryDate"`
}

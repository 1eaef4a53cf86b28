// pkg/layout/schema.go
package layout

// ColumnLayout maps registry table cells to record fields. A negative index
// means the column is not present in that layout.
type ColumnLayout struct {
	Name             string `json:"name"`
	MinCells         int    `json:"minCells"`
	CertificateID    int    `json:"certificateId"`
	DeviceIdentifier int    `json:"deviceIdentifier"`
	ModelName        int    `json:"modelName"`
	ModelVersion     int    `json:"modelVersion"`
	Dates            int    `json:"dates"`
	Expiry           int    `json:"expiry"`
}

// Set is the on-disk form of a layout file.
type Set struct {
	Version string         `json:"version"`
	Layouts []ColumnLayout `json:"layouts"`
}

package smartsheet

// Sheet is the backend's representation of a sheet, possibly filtered to a
// subset of rows and columns via GetSheetOptions.
type Sheet struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Permalink     string   `json:"permalink,omitempty"`
	TotalRowCount int64    `json:"totalRowCount,omitempty"`
	Columns       []Column `json:"columns"`
	Rows          []Row    `json:"rows"`
}

type Column struct {
	ID      int64  `json:"id"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type Row struct {
	ID        int64  `json:"id"`
	RowNumber int64  `json:"rowNumber"`
	Cells     []Cell `json:"cells"`
}

// Cell carries both the raw typed value and the human-readable rendering.
// DisplayValue is nil for empty cells.
type Cell struct {
	ColumnID     int64   `json:"columnId"`
	Value        any     `json:"value,omitempty"`
	DisplayValue *string `json:"displayValue,omitempty"`
}

// CellUpdate is the write-side cell shape. Value has no omitempty on purpose:
// a nil value must marshal as an explicit JSON null so the backend clears the
// cell instead of leaving it untouched.
type CellUpdate struct {
	ColumnID int64   `json:"columnId"`
	Value    *string `json:"value"`
}

type RowUpdate struct {
	ID    int64        `json:"id"`
	Cells []CellUpdate `json:"cells"`
}

type Webhook struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Scope         string   `json:"scope"`
	ScopeObjectID int64    `json:"scopeObjectId"`
	CallbackURL   string   `json:"callbackUrl"`
	Events        []string `json:"events"`
	Version       int      `json:"version"`
	Enabled       bool     `json:"enabled"`
	Status        string   `json:"status"`
}

type WebhookCreate struct {
	Name          string   `json:"name"`
	CallbackURL   string   `json:"callbackUrl"`
	Scope         string   `json:"scope"`
	ScopeObjectID int64    `json:"scopeObjectId"`
	Events        []string `json:"events"`
	Version       int      `json:"version"`
}

type WebhookUpdate struct {
	Enabled     *bool  `json:"enabled,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// GetSheetOptions narrows a sheet read to specific rows and columns. Empty
// slices mean no filter.
type GetSheetOptions struct {
	RowIDs    []int64
	ColumnIDs []int64
	PageSize  int
}

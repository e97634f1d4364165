/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers returned to clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - receiving/importer.go: ImportSummary embedded in ImportResponse
*/
package api

import (
	"github.com/warp/receiving-engine/engine"
	"github.com/warp/receiving-engine/receiving"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ImportRequest carries one raw extract to import. Rows use the
// extract's original column headers; the server's column mapping
// renames them.
type ImportRequest struct {
	Rows []engine.RawRecord `json:"rows"`
}

// ImportResponse wraps the run summary of one import.
type ImportResponse struct {
	Summary *receiving.ImportSummary `json:"summary"`
}

// ReconcileRequest carries the fresh extract treated as truth.
type ReconcileRequest struct {
	Rows []engine.RawRecord `json:"rows"`
}

// ReconcileResponse wraps a reconciliation report. Clean is derived
// so clients need not inspect the four finding lists.
type ReconcileResponse struct {
	Clean  bool           `json:"clean"`
	Report *engine.Report `json:"report"`
}

// RecordDTO is one persisted record in API responses. Dates are
// rendered as "YYYY-MM-DD HH:MM:SS" or omitted when unknown.
type RecordDTO struct {
	ReceiptID     string `json:"receipt_id"`
	OrderRef      string `json:"order_ref"`
	SystemRef     string `json:"system_ref"`
	PartID        string `json:"part_id,omitempty"`
	RawOrderType  string `json:"raw_order_type,omitempty"`
	OrderClass    string `json:"order_class"`
	ShipFrom      string `json:"ship_from,omitempty"`
	ShipTo        string `json:"ship_to,omitempty"`
	Country       string `json:"country,omitempty"`
	Quantity      int64  `json:"quantity"`
	EventDate     string `json:"event_date,omitempty"`
	FiscalWeek    string `json:"fiscal_week"`
	FiscalYear    string `json:"fiscal_year"`
	FiscalQuarter string `json:"fiscal_quarter"`
	FiscalMonth   string `json:"fiscal_month"`
	CountReceipt  int    `json:"count_receipt"`
	CountOrder    int    `json:"count_order"`
}

// RecordsResponse lists persisted records.
type RecordsResponse struct {
	Count   int         `json:"count"`
	Records []RecordDTO `json:"records"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const recordDateLayout = "2006-01-02 15:04:05"

func toRecordDTO(rec engine.NormalizedRecord) RecordDTO {
	dto := RecordDTO{
		ReceiptID:     rec.ReceiptID,
		OrderRef:      rec.OrderRef,
		SystemRef:     rec.SystemRef,
		PartID:        rec.PartID,
		RawOrderType:  rec.RawOrderType,
		OrderClass:    string(rec.OrderClass),
		ShipFrom:      rec.ShipFrom,
		ShipTo:        rec.ShipTo,
		Country:       rec.Country,
		Quantity:      rec.Quantity,
		FiscalWeek:    rec.FiscalWeek,
		FiscalYear:    rec.FiscalYear,
		FiscalQuarter: rec.FiscalQuarter,
		FiscalMonth:   rec.FiscalMonth,
		CountReceipt:  rec.CountReceipt,
		CountOrder:    rec.CountOrder,
	}
	if rec.EventDate != nil {
		dto.EventDate = rec.EventDate.UTC().Format(recordDateLayout)
	}
	return dto
}

func toRecordDTOs(records []engine.NormalizedRecord) []RecordDTO {
	dtos := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRecordDTO(rec))
	}
	return dtos
}

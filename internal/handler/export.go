package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "kind", "category",
	"amount", "description", "status", "shared_with",
}

// ExportRow is the JSON view of one export row.
type ExportRow struct {
	TripId      string   `json:"trip_id"`
	TripTitle   string   `json:"trip_title"`
	Kind        string   `json:"kind"`
	Category    string   `json:"category"`
	Amount      string   `json:"amount"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	SharedWith  []string `json:"shared_with"`
}

// ExportBudget handles GET /trips/{tripID}/export.
// It returns one row per planned entry and one per expense.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportBudget(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	format := "json"
	if !queryParam(w, r, "format", &format) {
		return
	}
	if format != "json" && format != "csv" {
		requestError(w, "format must be json or csv")
		return
	}

	rows, err := s.svc.Export.ExportBudget(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	if format == "csv" {
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trip-`+tripID.String()+`-budget.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// buildCSV encodes domain rows as CSV.
// Stakeholders within a row are pipe-separated ("|") to keep each entry on a single CSV line.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// bytes.Buffer.Write never returns an error.
	_ = w.Write(csvHeaders)
	for _, r := range rows {
		_ = w.Write(domainRowToCSVRecord(r))
	}
	w.Flush()
	return &buf
}

func domainRowToResponse(r domain.ExportRow) ExportRow {
	return ExportRow{
		TripId:      r.TripID,
		TripTitle:   r.TripTitle,
		Kind:        r.Kind,
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		Status:      r.Status,
		SharedWith:  nonNil(r.SharedWith),
	}
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.TripID,
		r.TripTitle,
		r.Kind,
		r.Category,
		r.Amount,
		r.Description,
		r.Status,
		strings.Join(r.SharedWith, "|"),
	}
}

package model

import "strings"

// ImportSuccessMessage is the summary of an upload without any row error
const ImportSuccessMessage = "Successfully imported data."

const importFailurePrefix = "Data is imported but we got errors with the following rows:\n- "

// ImportRow is the outcome of one CSV row: either the created row data or an error message
type ImportRow struct {
	Index int
	Data  map[string]any
	Error string
}

// Failed reports whether the row produced an error
func (r ImportRow) Failed() bool {
	return r.Error != ""
}

// ImportReport is the ordered per-row outcome of a bulk upload
type ImportReport struct {
	Rows []ImportRow
}

func (r *ImportReport) AddCreated(index int, data map[string]any) {
	r.Rows = append(r.Rows, ImportRow{Index: index, Data: data})
}

func (r *ImportReport) AddError(index int, msg string) {
	r.Rows = append(r.Rows, ImportRow{Index: index, Error: msg})
}

// Created returns the echoed data of every created row, in order
func (r *ImportReport) Created() []map[string]any {
	out := []map[string]any{}
	for _, row := range r.Rows {
		if !row.Failed() {
			out = append(out, row.Data)
		}
	}
	return out
}

// Errors returns every row error message, in order
func (r *ImportReport) Errors() []string {
	var out []string
	for _, row := range r.Rows {
		if row.Failed() {
			out = append(out, row.Error)
		}
	}
	return out
}

// Message is the human readable summary of the upload
func (r *ImportReport) Message() string {
	errs := r.Errors()
	if len(errs) == 0 {
		return ImportSuccessMessage
	}
	return importFailurePrefix + strings.Join(errs, "\n- ")
}

// Package export writes reporting workbooks for the front desk.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/tealeg/xlsx"

	"github.com/arogith/hms/internal/domain/patient"
)

var censusHeader = []string{
	"Patient ID", "Surname", "Name", "Age", "Gender",
	"National ID", "Phone", "Total Visits", "Last Visit", "Status",
}

// WriteCensus writes the patient census workbook: one row per patient view,
// ordered as given.
func WriteCensus(w io.Writer, views []*patient.View) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Patient Census")
	if err != nil {
		return fmt.Errorf("add census sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range censusHeader {
		header.AddCell().Value = h
	}

	for _, v := range views {
		row := sheet.AddRow()
		row.AddCell().Value = v.PatientID
		row.AddCell().Value = v.Surname
		row.AddCell().Value = v.Name
		row.AddCell().Value = strconv.Itoa(v.Age)
		row.AddCell().Value = v.Gender
		row.AddCell().Value = v.NationalID
		row.AddCell().Value = v.PhoneNumber
		row.AddCell().Value = strconv.Itoa(v.TotalVisits)
		row.AddCell().Value = v.LastVisit
		row.AddCell().Value = v.Status
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write census workbook: %w", err)
	}
	return nil
}

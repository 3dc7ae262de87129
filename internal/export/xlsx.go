// Package export renders the filtered list pages as downloadable files.
package export

import (
	"fmt"
	"io"
	"time"

	"crmdash/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeICS  = "text/calendar; charset=utf-8"
)

type column struct {
	title string
	width float64
}

// writeTable writes one sheet with a bold header row and fixed widths.
func writeTable(w io.Writer, sheetName string, cols []column, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, c.title)
		_ = f.SetColWidth(sheetName, name, name, c.width)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	_ = f.SetCellStyle(sheetName, "A1", last, header)

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("error writing %s: %w", cell, err)
			}
		}
	}

	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func ClientsXLSX(w io.Writer, clients []models.Client) error {
	cols := []column{
		{"ID", 8}, {"Name", 28}, {"Email", 28}, {"Phone", 18}, {"Address", 36},
		{"Service location", 30}, {"Status", 12}, {"Appointments", 14},
	}
	rows := make([][]any, 0, len(clients))
	for i := range clients {
		c := &clients[i]
		rows = append(rows, []any{
			c.ID, c.DisplayName(), c.Email, c.Phone, c.Address,
			c.ServiceLocation, models.StatusLabel(c.Status), c.AppointmentCount,
		})
	}
	return writeTable(w, "Clients", cols, rows)
}

func WorkersXLSX(w io.Writer, workers []models.ServiceWorker) error {
	cols := []column{
		{"ID", 8}, {"Name", 28}, {"Email", 28}, {"Phone", 18}, {"Skills", 30},
		{"Status", 12}, {"Availability", 30}, {"Upcoming", 12},
	}
	rows := make([][]any, 0, len(workers))
	for i := range workers {
		wk := &workers[i]
		rows = append(rows, []any{
			wk.ID, wk.DisplayName(), wk.Email, wk.Phone, wk.Skills,
			models.StatusLabel(wk.Status), wk.AvailabilityNotes, wk.UpcomingAppointments,
		})
	}
	return writeTable(w, "Workers", cols, rows)
}

func AppointmentsXLSX(w io.Writer, list []models.Appointment) error {
	cols := []column{
		{"ID", 8}, {"Date", 12}, {"Time", 8}, {"Duration (min)", 14}, {"Client", 26},
		{"Workers", 32}, {"Type", 16}, {"Status", 14}, {"Location", 32}, {"Description", 40},
	}
	rows := make([][]any, 0, len(list))
	for i := range list {
		a := &list[i]
		rows = append(rows, []any{
			a.ID, a.ScheduledDate, a.ShortTime(), a.DurationMinutes, a.ClientName,
			a.Workers(), a.TypeLabel(), a.StatusLabel(), a.Location, a.Description,
		})
	}
	return writeTable(w, "Appointments", cols, rows)
}

// Filename builds a download name such as clients_2025-06-01.xlsx.
func Filename(kind, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", kind, now.Format(models.DateLayout), ext)
}

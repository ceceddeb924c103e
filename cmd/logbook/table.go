package main

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/export"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	activeStyle = cellStyle.Foreground(lipgloss.Color("3"))
)

// renderHistory draws records as a bordered table with the export columns.
// Active trips are highlighted.
func renderHistory(records []domain.TripRecord) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.DepartureTime,
			string(r.StartKm),
			r.ArrivalTime,
			string(r.EndKm),
			r.Destination,
			strconv.Itoa(r.Distance),
			r.Duration,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(export.Columns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(records) && records[row].ArrivalTime == domain.NotAvailable:
				return activeStyle
			default:
				return cellStyle
			}
		})
	return t.Render() + "\n"
}

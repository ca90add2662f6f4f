package app

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"

	"accessible_travel/internal/domain"
)

// RenderCalendar writes an HTML page with one bar per stop showing its nights.
func RenderCalendar(w io.Writer, trip domain.PlannedTrip) error {
	cal := Calendar(trip)

	labels := make([]string, 0, len(cal.Stops))
	nights := make([]opts.BarData, 0, len(cal.Stops))
	for _, st := range cal.Stops {
		labels = append(labels, fmt.Sprintf("%s (%s to %s)", st.Label(), st.StartDate, st.EndDate))
		nights = append(nights, opts.BarData{Name: st.Label(), Value: st.Nights})
	}

	subtitle := "No dated stops yet"
	if !cal.Start.IsZero() {
		subtitle = fmt.Sprintf("%s to %s, %s", cal.Start, cal.End, plural(cal.TotalNights, "night"))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Trip calendar",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Planned trip", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("Nights", nights, charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "top",
		}))
	return bar.Render(w)
}

var itineraryHeader = []any{"#", "City", "Country", "Start", "End", "Nights"}

// ExportXLSX writes the itinerary as a one-sheet workbook, one row per stop
// in start-date order plus a totals row.
func ExportXLSX(w io.Writer, trip domain.PlannedTrip) error {
	cal := Calendar(trip)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &itineraryHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", bold); err != nil {
		return err
	}

	row := 2
	for i, st := range cal.Stops {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		vals := []any{i + 1, st.City, st.Country, st.StartDate.String(), st.EndDate.String(), st.Nights}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
		row++
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []any{"Total", "", "", cal.Start.String(), cal.End.String(), cal.TotalNights}
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "B", "C", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "E", 12); err != nil {
		return err
	}
	return f.Write(w)
}

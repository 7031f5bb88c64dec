package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/model"
)

// Row is the yearly and peak demand of one end-use and fueltype.
type Row struct {
	EndUse         string  `json:"enduse"`
	Sector         string  `json:"sector"`
	Year           int     `json:"year"`
	Fueltype       string  `json:"fueltype"`
	Mode           string  `json:"mode"`
	YearlyFuel     float64 `json:"yearly_fuel"`
	PeakHourFuel   float64 `json:"peak_hour_fuel"`
	PeakDay        int     `json:"peak_day"`
	ServiceClamped int     `json:"service_clamped"`
}

// Rows flattens results into one row per fueltype carrying demand.
func Rows(results []cascade.Result, ft model.Fueltypes) []Row {
	var rows []Row
	for _, r := range results {
		for f, v := range r.YearlyFuel {
			peak := 0.0
			if f < len(r.PeakHourFuel) {
				peak = r.PeakHourFuel[f]
			}
			if v == 0 && peak == 0 {
				continue
			}
			rows = append(rows, Row{
				EndUse:         r.EndUse,
				Sector:         r.Sector,
				Year:           r.Year,
				Fueltype:       ft.Name(f),
				Mode:           r.Mode.String(),
				YearlyFuel:     v,
				PeakHourFuel:   peak,
				PeakDay:        r.PeakDay,
				ServiceClamped: r.ServiceClamped,
			})
		}
	}
	return rows
}

// WriteJSON writes the rows to w in JSON format.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the rows to w in CSV format with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"enduse", "sector", "year", "fueltype", "mode", "yearly_fuel", "peak_hour_fuel", "peak_day", "service_clamped"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.EndUse,
			r.Sector,
			strconv.Itoa(r.Year),
			r.Fueltype,
			r.Mode,
			formatFloat(r.YearlyFuel),
			formatFloat(r.PeakHourFuel),
			strconv.Itoa(r.PeakDay),
			strconv.Itoa(r.ServiceClamped),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHourlyCSV writes the 8760 hourly values of every fueltype carrying
// demand, one line per hour.
func WriteHourlyCSV(w io.Writer, results []cascade.Result, ft model.Fueltypes) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"enduse", "sector", "year", "fueltype", "day", "hour", "fuel"}); err != nil {
		return err
	}
	for _, r := range results {
		for f, g := range r.HourlyFuel {
			if f < len(r.YearlyFuel) && r.YearlyFuel[f] == 0 {
				continue
			}
			rows, cols := g.Dims()
			for d := 0; d < rows; d++ {
				for h := 0; h < cols; h++ {
					rec := []string{
						r.EndUse,
						r.Sector,
						strconv.Itoa(r.Year),
						ft.Name(f),
						strconv.Itoa(d),
						strconv.Itoa(h),
						formatFloat(g.At(d, h)),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

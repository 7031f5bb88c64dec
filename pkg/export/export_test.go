package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
)

func results(t *testing.T) ([]cascade.Result, model.Fueltypes) {
	t.Helper()
	ft, err := model.NewFueltypes([]string{"gas", "electricity"})
	require.NoError(t, err)
	hourly := []*mat.Dense{model.ConstantGrid(1.0 / model.HoursInYear * 10), model.NewGrid()}
	return []cascade.Result{{
		EndUse:       "space_heating",
		Sector:       "residential",
		Year:         2030,
		YearlyFuel:   model.FuelVector{10, 0},
		HourlyFuel:   hourly,
		PeakHourFuel: model.FuelVector{0.5, 0},
		PeakDay:      3,
		Mode:         switches.Service,
	}}, ft
}

func TestRowsSkipEmptyFueltypes(t *testing.T) {
	res, ft := results(t)
	rows := Rows(res, ft)
	require.Len(t, rows, 1)
	assert.Equal(t, "gas", rows[0].Fueltype)
	assert.Equal(t, "service_switch", rows[0].Mode)
	assert.Equal(t, 3, rows[0].PeakDay)
}

func TestWriteCSV(t *testing.T) {
	res, ft := results(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows(res, ft)))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "enduse", recs[0][0])
	assert.Equal(t, []string{"space_heating", "residential", "2030", "gas", "service_switch", "10", "0.5", "3", "0"}, recs[1])
}

func TestWriteJSON(t *testing.T) {
	res, ft := results(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Rows(res, ft)))
	var rows []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].YearlyFuel)
}

func TestWriteHourlyCSV(t *testing.T) {
	res, ft := results(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHourlyCSV(&buf, res, ft))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1+model.HoursInYear)
	assert.True(t, strings.HasPrefix(lines[1], "space_heating,residential,2030,gas,0,0,"))
}

package charts

import (
	"fmt"
	"strconv"

	"conflictdash/internal/dashboard"
	"conflictdash/internal/engine"
	"conflictdash/internal/models"
)

const (
	TypeBar        = "bar"
	TypeGroupedBar = "grouped_bar"
	TypeChoropleth = "choropleth"
)

type Point struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Figure is a renderer-neutral chart description.
type Figure struct {
	Panel  dashboard.PanelID `json:"panel"`
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	XAxis  string            `json:"x_axis"`
	YAxis  string            `json:"y_axis"`
	Series []Series          `json:"series"`
}

// Empty reports whether the figure has no points to draw.
func (f Figure) Empty() bool {
	for _, s := range f.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Build turns a panel result into a figure. data must be the value the
// dashboard service returned for panel.
func Build(panel dashboard.PanelID, sel engine.Selection, data any) (Figure, error) {
	country, year := sel.Country.Label(), sel.Year.Label()

	switch panel {
	case dashboard.PanelYearly:
		rows, ok := data.([]models.YearCount)
		if !ok {
			break
		}
		pts := make([]Point, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, Point{Label: strconv.Itoa(r.Year), Value: r.Count})
		}
		return Figure{
			Panel: panel, Type: TypeBar,
			Title: "Counts of Conflicts by Year for " + country,
			XAxis: "Year", YAxis: "Count",
			Series: []Series{{Name: "Count", Points: pts}},
		}, nil

	case dashboard.PanelTopConflicts:
		rows, ok := data.([]models.ConflictCount)
		if !ok {
			break
		}
		pts := make([]Point, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, Point{Label: r.ConflictName, Value: r.Count})
		}
		return Figure{
			Panel: panel, Type: TypeBar,
			Title: "Counts of Conflicts for Year " + year,
			XAxis: "Conflict Name", YAxis: "Count",
			Series: []Series{{Name: "Count", Points: pts}},
		}, nil

	case dashboard.PanelViolence:
		rows, ok := data.([]models.ViolenceDeaths)
		if !ok {
			break
		}
		pts := make([]Point, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, Point{Label: r.TypeOfViolence, Value: r.DeathsTotal})
		}
		return Figure{
			Panel: panel, Type: TypeBar,
			Title: "Sides and Types of Violence for " + country + " in " + year,
			XAxis: "Type of Violence", YAxis: "Total Deaths",
			Series: []Series{{Name: "Total Deaths", Points: pts}},
		}, nil

	case dashboard.PanelConflictDeaths:
		rows, ok := data.([]models.ConflictDeaths)
		if !ok {
			break
		}
		pts := make([]Point, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, Point{Label: r.ConflictName, Value: r.DeathsTotal})
		}
		return Figure{
			Panel: panel, Type: TypeBar,
			Title: "Count of Deaths for conflicts for " + country + " in " + year,
			XAxis: "Conflict Name", YAxis: "Total Deaths",
			Series: []Series{{Name: "Total Deaths", Points: pts}},
		}, nil

	case dashboard.PanelRegions:
		rows, ok := data.([]models.RegionDeaths)
		if !ok {
			break
		}
		series := []Series{
			{Name: "Unknown Deaths"},
			{Name: "Side A Deaths"},
			{Name: "Side B Deaths"},
			{Name: "Civilians Deaths"},
		}
		for i := range series {
			series[i].Points = make([]Point, 0, len(rows))
		}
		for _, r := range rows {
			series[0].Points = append(series[0].Points, Point{Label: r.Region, Value: r.DeathsUnknown})
			series[1].Points = append(series[1].Points, Point{Label: r.Region, Value: r.DeathsA})
			series[2].Points = append(series[2].Points, Point{Label: r.Region, Value: r.DeathsB})
			series[3].Points = append(series[3].Points, Point{Label: r.Region, Value: r.DeathsCivilians})
		}
		return Figure{
			Panel: panel, Type: TypeGroupedBar,
			Title: "Count of Deaths per region for " + country + " in " + year,
			XAxis: "Region", YAxis: "Total Deaths",
			Series: series,
		}, nil

	case dashboard.PanelMap:
		rows, ok := data.([]models.CountryDeaths)
		if !ok {
			break
		}
		pts := make([]Point, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, Point{Label: r.ISOCode, Value: r.Deaths})
		}
		return Figure{
			Panel: panel, Type: TypeChoropleth,
			Title: "Types of Death per Country",
			XAxis: "ISO Code", YAxis: "Value",
			Series: []Series{{Name: sel.DeathType.Label(), Points: pts}},
		}, nil

	default:
		return Figure{}, fmt.Errorf("unknown panel %q", panel)
	}
	return Figure{}, fmt.Errorf("panel %q: unexpected data %T", panel, data)
}

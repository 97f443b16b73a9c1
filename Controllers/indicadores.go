package Controllers

import (
	"math"
	"strconv"
	"strings"

	"MediFlow/Models"
)

type indicadores struct {
	BienestarPromedioPct   float64 `json:"bienestar_promedio_pct"`
	SaludEmocionalProm7Pct float64 `json:"salud_emocional_prom7_pct"`
	AsistenciaSemanalPct   float64 `json:"asistencia_semanal_pct"`
	MotivacionGeneralPct   float64 `json:"motivacion_general_pct"`
}

// likertRow is one likert answer, newest first
type likertRow struct {
	Valor     string
	Dimension string
}

// likertPct maps a 1-5 answer to 0-100
func likertPct(raw string) (float64, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 || v > 5 {
		return 0, false
	}
	return float64(v-1) / 4 * 100, true
}

type average struct {
	sum float64
	n   int
}

func (a *average) add(v float64) { a.sum += v; a.n++ }

func (a average) value() (float64, bool) {
	if a.n == 0 {
		return 0, false
	}
	return a.sum / float64(a.n), true
}

func computeIndicadores(rows []likertRow, diasConEntrada, diasProgramados int) indicadores {
	var all, animo7, motivacion, estres average
	for _, r := range rows {
		pct, ok := likertPct(r.Valor)
		if !ok {
			continue
		}
		all.add(pct)
		switch r.Dimension {
		case Models.DimensionAnimo:
			if animo7.n < 7 {
				animo7.add(pct)
			}
		case Models.DimensionMotivacion:
			motivacion.add(pct)
		case Models.DimensionEstres:
			estres.add(pct)
		}
	}

	var out indicadores
	out.BienestarPromedioPct, _ = all.value()
	out.SaludEmocionalProm7Pct, _ = animo7.value()

	var general average
	if diasProgramados > 0 {
		out.AsistenciaSemanalPct = math.Min(100, float64(diasConEntrada)/float64(diasProgramados)*100)
		general.add(out.AsistenciaSemanalPct)
	}
	if v, ok := motivacion.value(); ok {
		general.add(v)
	}
	if v, ok := estres.value(); ok {
		general.add(100 - v)
	}
	out.MotivacionGeneralPct, _ = general.value()

	out.BienestarPromedioPct = round1(out.BienestarPromedioPct)
	out.SaludEmocionalProm7Pct = round1(out.SaludEmocionalProm7Pct)
	out.AsistenciaSemanalPct = round1(out.AsistenciaSemanalPct)
	out.MotivacionGeneralPct = round1(out.MotivacionGeneralPct)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

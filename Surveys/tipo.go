package Surveys

import "strings"

// Survey categories
const (
	TipoFisico         = "fisico"
	TipoPsicosocial    = "psicosocial_emocional"
	TipoClimaLaboral   = "clima_laboral"
	TipoRespuestaCorta = "respuesta_corta"
	TipoGeneral        = "general"
)

var tipoAliases = map[string]string{
	"fisico":                TipoFisico,
	"físico":                TipoFisico,
	"physical":              TipoFisico,
	"psicosocial":           TipoPsicosocial,
	"emocional":             TipoPsicosocial,
	"psicosocial_emocional": TipoPsicosocial,
	"psicoemocional":        TipoPsicosocial,
	"social":                TipoClimaLaboral,
	"organizacional":        TipoClimaLaboral,
	"clima":                 TipoClimaLaboral,
	"clima laboral":         TipoClimaLaboral,
	"clima_laboral":         TipoClimaLaboral,
	"respuesta_corta":       TipoRespuestaCorta,
	"short":                 TipoRespuestaCorta,
	"short_answer":          TipoRespuestaCorta,
	"checkin_diario":        TipoRespuestaCorta,
	"general":               TipoGeneral,
	"checkin":               TipoGeneral,
	"encuesta":              TipoGeneral,
}

// keyword lists are checked in order, first match wins
var tipoKeywords = []struct {
	tipo     string
	keywords []string
}{
	{TipoFisico, []string{"fisico", "físico", "actividad", "ejercicio", "salud"}},
	{TipoPsicosocial, []string{"psicosocial", "emocional", "estrés", "estres", "motivación", "motivacion", "apoyo"}},
	{TipoClimaLaboral, []string{"social", "clima", "carga laboral", "organizacional", "equipo"}},
}

// NormalizeTipo maps the values used by admins to a category. Unknown values
// are returned lowercased; an empty value gives "".
func NormalizeTipo(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if tipo, ok := tipoAliases[key]; ok {
		return tipo
	}
	return key
}

// InferTipo guesses the category from the survey text
func InferTipo(titulo, descripcion string) string {
	text := strings.ToLower(titulo + " " + descripcion)
	for _, k := range tipoKeywords {
		for _, word := range k.keywords {
			if strings.Contains(text, word) {
				return k.tipo
			}
		}
	}
	return TipoGeneral
}

// QuestionCategory is the fallback category of a question by answer kind
func QuestionCategory(preguntaTipo string) string {
	if strings.EqualFold(preguntaTipo, "texto") {
		return TipoRespuestaCorta
	}
	return TipoClimaLaboral
}

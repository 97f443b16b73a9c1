package Models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pregunta tipos
const (
	PreguntaTexto    = "texto"
	PreguntaMultiple = "multiple"
	PreguntaLikert   = "likert"
)

// Dimensions a likert question can measure
const (
	DimensionAnimo      = "animo"
	DimensionEstres     = "estres"
	DimensionSueno      = "sueno"
	DimensionMotivacion = "motivacion"
)

type Encuesta struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Titulo      string     `json:"titulo" gorm:"not null"`
	Descripcion *string    `json:"descripcion"`
	Tipo        *string    `json:"tipo"`
	Activa      bool       `json:"activa"`
	CreatedAt   time.Time  `json:"-"`
	Preguntas   []Pregunta `json:"preguntas,omitempty" gorm:"foreignKey:EncuestaID;constraint:OnDelete:CASCADE"`

	RespondidaHoy *bool `json:"respondida_hoy,omitempty" gorm:"-"`
}

func (Encuesta) TableName() string {
	return "encuestas"
}

type Pregunta struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	EncuestaID uint           `json:"-" gorm:"index;not null"`
	Orden      int            `json:"-"`
	Tipo       string         `json:"tipo" gorm:"size:16;not null"`
	Texto      string         `json:"texto" gorm:"not null"`
	Dimension  string         `json:"-" gorm:"size:16"`
	Opciones   datatypes.JSON `json:"opciones,omitempty"`
}

func (Pregunta) TableName() string {
	return "preguntas"
}

// OpcionesList decodes Opciones; malformed JSON gives no options
func (p Pregunta) OpcionesList() []string {
	if len(p.Opciones) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.Opciones, &out); err != nil {
		return nil
	}
	return out
}

type Respuesta struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	EncuestaID uint           `json:"encuesta_id" gorm:"index;not null"`
	PreguntaID uint           `json:"pregunta_id" gorm:"index;not null"`
	UsuarioID  uint           `json:"id_usuario" gorm:"index;not null"`
	Valor      string         `json:"respuesta"`
	Fecha      datatypes.Date `json:"fecha" gorm:"index"`
	CreatedAt  time.Time      `json:"created_at"`

	Pregunta Pregunta `json:"-" gorm:"foreignKey:PreguntaID"`
}

func (Respuesta) TableName() string {
	return "respuestas"
}

// PendingEncuestas lists the active encuestas the usuario has not answered on day
func PendingEncuestas(db *gorm.DB, usuarioID uint, day datatypes.Date) ([]Encuesta, error) {
	answered := db.Model(&Respuesta{}).Select("encuesta_id").
		Where("usuario_id = ? AND fecha = ?", usuarioID, day)
	encuestas := []Encuesta{}
	err := db.Where("activa = ?", true).Where("id NOT IN (?)", answered).Order("id").Find(&encuestas).Error
	return encuestas, err
}

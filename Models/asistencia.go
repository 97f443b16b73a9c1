package Models

import (
	"time"

	"gorm.io/datatypes"
)

// Estados reported by the current attendance endpoint
const (
	EstadoSinMarcar  = "sin_marcar"
	EstadoEnJornada  = "en_jornada"
	EstadoFinalizada = "finalizada"
)

// Asistencia is one working day of one user
type Asistencia struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	UsuarioID          uint           `json:"id_usuario" gorm:"uniqueIndex:idx_asistencia_dia;not null"`
	Fecha              datatypes.Date `json:"fecha" gorm:"uniqueIndex:idx_asistencia_dia;not null"`
	HoraEntrada        *string        `json:"hora_entrada" gorm:"size:8"`
	HoraSalida         *string        `json:"hora_salida" gorm:"size:8"`
	UbicacionMarcado   *string        `json:"ubicacion_marcado"`
	DispositivoMarcado *string        `json:"dispositivo_marcado"`
	Observacion        *string        `json:"observacion"`
	CreatedAt          time.Time      `json:"-"`
	UpdatedAt          time.Time      `json:"-"`

	Usuario Usuario `json:"-" gorm:"foreignKey:UsuarioID"`
}

func (Asistencia) TableName() string {
	return "asistencias"
}

func (a Asistencia) Estado() string {
	switch {
	case a.HoraEntrada == nil:
		return EstadoSinMarcar
	case a.HoraSalida == nil:
		return EstadoEnJornada
	}
	return EstadoFinalizada
}

// Day is the calendar day of t in loc, stored as UTC midnight so that every
// driver compares dates the same way
func Day(t time.Time, loc *time.Location) datatypes.Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDay reads "2006-01-02"
func ParseDay(raw string) (datatypes.Date, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

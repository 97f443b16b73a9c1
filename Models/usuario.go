package Models

import "time"

type Usuario struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UIDFirebase *string   `json:"uid_firebase" gorm:"uniqueIndex;size:128"`
	Nombre      string    `json:"nombre"`
	Apellido    string    `json:"apellido"`
	Correo      string    `json:"correo" gorm:"index"`
	Rol         string    `json:"rol" gorm:"default:'EMPLEADO'"`
	DNI         string    `json:"dni"`
	Area        string    `json:"area"`
	Cargo       string    `json:"cargo"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	Horarios []Horario `json:"-" gorm:"foreignKey:UsuarioID"`
}

func (Usuario) TableName() string {
	return "usuarios"
}

func (u Usuario) NombreCompleto() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	return u.Nombre + " " + u.Apellido
}

// Horario is a weekly shift. Times are "HH:mm".
type Horario struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	UsuarioID          uint      `json:"id_usuario" gorm:"index;not null"`
	DiaSemana          string    `json:"dia_semana" gorm:"size:16"`
	HoraEntrada        string    `json:"hora_entrada" gorm:"size:8"`
	HoraSalida         string    `json:"hora_salida" gorm:"size:8"`
	HoraRefrigerio     *string   `json:"hora_refrigerio" gorm:"size:8"`
	DuracionRefrigerio int       `json:"duracion_refrigerio"`
	Turno              string    `json:"turno" gorm:"size:32"`
	Vigente            bool      `json:"vigente" gorm:"index"`
	FechaCreacion      time.Time `json:"fecha_creacion" gorm:"autoCreateTime"`
}

func (Horario) TableName() string {
	return "horarios"
}

// AdminUser signs in to the admin endpoints. Permission 1 can read reports,
// 2 can also manage horarios.
type AdminUser struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex;size:191"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission"`
}

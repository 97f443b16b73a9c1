package ApiClient

// Request and response bodies of the MediFlow backend. Field names follow the
// backend's snake_case JSON.

type FirebaseTokenRequest struct {
	IDToken string `json:"id_token"`
}

type SyncFirebaseUserRequest struct {
	UIDFirebase string  `json:"uid_firebase"`
	Nombre      *string `json:"nombre,omitempty"`
	Apellido    *string `json:"apellido,omitempty"`
	Rol         *string `json:"rol,omitempty"`
	DNI         *string `json:"dni,omitempty"`
	Area        *string `json:"area,omitempty"`
	Cargo       *string `json:"cargo,omitempty"`
}

type Horario struct {
	ID                 int     `json:"id"`
	DiaSemana          string  `json:"dia_semana"`
	HoraEntrada        string  `json:"hora_entrada"`
	HoraSalida         string  `json:"hora_salida"`
	HoraRefrigerio     *string `json:"hora_refrigerio"`
	DuracionRefrigerio int     `json:"duracion_refrigerio"`
	Turno              string  `json:"turno"`
	Vigente            bool    `json:"vigente"`
	FechaCreacion      *string `json:"fecha_creacion"`
}

type Usuario struct {
	ID          int     `json:"id"`
	UIDFirebase *string `json:"uid_firebase"`
	Nombre      string  `json:"nombre"`
	Apellido    string  `json:"apellido"`
	Correo      string  `json:"correo"`
}

type MarcarEntradaRequest struct {
	IDUsuario          int     `json:"id_usuario"`
	Fecha              *string `json:"fecha,omitempty"`
	UbicacionMarcado   *string `json:"ubicacion_marcado,omitempty"`
	DispositivoMarcado *string `json:"dispositivo_marcado,omitempty"`
	Observacion        *string `json:"observacion,omitempty"`
}

type RegistrarSalidaRequest struct {
	IDUsuario int `json:"id_usuario"`
}

// AsistenciaActual is today's attendance for one user. Times are "HH:mm".
type AsistenciaActual struct {
	Estado      *string `json:"estado"`
	HoraEntrada *string `json:"hora_entrada"`
	HoraSalida  *string `json:"hora_salida"`
}

type Encuesta struct {
	ID            int        `json:"id"`
	Titulo        string     `json:"titulo"`
	Descripcion   *string    `json:"descripcion"`
	Tipo          *string    `json:"tipo,omitempty"`
	Preguntas     []Pregunta `json:"preguntas,omitempty"`
	RespondidaHoy *bool      `json:"respondida_hoy,omitempty"`
}

// Pregunta tipo is one of "texto", "multiple" or "likert"
type Pregunta struct {
	ID       int      `json:"id"`
	Tipo     string   `json:"tipo"`
	Texto    string   `json:"texto"`
	Opciones []string `json:"opciones,omitempty"`
}

type RespuestaItem struct {
	PreguntaID int    `json:"pregunta_id"`
	Respuesta  string `json:"respuesta"`
}

type ResponderEncuestaRequest struct {
	IDUsuario  int             `json:"id_usuario"`
	Respuestas []RespuestaItem `json:"respuestas"`
}

// Indicadores are percentages in the 0-100 range
type Indicadores struct {
	BienestarPromedioPct   float64 `json:"bienestar_promedio_pct"`
	SaludEmocionalProm7Pct float64 `json:"salud_emocional_prom7_pct"`
	AsistenciaSemanalPct   float64 `json:"asistencia_semanal_pct"`
	MotivacionGeneralPct   float64 `json:"motivacion_general_pct"`
}

// MessageResponse is the generic body of write endpoints. Endpoints that
// answer with an empty or non-JSON body decode to the zero value.
type MessageResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	IDUsuario int    `json:"id_usuario,omitempty"`
}

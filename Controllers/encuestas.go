package Controllers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"MediFlow/Models"
)

type EncuestaController struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func NewEncuestaController(db *gorm.DB, loc *time.Location) *EncuestaController {
	if loc == nil {
		loc = time.Local
	}
	return &EncuestaController{DB: db, Location: loc, Now: time.Now}
}

func (c *EncuestaController) today() time.Time {
	return c.Now().In(c.Location)
}

func (c *EncuestaController) Pendientes(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id_usuario"))
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id_usuario inválido"})
	}
	if ok, err := requireSelf(ctx, c.DB, uint(id)); !ok {
		return err
	}
	encuestas, err := Models.PendingEncuestas(c.DB, uint(id), Models.Day(c.today(), c.Location))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando encuestas"})
	}
	return ctx.JSON(encuestas)
}

func (c *EncuestaController) Get(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID de encuesta inválido"})
	}
	var encuesta Models.Encuesta
	err = c.DB.Preload("Preguntas", func(db *gorm.DB) *gorm.DB {
		return db.Order("orden, id")
	}).First(&encuesta, id).Error
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Encuesta no encontrada"})
	}

	if usuarioID, err := strconv.Atoi(ctx.Query("id_usuario")); err == nil && usuarioID > 0 {
		if ok, err := requireSelf(ctx, c.DB, uint(usuarioID)); !ok {
			return err
		}
		answered, err := c.respondidaHoy(c.DB, encuesta.ID, uint(usuarioID))
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando encuesta"})
		}
		encuesta.RespondidaHoy = &answered
	}
	return ctx.JSON(encuesta)
}

func (c *EncuestaController) respondidaHoy(db *gorm.DB, encuestaID, usuarioID uint) (bool, error) {
	var count int64
	err := db.Model(&Models.Respuesta{}).
		Where("encuesta_id = ? AND usuario_id = ? AND fecha = ?", encuestaID, usuarioID, Models.Day(c.today(), c.Location)).
		Count(&count).Error
	return count > 0, err
}

type respuestaInput struct {
	PreguntaID uint   `json:"pregunta_id" validate:"required"`
	Respuesta  string `json:"respuesta" validate:"required,max=2000"`
}

type responderInput struct {
	UsuarioID  uint             `json:"id_usuario" validate:"required"`
	Respuestas []respuestaInput `json:"respuestas" validate:"required,min=1,dive"`
}

var errRespondida = errors.New("already answered today")

// Responder stores the answers of one user, once per survey and day
func (c *EncuestaController) Responder(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID de encuesta inválido"})
	}
	var input responderInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	if ok, err := requireSelf(ctx, c.DB, input.UsuarioID); !ok {
		return err
	}

	var encuesta Models.Encuesta
	if err := c.DB.Preload("Preguntas").First(&encuesta, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Encuesta no encontrada"})
	}
	if err := c.DB.First(&Models.Usuario{}, input.UsuarioID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
	}

	preguntas := make(map[uint]Models.Pregunta, len(encuesta.Preguntas))
	for _, p := range encuesta.Preguntas {
		preguntas[p.ID] = p
	}
	fecha := Models.Day(c.today(), c.Location)
	rows := make([]Models.Respuesta, 0, len(input.Respuestas))
	for _, r := range input.Respuestas {
		p, ok := preguntas[r.PreguntaID]
		if !ok {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("La pregunta %d no pertenece a la encuesta", r.PreguntaID)})
		}
		if msg := checkRespuesta(p, r.Respuesta); msg != "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}
		rows = append(rows, Models.Respuesta{
			EncuestaID: encuesta.ID,
			PreguntaID: p.ID,
			UsuarioID:  input.UsuarioID,
			Valor:      strings.TrimSpace(r.Respuesta),
			Fecha:      fecha,
		})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		answered, err := c.respondidaHoy(tx, encuesta.ID, input.UsuarioID)
		if err != nil {
			return err
		}
		if answered {
			return errRespondida
		}
		return tx.Create(&rows).Error
	})
	if errors.Is(err, errRespondida) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Ya respondiste esta encuesta hoy"})
	}
	if err != nil {
		log.Printf("responder encuesta %d usuario %d: %v", encuesta.ID, input.UsuarioID, err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudieron guardar las respuestas"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Respuestas registradas"})
}

// checkRespuesta returns a user message when the answer does not fit the
// question kind
func checkRespuesta(p Models.Pregunta, valor string) string {
	switch p.Tipo {
	case Models.PreguntaLikert:
		if _, ok := likertPct(valor); !ok {
			return fmt.Sprintf("La pregunta %d espera un valor entre 1 y 5", p.ID)
		}
	case Models.PreguntaMultiple:
		opciones := p.OpcionesList()
		if len(opciones) == 0 {
			return ""
		}
		for _, o := range opciones {
			if o == strings.TrimSpace(valor) {
				return ""
			}
		}
		return fmt.Sprintf("Opción inválida para la pregunta %d", p.ID)
	}
	return ""
}

func (c *EncuestaController) Indicadores(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id_usuario"))
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id_usuario inválido"})
	}
	if ok, err := requireSelf(ctx, c.DB, uint(id)); !ok {
		return err
	}

	var rows []likertRow
	err = c.DB.Table("respuestas").
		Select("respuestas.valor AS valor, preguntas.dimension AS dimension").
		Joins("JOIN preguntas ON preguntas.id = respuestas.pregunta_id").
		Where("respuestas.usuario_id = ? AND preguntas.tipo = ?", id, Models.PreguntaLikert).
		Order("respuestas.created_at desc, respuestas.id desc").
		Scan(&rows).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error calculando indicadores"})
	}

	now := c.today()
	var diasConEntrada int64
	err = c.DB.Model(&Models.Asistencia{}).
		Where("usuario_id = ? AND hora_entrada IS NOT NULL AND fecha BETWEEN ? AND ?",
			id, Models.Day(now.AddDate(0, 0, -6), c.Location), Models.Day(now, c.Location)).
		Count(&diasConEntrada).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error calculando indicadores"})
	}

	var dias []string
	err = c.DB.Model(&Models.Horario{}).
		Where("usuario_id = ? AND vigente = ?", id, true).
		Distinct().Pluck("dia_semana", &dias).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error calculando indicadores"})
	}

	return ctx.JSON(computeIndicadores(rows, int(diasConEntrada), len(dias)))
}

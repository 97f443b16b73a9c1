package Controllers

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"MediFlow/Models"
)

// HorarioNotifier is told about every assigned or updated horario
type HorarioNotifier interface {
	HorarioChanged(ctx context.Context, uid string, h Models.Horario, updated bool) error
}

type HorarioController struct {
	DB       *gorm.DB
	Notifier HorarioNotifier
}

func NewHorarioController(db *gorm.DB, notifier HorarioNotifier) *HorarioController {
	return &HorarioController{DB: db, Notifier: notifier}
}

// ByUID lists the horarios of a Firebase user, optionally only the current ones
func (c *HorarioController) ByUID(ctx *fiber.Ctx) error {
	if ok, err := requireSelfUID(ctx, ctx.Params("uid")); !ok {
		return err
	}
	var usuario Models.Usuario
	if err := c.DB.Where("uid_firebase = ?", ctx.Params("uid")).First(&usuario).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando horarios"})
	}

	query := c.DB.Where("usuario_id = ?", usuario.ID)
	if vigente, err := strconv.ParseBool(ctx.Query("vigente")); err == nil {
		query = query.Where("vigente = ?", vigente)
	}
	horarios := []Models.Horario{}
	if err := query.Order("fecha_creacion desc, id desc").Find(&horarios).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando horarios"})
	}
	return ctx.JSON(horarios)
}

type horarioInput struct {
	UsuarioID          uint    `json:"id_usuario" validate:"required"`
	DiaSemana          string  `json:"dia_semana" validate:"required,oneof=LUNES MARTES MIERCOLES JUEVES VIERNES SABADO DOMINGO"`
	HoraEntrada        string  `json:"hora_entrada" validate:"required,datetime=15:04"`
	HoraSalida         string  `json:"hora_salida" validate:"required,datetime=15:04"`
	HoraRefrigerio     *string `json:"hora_refrigerio" validate:"omitempty,datetime=15:04"`
	DuracionRefrigerio int     `json:"duracion_refrigerio" validate:"gte=0,lte=180"`
	Turno              string  `json:"turno" validate:"required,max=32"`
	Vigente            *bool   `json:"vigente"`
}

func (in horarioInput) apply(h *Models.Horario) {
	h.UsuarioID = in.UsuarioID
	h.DiaSemana = in.DiaSemana
	h.HoraEntrada = in.HoraEntrada
	h.HoraSalida = in.HoraSalida
	h.HoraRefrigerio = in.HoraRefrigerio
	h.DuracionRefrigerio = in.DuracionRefrigerio
	h.Turno = in.Turno
	if in.Vigente != nil {
		h.Vigente = *in.Vigente
	}
}

func (c *HorarioController) Create(ctx *fiber.Ctx) error {
	var input horarioInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	usuario, err := c.usuario(input.UsuarioID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
	}

	horario := Models.Horario{Vigente: true}
	input.apply(&horario)
	if err := c.DB.Create(&horario).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo crear el horario"})
	}
	c.notify(ctx.UserContext(), usuario, horario, false)
	return ctx.Status(fiber.StatusCreated).JSON(horario)
}

func (c *HorarioController) Update(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID de horario inválido"})
	}
	var horario Models.Horario
	if err := c.DB.First(&horario, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Horario no encontrado"})
	}

	var input horarioInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	usuario, err := c.usuario(input.UsuarioID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
	}

	input.apply(&horario)
	if err := c.DB.Save(&horario).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo actualizar el horario"})
	}
	c.notify(ctx.UserContext(), usuario, horario, true)
	return ctx.JSON(horario)
}

func (c *HorarioController) usuario(id uint) (Models.Usuario, error) {
	var usuario Models.Usuario
	err := c.DB.First(&usuario, id).Error
	return usuario, err
}

// push failures never fail the request
func (c *HorarioController) notify(ctx context.Context, usuario Models.Usuario, h Models.Horario, updated bool) {
	if c.Notifier == nil || usuario.UIDFirebase == nil {
		return
	}
	if err := c.Notifier.HorarioChanged(ctx, *usuario.UIDFirebase, h, updated); err != nil {
		log.Printf("horario %d push to usuario %d failed: %v", h.ID, usuario.ID, err)
	}
}

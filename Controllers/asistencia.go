package Controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"MediFlow/Models"
)

const clockLayout = "15:04"

// AsistenciaController records clock-ins and clock-outs. The working day is
// taken in Location.
type AsistenciaController struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func NewAsistenciaController(db *gorm.DB, loc *time.Location) *AsistenciaController {
	if loc == nil {
		loc = time.Local
	}
	return &AsistenciaController{DB: db, Location: loc, Now: time.Now}
}

func (c *AsistenciaController) now() time.Time {
	return c.Now().In(c.Location)
}

type marcarEntradaInput struct {
	UsuarioID          uint    `json:"id_usuario" validate:"required"`
	Fecha              *string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	UbicacionMarcado   *string `json:"ubicacion_marcado" validate:"omitempty,max=255"`
	DispositivoMarcado *string `json:"dispositivo_marcado" validate:"omitempty,max=255"`
	Observacion        *string `json:"observacion" validate:"omitempty,max=500"`
}

// Marcar registers today's entry. A second entry on the same day is refused.
func (c *AsistenciaController) Marcar(ctx *fiber.Ctx) error {
	var input marcarEntradaInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	if ok, err := requireSelf(ctx, c.DB, input.UsuarioID); !ok {
		return err
	}
	if err := c.DB.First(&Models.Usuario{}, input.UsuarioID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
	}

	now := c.now()
	fecha := Models.Day(now, c.Location)
	if input.Fecha != nil {
		parsed, err := Models.ParseDay(*input.Fecha)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fecha inválida"})
		}
		fecha = parsed
	}

	hora := now.Format(clockLayout)
	var asistencia Models.Asistencia
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("usuario_id = ? AND fecha = ?", input.UsuarioID, fecha).First(&asistencia).Error
		if err == nil {
			if asistencia.HoraEntrada != nil {
				return errEntradaExistente
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		asistencia.UsuarioID = input.UsuarioID
		asistencia.Fecha = fecha
		asistencia.HoraEntrada = &hora
		asistencia.UbicacionMarcado = input.UbicacionMarcado
		asistencia.DispositivoMarcado = input.DispositivoMarcado
		asistencia.Observacion = input.Observacion
		return tx.Save(&asistencia).Error
	})
	if errors.Is(err, errEntradaExistente) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Ya existe una entrada registrada para hoy"})
	}
	if err != nil {
		log.Printf("marcar entrada usuario %d: %v", input.UsuarioID, err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo registrar la entrada"})
	}

	log.Printf("entrada usuario %d a las %s (%s)", input.UsuarioID, hora, deref(input.UbicacionMarcado, "sin ubicación"))
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Entrada registrada",
		"id_asistencia": asistencia.ID,
		"hora_entrada":  hora,
	})
}

var errEntradaExistente = errors.New("entrada already registered")

type registrarSalidaInput struct {
	UsuarioID uint `json:"id_usuario" validate:"required"`
}

// Salida closes today's record
func (c *AsistenciaController) Salida(ctx *fiber.Ctx) error {
	var input registrarSalidaInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	if ok, err := requireSelf(ctx, c.DB, input.UsuarioID); !ok {
		return err
	}

	now := c.now()
	var asistencia Models.Asistencia
	err := c.DB.Where("usuario_id = ? AND fecha = ?", input.UsuarioID, Models.Day(now, c.Location)).First(&asistencia).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && asistencia.HoraEntrada == nil) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No hay una entrada registrada hoy"})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo registrar la salida"})
	}
	if asistencia.HoraSalida != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "La salida ya fue registrada"})
	}

	hora := now.Format(clockLayout)
	if err := c.DB.Model(&asistencia).Update("hora_salida", hora).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo registrar la salida"})
	}
	log.Printf("salida usuario %d a las %s", input.UsuarioID, hora)
	return ctx.JSON(fiber.Map{"message": "Salida registrada", "hora_salida": hora})
}

// Actual reports today's status of one user
func (c *AsistenciaController) Actual(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Query("id_usuario"))
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id_usuario inválido"})
	}
	if ok, err := requireSelf(ctx, c.DB, uint(id)); !ok {
		return err
	}

	var asistencia Models.Asistencia
	err = c.DB.Where("usuario_id = ? AND fecha = ?", id, Models.Day(c.now(), c.Location)).First(&asistencia).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando asistencia"})
	}
	return ctx.JSON(fiber.Map{
		"estado":       asistencia.Estado(),
		"hora_entrada": asistencia.HoraEntrada,
		"hora_salida":  asistencia.HoraSalida,
	})
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

package Controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"MediFlow/Models"
	"MediFlow/middleware"
)

// UsuarioController links Firebase identities to backend users
type UsuarioController struct {
	DB       *gorm.DB
	Verifier middleware.TokenVerifier
}

func NewUsuarioController(db *gorm.DB, verifier middleware.TokenVerifier) *UsuarioController {
	return &UsuarioController{DB: db, Verifier: verifier}
}

type firebaseTokenInput struct {
	IDToken string `json:"id_token" validate:"required"`
}

// SyncFirebase verifies an ID token and creates the matching usuario if it
// does not exist yet. A usuario registered by an admin with the same email
// and no uid is linked instead.
func (c *UsuarioController) SyncFirebase(ctx *fiber.Ctx) error {
	var input firebaseTokenInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	if c.Verifier == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Verificación de tokens no configurada"})
	}
	token, err := c.Verifier.VerifyIDToken(ctx.UserContext(), input.IDToken)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token inválido"})
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	var usuario Models.Usuario
	err = c.DB.Where("uid_firebase = ?", token.UID).First(&usuario).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		usuario, err = c.linkOrCreate(token.UID, email, name)
		if err != nil {
			log.Printf("sync firebase %s: %v", token.UID, err)
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo sincronizar el usuario"})
		}
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo sincronizar el usuario"})
	}

	return ctx.JSON(fiber.Map{
		"message":    "Usuario sincronizado",
		"id_usuario": usuario.ID,
	})
}

func (c *UsuarioController) linkOrCreate(uid, email, name string) (Models.Usuario, error) {
	var usuario Models.Usuario
	if email != "" {
		err := c.DB.Where("correo = ? AND uid_firebase IS NULL", email).First(&usuario).Error
		if err == nil {
			usuario.UIDFirebase = &uid
			return usuario, c.DB.Save(&usuario).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return usuario, err
		}
	}
	nombre, apellido := splitName(name)
	usuario = Models.Usuario{UIDFirebase: &uid, Correo: email, Nombre: nombre, Apellido: apellido}
	return usuario, c.DB.Create(&usuario).Error
}

type syncUsuarioInput struct {
	UIDFirebase string  `json:"uid_firebase" validate:"required"`
	Nombre      *string `json:"nombre" validate:"omitempty,max=100"`
	Apellido    *string `json:"apellido" validate:"omitempty,max=100"`
	Rol         *string `json:"rol" validate:"omitempty,max=32"`
	DNI         *string `json:"dni" validate:"omitempty,alphanum,max=16"`
	Area        *string `json:"area"`
	Cargo       *string `json:"cargo"`
}

// SyncProfile upserts the profile fields of the calling user
func (c *UsuarioController) SyncProfile(ctx *fiber.Ctx) error {
	var input syncUsuarioInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}
	if ok, err := requireSelfUID(ctx, input.UIDFirebase); !ok {
		return err
	}

	var usuario Models.Usuario
	err := c.DB.Where("uid_firebase = ?", input.UIDFirebase).First(&usuario).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo guardar el usuario"})
	}
	usuario.UIDFirebase = &input.UIDFirebase
	assign(&usuario.Nombre, input.Nombre)
	assign(&usuario.Apellido, input.Apellido)
	assign(&usuario.Rol, input.Rol)
	assign(&usuario.DNI, input.DNI)
	assign(&usuario.Area, input.Area)
	assign(&usuario.Cargo, input.Cargo)

	if err := c.DB.Save(&usuario).Error; err != nil {
		log.Printf("save usuario %s: %v", input.UIDFirebase, err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo guardar el usuario"})
	}
	return ctx.JSON(fiber.Map{"message": "Perfil actualizado", "id_usuario": usuario.ID})
}

// ByUID returns the caller's own usuario
func (c *UsuarioController) ByUID(ctx *fiber.Ctx) error {
	if ok, err := requireSelfUID(ctx, ctx.Params("uid")); !ok {
		return err
	}
	var usuario Models.Usuario
	if err := c.DB.Where("uid_firebase = ?", ctx.Params("uid")).First(&usuario).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Usuario no encontrado"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando usuario"})
	}
	return ctx.JSON(usuario)
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"MediFlow/Models"
)

var errAjeno = fiber.Map{"error": "No puedes operar sobre otro usuario"}

// callerUID is the Firebase uid verified by middleware.FirebaseAuth
func callerUID(ctx *fiber.Ctx) string {
	uid, _ := ctx.Locals("uid").(string)
	return uid
}

// requireSelfUID writes 401 or 403 unless uid belongs to the caller
func requireSelfUID(ctx *fiber.Ctx, uid string) (bool, error) {
	caller := callerUID(ctx)
	if caller == "" {
		return false, ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No autenticado"})
	}
	if caller != uid {
		return false, ctx.Status(fiber.StatusForbidden).JSON(errAjeno)
	}
	return true, nil
}

// requireSelf writes 401 or 403 unless usuarioID is the usuario linked to
// the caller's uid
func requireSelf(ctx *fiber.Ctx, db *gorm.DB, usuarioID uint) (bool, error) {
	caller := callerUID(ctx)
	if caller == "" {
		return false, ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No autenticado"})
	}
	var usuario Models.Usuario
	err := db.Select("id").Where("uid_firebase = ?", caller).First(&usuario).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && usuario.ID != usuarioID) {
		return false, ctx.Status(fiber.StatusForbidden).JSON(errAjeno)
	}
	if err != nil {
		return false, ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando usuario"})
	}
	return true, nil
}

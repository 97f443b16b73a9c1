package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"MediFlow/Models"
)

const sessionTTL = 24 * time.Hour

type AdminController struct {
	DB       *gorm.DB
	Secret   string
	Location *time.Location
	Now      func() time.Time
}

func NewAdminController(db *gorm.DB, secret string, loc *time.Location) *AdminController {
	if loc == nil {
		loc = time.Local
	}
	return &AdminController{DB: db, Secret: secret, Location: loc, Now: time.Now}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *AdminController) Login(ctx *fiber.Ctx) error {
	var input loginInput
	if ok, err := parseAndValidate(ctx, &input); !ok {
		return err
	}

	var user Models.AdminUser
	if err := c.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Credenciales inválidas"})
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(input.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Credenciales inválidas"})
	}

	// the middleware checks expiry against the wall clock
	expires := time.Now().Add(sessionTTL)
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(user.ID)),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	token, err := claims.SignedString([]byte(c.Secret))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not login"})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ctx.JSON(fiber.Map{
		"message":    "Success",
		"name":       user.Name,
		"permission": user.Permission,
	})
}

func (c *AdminController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"message": "Success"})
}

// boardRow is one line of the attendance board
type boardRow struct {
	Nombre      string
	Area        string
	HoraEntrada string
	HoraSalida  string
	Estado      string
	Ubicacion   string
}

// Board renders today's attendance, one row per user
func (c *AdminController) Board(ctx *fiber.Ctx) error {
	now := c.Now().In(c.Location)
	rows, err := c.boardRows(Models.Day(now, c.Location))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).SendString("Error consultando asistencias")
	}
	return ctx.Render("asistencia", fiber.Map{
		"Fecha": now.Format("02/01/2006"),
		"Rows":  rows,
	})
}

func (c *AdminController) boardRows(day datatypes.Date) ([]boardRow, error) {
	var usuarios []Models.Usuario
	if err := c.DB.Order("apellido, nombre").Find(&usuarios).Error; err != nil {
		return nil, err
	}
	var asistencias []Models.Asistencia
	if err := c.DB.Where("fecha = ?", day).Find(&asistencias).Error; err != nil {
		return nil, err
	}
	byUser := make(map[uint]Models.Asistencia, len(asistencias))
	for _, a := range asistencias {
		byUser[a.UsuarioID] = a
	}

	rows := make([]boardRow, 0, len(usuarios))
	for _, u := range usuarios {
		a := byUser[u.ID]
		rows = append(rows, boardRow{
			Nombre:      u.NombreCompleto(),
			Area:        u.Area,
			HoraEntrada: deref(a.HoraEntrada, "-"),
			HoraSalida:  deref(a.HoraSalida, "-"),
			Estado:      a.Estado(),
			Ubicacion:   deref(a.UbicacionMarcado, ""),
		})
	}
	return rows, nil
}

package Controllers

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"MediFlow/Models"
)

const reportSheet = "Asistencias"

var reportHeaders = []string{
	"Fecha", "Usuario", "DNI", "Área", "Cargo", "Entrada", "Salida", "Estado", "Ubicación", "Dispositivo",
}

// Reporte exports the attendance between ?desde= and ?hasta= (inclusive) as
// an xlsx workbook. The default range is the last seven days.
func (c *AdminController) Reporte(ctx *fiber.Ctx) error {
	now := c.Now().In(c.Location)
	hasta := Models.Day(now, c.Location)
	desde := Models.Day(now.AddDate(0, 0, -6), c.Location)
	if raw := ctx.Query("desde"); raw != "" {
		d, err := Models.ParseDay(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fecha 'desde' inválida"})
		}
		desde = d
	}
	if raw := ctx.Query("hasta"); raw != "" {
		d, err := Models.ParseDay(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fecha 'hasta' inválida"})
		}
		hasta = d
	}
	if time.Time(hasta).Before(time.Time(desde)) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "El rango de fechas es inválido"})
	}

	var asistencias []Models.Asistencia
	err := c.DB.Preload("Usuario").
		Where("fecha BETWEEN ? AND ?", desde, hasta).
		Order("fecha, usuario_id").
		Find(&asistencias).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error consultando asistencias"})
	}

	buf, err := asistenciaWorkbook(asistencias)
	if err != nil {
		log.Printf("reporte asistencias: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "No se pudo generar el reporte"})
	}

	filename := fmt.Sprintf("asistencias_%s_%s.xlsx",
		time.Time(desde).Format("20060102"), time.Time(hasta).Format("20060102"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(buf.Bytes())
}

func asistenciaWorkbook(asistencias []Models.Asistencia) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if f.GetSheetName(0) != reportSheet {
		f.DeleteSheet("Sheet1")
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCEFEA"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(reportSheet, 1, 1, headerStyle)
	}

	for i, a := range asistencias {
		values := []interface{}{
			time.Time(a.Fecha).Format("2006-01-02"),
			a.Usuario.NombreCompleto(),
			a.Usuario.DNI,
			a.Usuario.Area,
			a.Usuario.Cargo,
			deref(a.HoraEntrada, ""),
			deref(a.HoraSalida, ""),
			a.Estado(),
			deref(a.UbicacionMarcado, ""),
			deref(a.DispositivoMarcado, ""),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(reportSheet, cell, value)
		}
	}
	f.SetColWidth(reportSheet, "A", "J", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return &buf, nil
}

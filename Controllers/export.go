package Controllers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"ShiftCheck/Models"
)

// ExportController renders filtered submission history as a spreadsheet
// for compliance audits.
type ExportController struct {
	DB *gorm.DB
}

func NewExportController(db *gorm.DB) *ExportController {
	return &ExportController{DB: db}
}

func submissionsToExcel(subs []Models.Submission, titles map[uint]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	sheetName := "Submissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Date", "Submission ID", "Tasklist ID", "Location ID", "Submission Status",
		"Signed By", "Task", "Task Status", "Review Status", "N/A", "Value",
		"Note", "Rework Count", "Review Note", "Photos",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	row := 2
	for _, sub := range subs {
		for _, task := range sub.Tasks {
			title := titles[task.TaskID]
			if title == "" {
				title = fmt.Sprintf("Task %d", task.TaskID)
			}
			na := ""
			if task.NA {
				na = "N/A"
			}
			values := []interface{}{
				sub.Date, sub.ID, sub.TasklistID, sub.LocationID, string(sub.Status),
				sub.SignedBy, title, string(task.Status), string(task.ReviewStatus), na,
				task.Value, task.Note, task.ReworkCount, task.ReviewNote,
				strings.Join(task.Photos, ", "),
			}
			for colIndex, value := range values {
				cell, _ := excelize.CoordinatesToCellName(colIndex+1, row)
				f.SetCellValue(sheetName, cell, value)
			}
			row++
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 15)
	}
	if f.GetSheetName(0) != sheetName {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}

// ExportSubmissions streams the submission history matching the same query
// filters as GetSubmissions, one row per task outcome.
func (ec *ExportController) ExportSubmissions(c *fiber.Ctx) error {
	query := ec.DB.Preload("Tasks").Where("tenant_id = ?", currentUser(c).TenantID)
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}
	if locationID := c.Query("location_id"); locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var subs []Models.Submission
	if err := query.Order("date ASC").Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve submissions"})
	}

	titles := make(map[uint]string)
	var defs []Models.TaskDefinition
	if err := ec.DB.Find(&defs).Error; err == nil {
		for _, d := range defs {
			titles[d.ID] = d.Title
		}
	}

	excelBuffer, err := submissionsToExcel(subs, titles)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to build export"})
	}

	filename := fmt.Sprintf("submissions_export_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Set("Content-Length", fmt.Sprintf("%d", excelBuffer.Len()))
	return c.Send(excelBuffer.Bytes())
}

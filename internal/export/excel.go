// Package export writes operator reports: the booking ledger and
// acknowledged fines over a date range, one xlsx file per run.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"parkovka/internal/domain"
	"parkovka/internal/models"
)

type Exporter struct {
	bookings domain.BookingStore
	fines    FineLister
	path     string
}

// FineLister is the paid-fine slice of the ledger.
type FineLister interface {
	GetPaidFines(ctx context.Context, start, end time.Time) ([]*models.FineRecord, error)
}

func New(bookings domain.BookingStore, fines FineLister, path string) *Exporter {
	return &Exporter{bookings: bookings, fines: fines, path: path}
}

// Export writes bookings and paid fines into one workbook and returns the
// file path.
func (e *Exporter) Export(ctx context.Context, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	active, err := e.bookings.GetActiveBookings(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeBookingsSheet(f, active, start, end); err != nil {
		return "", err
	}
	if err := e.writeFinesSheet(ctx, f, start, end); err != nil {
		return "", err
	}

	name := fmt.Sprintf("parkovka_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fullPath := filepath.Join(e.path, name)
	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("error saving export file: %w", err)
	}
	return fullPath, nil
}

func (e *Exporter) writeBookingsSheet(f *excelize.File, bookings []*models.Booking, start, end time.Time) error {
	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Period: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))

	headers := []string{"ID", "User", "Kind", "Rate", "Floor", "Slot", "Entry", "Exit", "Price", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 3
	for _, b := range bookings {
		if b.EntryDate.Before(start) || b.EntryDate.After(end) {
			continue
		}
		values := []interface{}{
			b.ID, b.Username, b.BookingKind, b.RateType, b.Floor, b.SlotID,
			formatMoment(b.EntryDate, b.EntryTime),
			formatMoment(b.ExitDate, b.ExitTime),
			b.Price, b.Status,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "J", 16)

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A2", "J2", style)
	}
	_ = f.DeleteSheet("Sheet1")
	return nil
}

func (e *Exporter) writeFinesSheet(ctx context.Context, f *excelize.File, start, end time.Time) error {
	const sheet = "Fines"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	headers := []string{"Booking ID", "Overdue (min)", "Rounds", "Fine", "Original price", "Paid at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	fines, err := e.fines.GetPaidFines(ctx, start, end)
	if err != nil {
		return fmt.Errorf("error getting fines: %w", err)
	}

	for row, rec := range fines {
		values := []interface{}{
			rec.BookingID, rec.OverdueMinutes, rec.Rounds, rec.FineAmount,
			rec.OriginalPrice, rec.PaidAt.Format("2006-01-02 15:04"),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "F", 16)
	return nil
}

func formatMoment(date time.Time, hhmm string) string {
	if hhmm == "" {
		return date.Format("2006-01-02")
	}
	return date.Format("2006-01-02") + " " + hhmm
}

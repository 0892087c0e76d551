package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/pkg/config"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/export"
)

// EmailLogReader lists the delivery audit trail.
type EmailLogReader interface {
	List(ctx context.Context, filter models.EmailLogFilter) ([]models.EmailLog, int, error)
}

// ExportService renders admin booking exports as CSV or PDF and exposes
// the email delivery audit trail.
type ExportService struct {
	bookings BookingStore
	garages  GarageReader
	emailLog EmailLogReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cfg      config.ExportsConfig
	logger   *zap.Logger
}

func NewExportService(bookings BookingStore, garages GarageReader, emailLog EmailLogReader, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	return &ExportService{
		bookings: bookings,
		garages:  garages,
		emailLog: emailLog,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *ExportService) dataset(ctx context.Context, filter models.BookingFilter) (export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = s.cfg.MaxRows
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.ErrDatabase.WithError(err)
	}
	if total > len(bookings) {
		s.logger.Warn("export truncated",
			zap.Int("total", total),
			zap.Int("exported", len(bookings)))
	}

	headers := []string{"Booking ID", "Garage", "Date", "Time", "Status", "Payment", "Price"}
	garageNames := map[string]string{}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		name, ok := garageNames[b.GarageID]
		if !ok {
			garage, err := s.garages.GetByID(ctx, b.GarageID)
			if err == nil && garage != nil {
				name = garage.Name
			}
			garageNames[b.GarageID] = name
		}
		rows = append(rows, map[string]string{
			"Booking ID": b.ID,
			"Garage":     name,
			"Date":       b.Date.Format(dateLayout),
			"Time":       b.TimeSlot,
			"Status":     string(b.Status),
			"Payment":    string(b.PaymentStatus),
			"Price":      strconv.FormatFloat(b.TotalPrice, 'f', 2, 64),
		})
	}

	return export.Dataset{
		Headers: headers,
		Rows:    rows,
	}, nil
}

// ExportBookingsCSV renders matching bookings as CSV.
func (s *ExportService) ExportBookingsCSV(ctx context.Context, filter models.BookingFilter) ([]byte, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrForbidden.WithError(fmt.Errorf("exports disabled"))
	}
	data, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.ErrInternal.WithError(err)
	}
	return out, nil
}

// ExportBookingsPDF renders matching bookings as a PDF table.
func (s *ExportService) ExportBookingsPDF(ctx context.Context, filter models.BookingFilter) ([]byte, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrForbidden.WithError(fmt.Errorf("exports disabled"))
	}
	data, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(data, "Bookings")
	if err != nil {
		return nil, appErrors.ErrInternal.WithError(err)
	}
	return out, nil
}

// ListEmailLog exposes the delivery audit trail to admins.
func (s *ExportService) ListEmailLog(ctx context.Context, filter models.EmailLogFilter) ([]models.EmailLog, int, error) {
	entries, total, err := s.emailLog.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrDatabase.WithError(err)
	}
	return entries, total, nil
}

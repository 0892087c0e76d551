package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// HolidayRepository is the persistence surface the holiday calendar needs.
type HolidayRepository interface {
	ListYear(ctx context.Context, region string, year int) ([]models.PublicHoliday, error)
	Upsert(ctx context.Context, holiday *models.PublicHoliday) error
}

// HolidayService answers "is this date a public holiday" for the configured
// region, with a per-year cached date set in front of Postgres.
type HolidayService struct {
	repo     HolidayRepository
	cache    *CacheService
	validate *validator.Validate
	region   string
	logger   *zap.Logger
}

func NewHolidayService(repo HolidayRepository, cache *CacheService, validate *validator.Validate, region string, logger *zap.Logger) *HolidayService {
	return &HolidayService{
		repo:     repo,
		cache:    cache,
		validate: validate,
		region:   region,
		logger:   logger,
	}
}

func (s *HolidayService) yearCacheKey(year int) string {
	return fmt.Sprintf("holidays:%s:%d", s.region, year)
}

// yearSet loads the holiday dates for one calendar year as a set keyed by
// "YYYY-MM-DD".
func (s *HolidayService) yearSet(ctx context.Context, year int) (map[string]struct{}, error) {
	key := s.yearCacheKey(year)

	var dates []string
	if hit, err := s.cache.Get(ctx, key, &dates); err == nil && hit {
		return dateSet(dates), nil
	}

	holidays, err := s.repo.ListYear(ctx, s.region, year)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	dates = make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date.Format(dateLayout))
	}
	s.cache.Set(ctx, key, dates, 0)
	return dateSet(dates), nil
}

func dateSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// IsHoliday reports whether date falls on a public holiday in the
// service's region.
func (s *HolidayService) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	set, err := s.yearSet(ctx, date.Year())
	if err != nil {
		return false, err
	}
	_, ok := set[date.Format(dateLayout)]
	return ok, nil
}

// Seed upserts one holiday into the calendar and drops the cached year so
// the next read sees it.
func (s *HolidayService) Seed(ctx context.Context, req *models.SeedHolidayRequest) (*models.PublicHoliday, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.WithError(err)
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.ErrValidation.WithError(fmt.Errorf("parse date: %w", err))
	}

	region := req.Region
	if region == "" {
		region = s.region
	}
	holiday := &models.PublicHoliday{
		Region: region,
		Date:   date,
		Name:   req.Name,
	}
	if err := s.repo.Upsert(ctx, holiday); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}

	s.cache.Invalidate(ctx, fmt.Sprintf("holidays:%s:%d", region, date.Year()))
	s.logger.Info("public holiday seeded",
		zap.String("region", region),
		zap.String("date", req.Date),
		zap.String("name", req.Name))
	return holiday, nil
}

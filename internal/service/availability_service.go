package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/motbook/motbook-api/internal/models"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
)

// maxRangeDays caps ranged availability queries so one request cannot fan
// out into an unbounded scan.
const maxRangeDays = 92

// GarageReader resolves garages for availability and booking checks.
type GarageReader interface {
	GetByID(ctx context.Context, id string) (*models.Garage, error)
}

// ScheduleReader is the slice of the schedule store the resolver consumes.
type ScheduleReader interface {
	ListWeekly(ctx context.Context, garageID string) ([]models.WeeklySchedule, error)
	GetException(ctx context.Context, garageID string, date time.Time) (*models.ScheduleException, error)
	ListExceptions(ctx context.Context, garageID string, from, to time.Time) ([]models.ScheduleException, error)
	ListBlocks(ctx context.Context, garageID string, date time.Time) ([]string, error)
	ListBlocksRange(ctx context.Context, garageID string, from, to time.Time) (map[string][]string, error)
	GetHolidayOverride(ctx context.Context, garageID string, date time.Time) (*models.HolidayOverride, error)
	ListHolidayOverridesRange(ctx context.Context, garageID string, from, to time.Time) (map[string]models.HolidayOverride, error)
}

// OccupancyReader exposes live booking occupancy. Occupancy is always read
// straight from Postgres, never from cache.
type OccupancyReader interface {
	OccupiedSlots(ctx context.Context, garageID string, date time.Time) ([]string, error)
	OccupiedSlotsRange(ctx context.Context, garageID string, from, to time.Time) (map[string][]string, error)
}

// HolidayCalendar answers whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// AvailabilityService computes the bookable slot list for a garage and
// date. The resolution order is fixed: exceptions and the holiday calendar
// decide whether the day is open at all, the weekly schedule generates
// candidate slots, the Saturday cutoff trims afternoons, and blocks plus
// live bookings are subtracted last. Same-day requests additionally drop
// everything before the next full hour.
type AvailabilityService struct {
	garages  GarageReader
	schedule ScheduleReader
	bookings OccupancyReader
	holidays HolidayCalendar
	cache    *CacheService
	logger   *zap.Logger

	// Deployment-wide Saturday cutoff, applied when a garage has no
	// per-garage value. Empty disables the rule.
	defaultSaturdayCutoff string

	now func() time.Time
}

func NewAvailabilityService(
	garages GarageReader,
	schedule ScheduleReader,
	bookings OccupancyReader,
	holidays HolidayCalendar,
	cache *CacheService,
	defaultSaturdayCutoff string,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		garages:               garages,
		schedule:              schedule,
		bookings:              bookings,
		holidays:              holidays,
		cache:                 cache,
		logger:                logger,
		defaultSaturdayCutoff: defaultSaturdayCutoff,
		now:                   time.Now,
	}
}

func weeklyCacheKey(garageID string) string {
	return fmt.Sprintf("sched:%s:weekly", garageID)
}

// weeklyByDay loads the garage's weekly schedule as a weekday-indexed map,
// going through the cache first.
func (s *AvailabilityService) weeklyByDay(ctx context.Context, garageID string) (map[int]models.WeeklySchedule, error) {
	var schedules []models.WeeklySchedule
	key := weeklyCacheKey(garageID)
	hit, err := s.cache.Get(ctx, key, &schedules)
	if err != nil || !hit {
		schedules, err = s.schedule.ListWeekly(ctx, garageID)
		if err != nil {
			return nil, appErrors.ErrDatabase.WithError(err)
		}
		s.cache.Set(ctx, key, schedules, 0)
	}

	byDay := make(map[int]models.WeeklySchedule, len(schedules))
	for _, ws := range schedules {
		byDay[ws.DayOfWeek] = ws
	}
	return byDay, nil
}

// dayInputs gathers everything resolveDay needs for one calendar date.
type dayInputs struct {
	date      time.Time
	weekly    *models.WeeklySchedule
	exception *models.ScheduleException
	isHoliday bool
	override  *models.HolidayOverride
	blocked   []string
	occupied  []string
}

// resolveDay runs the resolution pipeline for one date. It is pure: all
// stateful reads happen before it is called.
func (s *AvailabilityService) resolveDay(garage *models.Garage, in dayInputs) ([]string, error) {
	overrideOpen := in.override != nil && in.override.IsAvailable

	// An explicit closure wins unless the date is a public holiday the
	// garage has positively opted into working.
	if in.exception != nil && in.exception.IsClosed {
		if !(in.isHoliday && overrideOpen) {
			return nil, nil
		}
	}
	if in.isHoliday && !overrideOpen {
		return nil, nil
	}

	if in.weekly == nil || !in.weekly.IsOpen {
		return nil, nil
	}

	slots, err := generateSlots(in.weekly.OpenTime, in.weekly.CloseTime, in.weekly.SlotDuration)
	if err != nil {
		return nil, appErrors.ErrInternal.WithError(err)
	}

	if in.date.Weekday() == time.Saturday {
		cutoff := s.defaultSaturdayCutoff
		if garage.SaturdayCutoff != nil {
			cutoff = *garage.SaturdayCutoff
		}
		if cutoff != "" {
			limit, err := parseClock(cutoff)
			if err != nil {
				return nil, appErrors.ErrInternal.WithError(err)
			}
			slots = filterBefore(slots, limit)
		}
	}

	slots = subtractSlots(slots, in.blocked, in.occupied)

	// Same-day requests start at the next full hour; everything earlier
	// has already passed or is too close to prepare for.
	now := s.now()
	today := now.Format(dateLayout)
	requested := in.date.Format(dateLayout)
	if requested == today {
		slots = filterFrom(slots, (now.Hour()+1)*60)
	} else if requested < today {
		return nil, nil
	}

	return slots, nil
}

func (s *AvailabilityService) getGarage(ctx context.Context, garageID string) (*models.Garage, error) {
	garage, err := s.garages.GetByID(ctx, garageID)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if garage == nil || !garage.Active {
		return nil, appErrors.ErrNotFound.WithError(fmt.Errorf("garage %s not found", garageID))
	}
	return garage, nil
}

// GetDayAvailability returns the open slot list for one garage and date.
func (s *AvailabilityService) GetDayAvailability(ctx context.Context, garageID string, date time.Time) (*models.DayAvailability, error) {
	garage, err := s.getGarage(ctx, garageID)
	if err != nil {
		return nil, err
	}

	weekly, err := s.weeklyByDay(ctx, garageID)
	if err != nil {
		return nil, err
	}

	in := dayInputs{date: date}
	if ws, ok := weekly[int(date.Weekday())]; ok {
		in.weekly = &ws
	}
	if in.exception, err = s.schedule.GetException(ctx, garageID, date); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if in.isHoliday, err = s.holidays.IsHoliday(ctx, date); err != nil {
		return nil, err
	}
	if in.isHoliday {
		if in.override, err = s.schedule.GetHolidayOverride(ctx, garageID, date); err != nil {
			return nil, appErrors.ErrDatabase.WithError(err)
		}
	}
	if in.blocked, err = s.schedule.ListBlocks(ctx, garageID, date); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	if in.occupied, err = s.bookings.OccupiedSlots(ctx, garageID, date); err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}

	slots, err := s.resolveDay(garage, in)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []string{}
	}
	return &models.DayAvailability{Date: date.Format(dateLayout), Slots: slots}, nil
}

// GetRangeAvailability resolves every date in [from, to] with batched
// store reads instead of one round trip per day.
func (s *AvailabilityService) GetRangeAvailability(ctx context.Context, garageID string, from, to time.Time) ([]models.DayAvailability, error) {
	if to.Before(from) {
		return nil, appErrors.ErrValidation.WithError(fmt.Errorf("range end %s before start %s", to.Format(dateLayout), from.Format(dateLayout)))
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxRangeDays {
		return nil, appErrors.ErrValidation.WithError(fmt.Errorf("range spans %d days, maximum is %d", days, maxRangeDays))
	}

	garage, err := s.getGarage(ctx, garageID)
	if err != nil {
		return nil, err
	}
	weekly, err := s.weeklyByDay(ctx, garageID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.schedule.ListExceptions(ctx, garageID, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	excByDate := make(map[string]models.ScheduleException, len(exceptions))
	for _, exc := range exceptions {
		excByDate[exc.Date.Format(dateLayout)] = exc
	}
	overrides, err := s.schedule.ListHolidayOverridesRange(ctx, garageID, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	blocks, err := s.schedule.ListBlocksRange(ctx, garageID, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}
	occupied, err := s.bookings.OccupiedSlotsRange(ctx, garageID, from, to)
	if err != nil {
		return nil, appErrors.ErrDatabase.WithError(err)
	}

	result := make([]models.DayAvailability, 0, days)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		key := date.Format(dateLayout)

		in := dayInputs{date: date, blocked: blocks[key], occupied: occupied[key]}
		if ws, ok := weekly[int(date.Weekday())]; ok {
			in.weekly = &ws
		}
		if exc, ok := excByDate[key]; ok {
			in.exception = &exc
		}
		if in.isHoliday, err = s.holidays.IsHoliday(ctx, date); err != nil {
			return nil, err
		}
		if ov, ok := overrides[key]; ok {
			in.override = &ov
		}

		slots, err := s.resolveDay(garage, in)
		if err != nil {
			return nil, err
		}
		if slots == nil {
			slots = []string{}
		}
		result = append(result, models.DayAvailability{Date: key, Slots: slots})
	}
	return result, nil
}

// CheckSlot verifies that a specific slot is currently offered and free.
// It is an advisory pre-check for reservations; the bookings unique index
// remains the final authority under concurrency.
func (s *AvailabilityService) CheckSlot(ctx context.Context, garageID string, date time.Time, timeSlot string) error {
	day, err := s.GetDayAvailability(ctx, garageID, date)
	if err != nil {
		return err
	}
	for _, slot := range day.Slots {
		if slot == timeSlot {
			return nil
		}
	}
	return appErrors.ErrSlotTaken.WithError(fmt.Errorf("slot %s on %s not available", timeSlot, date.Format(dateLayout)))
}

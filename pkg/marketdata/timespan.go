package marketdata

import (
	"time"

	"github.com/polygon-io/client-go/rest/models"
)

// Timespan is a compact bar interval label such as "1d" or "15m". It maps
// onto the multiplier/timespan pair the download providers expect.
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

// timespanSpec carries the decomposition of one interval label.
type timespanSpec struct {
	multiplier int
	timespan   models.Timespan
	duration   time.Duration
}

var timespanSpecs = map[Timespan]timespanSpec{
	TimespanOneSecond:      {1, models.Second, time.Second},
	TimespanOneMinute:      {1, models.Minute, time.Minute},
	TimespanThreeMinutes:   {3, models.Minute, 3 * time.Minute},
	TimespanFiveMinutes:    {5, models.Minute, 5 * time.Minute},
	TimespanFifteenMinutes: {15, models.Minute, 15 * time.Minute},
	TimespanThirtyMinutes:  {30, models.Minute, 30 * time.Minute},
	TimespanOneHour:        {1, models.Hour, time.Hour},
	TimespanTwoHours:       {2, models.Hour, 2 * time.Hour},
	TimespanFourHours:      {4, models.Hour, 4 * time.Hour},
	TimespanSixHours:       {6, models.Hour, 6 * time.Hour},
	TimespanEightHours:     {8, models.Hour, 8 * time.Hour},
	TimespanTwelveHours:    {12, models.Hour, 12 * time.Hour},
	TimespanOneDay:         {1, models.Day, 24 * time.Hour},
	TimespanThreeDays:      {3, models.Day, 72 * time.Hour},
	TimespanOneWeek:        {1, models.Week, 7 * 24 * time.Hour},
	TimespanOneMonth:       {1, models.Month, 30 * 24 * time.Hour},
}

// IsValid reports whether the label names a supported interval.
func (t Timespan) IsValid() bool {
	_, ok := timespanSpecs[t]

	return ok
}

// Multiplier returns the interval multiplier. Unknown labels fall back
// to 1.
func (t Timespan) Multiplier() int {
	if spec, ok := timespanSpecs[t]; ok {
		return spec.multiplier
	}

	return 1
}

// Timespan returns the base unit. Unknown labels fall back to daily bars.
func (t Timespan) Timespan() models.Timespan {
	if spec, ok := timespanSpecs[t]; ok {
		return spec.timespan
	}

	return models.Day
}

// Duration returns the interval length. A month counts as 30 days.
func (t Timespan) Duration() time.Duration {
	if spec, ok := timespanSpecs[t]; ok {
		return spec.duration
	}

	return 24 * time.Hour
}

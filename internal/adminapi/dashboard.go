package adminapi

import (
	"net/http"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// registerDashboardRoutes registers back-office dashboard endpoints
func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", getDashboard)
	webserver.ApiGET("/dashboard/metrics", getDashboardMetrics)
}

type dashboardData struct {
	TodayBookings    int64            `json:"today_bookings"`
	UpcomingBookings int64            `json:"upcoming_bookings"`
	TodayRevenue     float64          `json:"today_revenue"`
	WeekRevenue      float64          `json:"week_revenue"`
	RevenueMean      float64          `json:"revenue_daily_mean"`   // over the last 30 days
	RevenueMedian    float64          `json:"revenue_daily_median"` // over the last 30 days
	RevenueP90       float64          `json:"revenue_daily_p90"`    // over the last 30 days
	TopProducts      []topProductRow  `json:"top_products"`
	BusiestHours     []busiestHourRow `json:"busiest_hours"`
}

type topProductRow struct {
	Name         string  `json:"name"`
	SoldQuantity int     `json:"sold_quantity"`
	Price        float64 `json:"price"`
}

type busiestHourRow struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// getDashboard aggregates the back-office landing numbers. The independent
// queries fan out on an errgroup.
func getDashboard(c echo.Context) error {
	db := GetDB(c)
	now := time.Now().UTC()
	dayStart, dayEnd := common.DayRange(now)
	weekStart := dayStart.AddDate(0, 0, -7)
	monthStart := dayStart.AddDate(0, 0, -30)

	var data dashboardData
	g, ctx := errgroup.WithContext(c.Request().Context())

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Appointment{}).
			Where("status = ?", domain.AppointmentScheduled).
			Where("start_at >= ? AND start_at < ?", dayStart, dayEnd).
			Count(&data.TodayBookings).Error
	})

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Appointment{}).
			Where("status = ?", domain.AppointmentScheduled).
			Where("start_at >= ?", now).
			Count(&data.UpcomingBookings).Error
	})

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Order{}).
			Where("status = ?", domain.OrderPaid).
			Where("created_at >= ?", dayStart).
			Select("COALESCE(SUM(total_amount),0)").
			Scan(&data.TodayRevenue).Error
	})

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Order{}).
			Where("status = ?", domain.OrderPaid).
			Where("created_at >= ?", weekStart).
			Select("COALESCE(SUM(total_amount),0)").
			Scan(&data.WeekRevenue).Error
	})

	g.Go(func() error {
		var daily []float64
		err := db.WithContext(ctx).Model(&domain.Order{}).
			Where("status = ?", domain.OrderPaid).
			Where("created_at >= ?", monthStart).
			Select("COALESCE(SUM(total_amount),0)").
			Group("DATE(created_at)").
			Pluck("COALESCE(SUM(total_amount),0)", &daily).Error
		if err != nil || len(daily) == 0 {
			return err
		}
		data.RevenueMean, _ = stats.Mean(daily)
		data.RevenueMedian, _ = stats.Median(daily)
		data.RevenueP90, _ = stats.Percentile(daily, 90)
		return nil
	})

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Product{}).
			Where("sold_quantity > 0").
			Order("sold_quantity DESC").
			Limit(5).
			Select("name", "sold_quantity", "price").
			Scan(&data.TopProducts).Error
	})

	g.Go(func() error {
		return db.WithContext(ctx).Model(&domain.Appointment{}).
			Where("start_at >= ?", monthStart).
			Select("EXTRACT(HOUR FROM start_at)::int AS hour, COUNT(*) AS count").
			Group("hour").
			Order("count DESC").
			Limit(5).
			Scan(&data.BusiestHours).Error
	})

	if err := g.Wait(); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build dashboard", err.Error())
	}

	return ok(c, data)
}

// getDashboardMetrics reads the embedded metric store counters for the
// requested window (default last 24h).
func getDashboardMetrics(c echo.Context) error {
	end := time.Now().Unix()
	start := end - 24*3600
	if from, okFrom := parseDateParam(c, "from"); okFrom {
		start = from.Unix()
	}
	if to, okTo := parseDateParam(c, "to"); okTo {
		end = to.Unix()
	}

	names := []string{
		metrics.BookingCreated,
		metrics.BookingConflict,
		metrics.BookingCancelled,
		metrics.CheckoutSettled,
		metrics.CheckoutFailed,
		metrics.MailSent,
		metrics.WebhookSent,
	}

	counters := map[string]float64{}
	for _, name := range names {
		counters[name] = metrics.RangeSum(name, start, end)
	}

	return ok(c, map[string]interface{}{
		"from":     start,
		"to":       end,
		"counters": counters,
	})
}

package shopapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// catalogCacheTTL bounds how long a cached listing page survives.
const catalogCacheTTL = 5 * time.Minute

// catalogGen versions the cache keys. Invalidation bumps the generation so
// stale pages are never served again and simply age out of redis by TTL.
var catalogGen atomic.Int64

// registerCatalogRoutes registers public catalog endpoints and wires cache
// invalidation to the catalog and checkout events.
func registerCatalogRoutes() {
	webserver.PubGET("/products", listShopProducts)
	webserver.PubGET("/services", listShopServices)
	webserver.PubGET("/health", health)

	_ = events.Subscribe(events.TopicCatalogChanged, func() {
		catalogGen.Add(1)
	})
	_ = events.Subscribe(events.TopicCheckoutSettled, func(events.CheckoutSettled) {
		// settled checkouts change product stock shown in listings
		catalogGen.Add(1)
	})
}

// cachedListing serves a listing from redis when possible, falling back to
// the loader and writing the result back. Without redis every request hits
// the database directly.
func cachedListing(c echo.Context, key string, load func() (interface{}, error)) error {
	rdb := GetAppContext(c).Redis()
	if rdb == nil {
		data, err := load()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query catalog")
		}
		return ok(c, data)
	}

	ctx := c.Request().Context()
	fullKey := fmt.Sprintf("catalog:%d:%s", catalogGen.Load(), key)

	cached, err := rdb.Get(ctx, fullKey).Bytes()
	if err == nil {
		var data interface{}
		if err := json.Unmarshal(cached, &data); err == nil {
			return ok(c, data)
		}
	}

	data, err := load()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query catalog")
	}

	if payload, err := json.Marshal(data); err == nil {
		if err := rdb.Set(ctx, fullKey, payload, catalogCacheTTL).Err(); err != nil {
			zap.L().Debug("catalog cache write failed", zap.String("key", fullKey), zap.Error(err))
		}
	}
	return ok(c, data)
}

func listingParams(c echo.Context) (q string, page, pageSize int) {
	q = strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	page = 1
	pageSize = 20
	if p := c.QueryParam("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	if ps := c.QueryParam("pageSize"); ps != "" {
		fmt.Sscanf(ps, "%d", &pageSize)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return q, page, pageSize
}

// listShopProducts returns enabled products for the shop front.
func listShopProducts(c echo.Context) error {
	q, page, pageSize := listingParams(c)
	key := fmt.Sprintf("products:%s:%d:%d", q, page, pageSize)

	reqCtx := c.Request().Context()
	return cachedListing(c, key, func() (interface{}, error) {
		return loadProductListing(reqCtx, c, q, page, pageSize)
	})
}

func loadProductListing(ctx context.Context, c echo.Context, q string, page, pageSize int) (interface{}, error) {
	db := GetDB(c).WithContext(ctx).Model(&domain.Product{}).Where("status = ?", common.ENABLED)
	if q != "" {
		db = db.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", "%"+q+"%", "%"+q+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"items":     rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}, nil
}

// listShopServices returns enabled bookable services.
func listShopServices(c echo.Context) error {
	q, page, pageSize := listingParams(c)
	key := fmt.Sprintf("services:%s:%d:%d", q, page, pageSize)

	reqCtx := c.Request().Context()
	return cachedListing(c, key, func() (interface{}, error) {
		db := GetDB(c).WithContext(reqCtx).Model(&domain.Service{}).Where("status = ?", common.ENABLED)
		if q != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+q+"%")
		}

		var total int64
		if err := db.Count(&total).Error; err != nil {
			return nil, err
		}
		var rows []domain.Service
		if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"items":     rows,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		}, nil
	})
}

// redisHealthy reports cache availability for the health endpoint.
func redisHealthy(ctx context.Context, rdb *redis.Client) bool {
	if rdb == nil {
		return false
	}
	return rdb.Ping(ctx).Err() == nil
}

func health(c echo.Context) error {
	ctx := c.Request().Context()
	dbOK := true
	if sqlDB, err := GetDB(c).DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbOK = false
	}
	return ok(c, map[string]interface{}{
		"database": dbOK,
		"cache":    redisHealthy(ctx, GetAppContext(c).Redis()),
	})
}

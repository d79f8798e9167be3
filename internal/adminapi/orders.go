package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
)

// registerOrderRoutes registers sales receipt endpoints
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPUT("/orders/:id/refund", refundOrder)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	allowed := map[string]string{
		"id":           "id",
		"order_no":     "order_no",
		"total_amount": "total_amount",
		"created_at":   "created_at",
	}

	db := GetDB(c).Model(&domain.Order{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "order_no")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64); err == nil && userID > 0 {
		db = db.Where("user_id = ?", userID)
	}
	if from, okFrom := parseDateParam(c, "from"); okFrom {
		db = db.Where("created_at >= ?", from)
	}
	if to, okTo := parseDateParam(c, "to"); okTo {
		db = db.Where("created_at < ?", to)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	var rows []domain.Order
	if err := db.Order(sortColumn(c, allowed)).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

// getOrder returns the order with its line items.
func getOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}

	var items []domain.OrderItem
	if err := GetDB(c).Where("order_id = ?", id).Order("id ASC").Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items", err.Error())
	}

	return ok(c, map[string]interface{}{
		"order": order,
		"items": items,
	})
}

// refundOrder marks a paid order refunded. Stock is not restocked
// automatically, operators adjust it through the product stock endpoint.
func refundOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var order domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if order.Status != domain.OrderPaid {
		return fail(c, http.StatusConflict, "INVALID_STATUS", "Only paid orders can be refunded", nil)
	}

	if err := GetDB(c).Model(&domain.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     domain.OrderRefunded,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to refund order", err.Error())
	}
	order.Status = domain.OrderRefunded

	writeOprLog(c, "refund_order", order.OrderNo)
	return ok(c, order)
}

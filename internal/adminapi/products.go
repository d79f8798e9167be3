package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type productPayload struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Sku         string  `json:"sku"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image"`
	Quantity    *int    `json:"quantity"`
	Status      string  `json:"status"`
	Remark      string  `json:"remark"`
}

// productCSVRow is the import/export row shape.
type productCSVRow struct {
	Sku         string  `csv:"sku"`
	Name        string  `csv:"name"`
	Brand       string  `csv:"brand"`
	Description string  `csv:"description"`
	Price       float64 `csv:"price"`
	Quantity    int     `csv:"quantity"`
	Status      string  `csv:"status"`
}

// registerProductRoutes registers product catalog endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/export", exportProductsCSV)
	webserver.ApiPOST("/products/import", importProductsCSV)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiPUT("/products/:id/stock", adjustProductStock)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	allowed := map[string]string{
		"id":            "id",
		"name":          "name",
		"price":         "price",
		"quantity":      "quantity",
		"sold_quantity": "sold_quantity",
		"created_at":    "created_at",
		"updated_at":    "updated_at",
	}

	db := GetDB(c).Model(&domain.Product{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "name", "sku", "brand")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortColumn(c, allowed)).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}
	quantity := 0
	if payload.Quantity != nil {
		if *payload.Quantity < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Quantity must be >= 0", nil)
		}
		quantity = *payload.Quantity
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Sku:         strings.TrimSpace(payload.Sku),
		Brand:       strings.TrimSpace(payload.Brand),
		Description: payload.Description,
		Price:       payload.Price,
		Image:       strings.TrimSpace(payload.Image),
		Quantity:    quantity,
		Status:      common.IfEmptyStr(payload.Status, common.ENABLED),
		Remark:      payload.Remark,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}

	writeOprLog(c, "create_product", p.Name)
	events.Publish(events.TopicCatalogChanged)
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}

	p.Name = payload.Name
	p.Sku = strings.TrimSpace(payload.Sku)
	p.Brand = strings.TrimSpace(payload.Brand)
	p.Description = payload.Description
	p.Price = payload.Price
	p.Image = strings.TrimSpace(payload.Image)
	if payload.Quantity != nil && *payload.Quantity >= 0 {
		p.Quantity = *payload.Quantity
	}
	if payload.Status != "" {
		p.Status = payload.Status
	}
	p.Remark = payload.Remark
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}

	writeOprLog(c, "update_product", p.Name)
	events.Publish(events.TopicCatalogChanged)
	return ok(c, p)
}

// adjustProductStock moves stock by a signed delta in one conditional
// update, so a concurrent checkout can never push quantity below zero.
func adjustProductStock(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&payload); err != nil || payload.Delta == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Delta must be a non-zero integer", nil)
	}

	res := GetDB(c).Model(&domain.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, payload.Delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", payload.Delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to adjust stock", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusConflict, "STOCK_CONFLICT", "Product missing or stock would go negative", nil)
	}

	var p domain.Product
	if err := GetDB(c).First(&p, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	writeOprLog(c, "adjust_stock", p.Name)
	events.Publish(events.TopicCatalogChanged)
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}

	writeOprLog(c, "delete_product", strconv.FormatInt(id, 10))
	events.Publish(events.TopicCatalogChanged)
	return ok(c, map[string]interface{}{"id": id})
}

// exportProductsCSV streams the full catalog as CSV.
func exportProductsCSV(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Order("id ASC").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	rows := make([]productCSVRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productCSVRow{
			Sku:         p.Sku,
			Name:        p.Name,
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
			Status:      p.Status,
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to encode CSV", err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}

// importProductsCSV upserts products by SKU from an uploaded CSV body.
func importProductsCSV(c echo.Context) error {
	var rows []productCSVRow
	if err := gocsv.Unmarshal(c.Request().Body, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse CSV", err.Error())
	}

	db := GetDB(c)
	var created, updated int
	for _, row := range rows {
		row.Sku = strings.TrimSpace(row.Sku)
		row.Name = strings.TrimSpace(row.Name)
		if row.Sku == "" || row.Name == "" {
			continue
		}

		var existing domain.Product
		err := db.Where("sku = ?", row.Sku).First(&existing).Error
		if err != nil {
			now := time.Now()
			db.Create(&domain.Product{
				ID:          common.UUIDint64(),
				Name:        row.Name,
				Sku:         row.Sku,
				Brand:       row.Brand,
				Description: row.Description,
				Price:       row.Price,
				Quantity:    row.Quantity,
				Status:      common.IfEmptyStr(row.Status, common.ENABLED),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			created++
			continue
		}

		db.Model(&domain.Product{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
			"name":        row.Name,
			"brand":       row.Brand,
			"description": row.Description,
			"price":       row.Price,
			"quantity":    row.Quantity,
			"status":      common.IfEmptyStr(row.Status, existing.Status),
			"updated_at":  time.Now(),
		})
		updated++
	}

	writeOprLog(c, "import_products", strconv.Itoa(created+updated)+" rows")
	events.Publish(events.TopicCatalogChanged)
	return ok(c, map[string]interface{}{"created": created, "updated": updated})
}

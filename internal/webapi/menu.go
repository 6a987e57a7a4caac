package webapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/webserver"
)

// Categories whose products carry a size variant.
var sizedCategories = map[string]bool{"Pizza": true, "Drinks": true}

func registerMenuRoutes() {
	webserver.ApiGET("/get-menu-items", listMenuItems)
	webserver.ApiGET("/get-menu-item/:id", getMenuItem)
	webserver.ApiPOST("/add-menu-item", addMenuItem)
	webserver.ApiPOST("/update-menu-item", updateMenuItem)
	webserver.ApiPOST("/delete-menu-item", deleteMenuItem)
}

type menuItemPayload struct {
	ID       int64   `json:"product_id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Size     string  `json:"size"`
}

func normalizeSize(category, size string) string {
	if !sizedCategories[category] {
		return "Standard"
	}
	if size == "" {
		return "Standard"
	}
	return size
}

func listMenuItems(c echo.Context) error {
	db := GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("name LIKE ?", "%"+q+"%")
	}
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		db = db.Where("category = ?", cat)
	}

	var products []domain.Product
	if err := db.Order("category, name, size").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query menu", err.Error())
	}
	return ok(c, products)
}

func getMenuItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).First(&p, id).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, p)
}

func addMenuItem(c echo.Context) error {
	var payload menuItemPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse menu item", nil)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_NAME", "Product name is required", nil)
	}
	if payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_PRICE", "Price cannot be negative", nil)
	}
	size := normalizeSize(payload.Category, payload.Size)

	// A menu item is unique per (name, size) within its category.
	var exists int64
	GetDB(c).Model(&domain.Product{}).
		Where("name = ? AND category = ? AND size = ?", payload.Name, payload.Category, size).
		Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "PRODUCT_EXISTS", "Menu item already exists", nil)
	}

	p := domain.Product{
		Name:     payload.Name,
		Image:    payload.Image,
		Price:    payload.Price,
		Category: payload.Category,
		Size:     size,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create menu item", err.Error())
	}
	return ok(c, p)
}

func updateMenuItem(c echo.Context) error {
	var payload menuItemPayload
	if err := decodePayload(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse menu item", nil)
	}
	if payload.ID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var p domain.Product
	if err := GetDB(c).First(&p, payload.ID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	if name := strings.TrimSpace(payload.Name); name != "" {
		p.Name = name
	}
	if payload.Price >= 0 {
		p.Price = payload.Price
	}
	if payload.Category != "" {
		p.Category = payload.Category
	}
	if payload.Image != "" {
		p.Image = payload.Image
	}
	p.Size = normalizeSize(p.Category, firstNonEmpty(payload.Size, p.Size))

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update menu item", err.Error())
	}
	return ok(c, p)
}

type deleteMenuPayload struct {
	ID int64 `json:"product_id"`
}

// deleteMenuItem removes a product along with its recipe and any cart lines
// staging it. Committed order history keeps the product id.
func deleteMenuItem(c echo.Context) error {
	var payload deleteMenuPayload
	if err := decodePayload(c, &payload); err != nil || payload.ID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", payload.ID).Delete(&domain.ProductIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", payload.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Product{}, payload.ID).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete menu item", err.Error())
	}
	return ok(c, echo.Map{"deleted": payload.ID})
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

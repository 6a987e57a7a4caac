package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/brewpos/brewpos/internal/domain"
	"github.com/brewpos/brewpos/internal/webserver"
)

func registerCartRoutes() {
	webserver.ApiGET("/get-cart-items", getCartItems)
	webserver.ApiGET("/get-cart-item/:id", getCartItem)
	webserver.ApiPOST("/add-to-cart", addToCart)
	webserver.ApiPOST("/remove-from-cart", removeFromCart)
	webserver.ApiPOST("/clear-cart", clearCart)
}

type cartPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// cartLine is a cart row joined with its product for display.
type cartLine struct {
	CartID    int64   `json:"cart_id,string"`
	ProductID int64   `json:"product_id,string"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Category  string  `json:"category"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

func getCartItems(c echo.Context) error {
	var lines []cartLine
	err := GetDB(c).Model(&domain.CartItem{}).
		Select(`cart.id AS cart_id, cart.product_id, cart.quantity,
product.name, product.price, product.size, product.category, product.image`).
		Joins("JOIN product ON cart.product_id = product.id").
		Where("cart.user_id = ?", currentUserID(c)).
		Order("cart.created_at").
		Scan(&lines).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cart", err.Error())
	}
	return ok(c, lines)
}

func getCartItem(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var line domain.CartItem
	err = GetDB(c).
		Where("user_id = ? AND product_id = ?", currentUserID(c), productID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CART_LINE_NOT_FOUND", "Cart line not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cart", err.Error())
	}
	return ok(c, line)
}

// addToCart upserts the (user, product) line. A zero or negative quantity
// removes the line.
func addToCart(c echo.Context) error {
	var payload cartPayload
	if err := decodePayload(c, &payload); err != nil || payload.ProductID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart line", nil)
	}
	uid := currentUserID(c)

	if payload.Quantity <= 0 {
		GetDB(c).Where("user_id = ? AND product_id = ?", uid, payload.ProductID).Delete(&domain.CartItem{})
		return ok(c, echo.Map{"removed": payload.ProductID})
	}

	var exists int64
	GetDB(c).Model(&domain.Product{}).Where("id = ?", payload.ProductID).Count(&exists)
	if exists == 0 {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}

	var line domain.CartItem
	err := GetDB(c).Where("user_id = ? AND product_id = ?", uid, payload.ProductID).First(&line).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = domain.CartItem{UserID: uid, ProductID: payload.ProductID, Quantity: payload.Quantity}
		if err := GetDB(c).Create(&line).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add to cart", err.Error())
		}
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cart", err.Error())
	default:
		line.Quantity = payload.Quantity
		if err := GetDB(c).Save(&line).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update cart", err.Error())
		}
	}
	return ok(c, line)
}

func removeFromCart(c echo.Context) error {
	var payload cartPayload
	if err := decodePayload(c, &payload); err != nil || payload.ProductID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart line", nil)
	}
	res := GetDB(c).
		Where("user_id = ? AND product_id = ?", currentUserID(c), payload.ProductID).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove cart line", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CART_LINE_NOT_FOUND", "Cart line not found", nil)
	}
	return ok(c, echo.Map{"removed": payload.ProductID})
}

func clearCart(c echo.Context) error {
	if err := GetDB(c).Where("user_id = ?", currentUserID(c)).Delete(&domain.CartItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear cart", err.Error())
	}
	return ok(c, echo.Map{"cleared": true})
}

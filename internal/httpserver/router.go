package httpserver

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-client/internal/domain"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, backend *Backend) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)

	api := router.Group("/api")
	api.POST("/auth/login", loginHandler(backend))
	api.POST("/auth/register", registerHandler(backend))
	api.GET("/products", listProductsHandler(backend))
	api.GET("/products/:id", getProductHandler(backend))
	api.GET("/categories", listCategoriesHandler(backend))

	authed := api.Group("")
	authed.Use(requireAuth(backend))
	authed.POST("/auth/logout", logoutHandler(backend))
	authed.GET("/cart", getCartHandler(backend))
	authed.POST("/cart/items", addCartItemHandler(backend))
	authed.PUT("/cart/items/:id", updateCartItemHandler(backend))
	authed.DELETE("/cart/items/:id", removeCartItemHandler(backend))
	authed.DELETE("/cart", clearCartHandler(backend))
	authed.POST("/cart/migrate", migrateCartHandler(backend))
	authed.POST("/cart/coupon", applyCouponHandler(backend))
	authed.DELETE("/cart/coupon", removeCouponHandler(backend))
	authed.POST("/cart/checkout", checkoutHandler(backend))
	authed.GET("/user/orders", listOrdersHandler(backend))
	authed.GET("/user/orders/:id", getOrderHandler(backend))
	authed.PUT("/user/orders/:id/cancel", cancelOrderHandler(backend))

	return router
}

const (
	ctxUserID = "userID"
	ctxToken  = "token"
)

func requireAuth(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		userID, ok := backend.userForToken(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func loginHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		user, token, ok := backend.login(req.Username, req.Password)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user, "expiresIn": int64(86400)})
	}
}

func registerHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username  string `json:"username" binding:"required"`
			Email     string `json:"email" binding:"required"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Phone     string `json:"phone"`
			Password  string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		user, token, err := backend.register(req.Username, req.Email, req.FirstName, req.LastName, req.Phone, req.Password)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "account created", "user": user, "token": token})
	}
}

func logoutHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		backend.logout(c.GetString(ctxToken))
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func listProductsHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
		categoryID, _ := strconv.ParseInt(c.Query("categoryId"), 10, 64)
		c.JSON(http.StatusOK, backend.listProducts(page, size, c.Query("search"), categoryID))
	}
}

func getProductHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		product, found := backend.getProduct(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func listCategoriesHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, backend.listCategories())
	}
}

func getCartHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, backend.getCart(currentUserID(c)))
	}
}

func addCartItemHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID int64 `json:"productId" binding:"required"`
			Quantity  int   `json:"quantity" binding:"required"`
			Price     int64 `json:"price"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		cart, err := backend.addItem(currentUserID(c), req.ProductID, req.Quantity, req.Price)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func updateCartItemHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req struct {
			Quantity int `json:"quantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		cart, err := backend.updateItem(currentUserID(c), id, req.Quantity)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeCartItemHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		cart, err := backend.removeItem(currentUserID(c), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, backend.clearCart(currentUserID(c)))
	}
}

func migrateCartHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []domain.CartItem `json:"items"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, backend.migrate(currentUserID(c), req.Items))
	}
}

func applyCouponHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CouponCode string `json:"couponCode" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		cart, err := backend.applyCoupon(currentUserID(c), req.CouponCode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeCouponHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, backend.removeCoupon(currentUserID(c)))
	}
}

func checkoutHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		order, err := backend.checkout(currentUserID(c), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
		c.JSON(http.StatusOK, backend.listOrders(currentUserID(c), page, size))
	}
}

func getOrderHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		order, found := backend.getOrder(currentUserID(c), id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(backend *Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		order, err := backend.cancelOrder(currentUserID(c), id)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

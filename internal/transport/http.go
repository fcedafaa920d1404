package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gostorefront/storefront/internal/cart"
	"github.com/gostorefront/storefront/internal/checkout"
	"github.com/gostorefront/storefront/internal/customer"
	"github.com/gostorefront/storefront/internal/db"
	"github.com/gostorefront/storefront/internal/handler"
	"github.com/gostorefront/storefront/internal/order"
	"github.com/gostorefront/storefront/internal/product"
)

func NewRouter(pg *db.Postgres) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	customerRepo := customer.NewRepository(pg)
	customerSvc := customer.NewService(customerRepo)

	productRepo := product.NewRepository(pg)
	productSvc := product.NewService(productRepo)

	cartRepo := cart.NewRepository(pg)
	cartSvc := cart.NewService(cartRepo, productSvc)

	orderRepo := order.NewRepository(pg)
	orderSvc := order.NewService(orderRepo)

	checkoutSvc := checkout.NewService(pg, cartRepo, orderRepo, customerRepo)

	customerH := handler.NewCustomerHandler(customerSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	orderH := handler.NewOrderHandler(orderSvc)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", customerH.Register)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", customerH.GetByID)
			r.Delete("/", customerH.Delete)
			r.Post("/addresses", customerH.AddAddress)
			r.Get("/addresses", customerH.ListAddresses)
			r.Post("/cards", customerH.AddCard)
			r.Get("/cards", customerH.ListCards)

			r.Get("/cart", cartH.Get)
			r.Post("/cart/items", cartH.AddItem)
			r.Put("/cart/items/{productID}", cartH.UpdateItem)
			r.Delete("/cart/items/{productID}", cartH.RemoveItem)

			r.Post("/checkout", checkoutH.Convert)
			r.Get("/orders", orderH.ListByCustomer)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", productH.Create)
		r.Get("/", productH.List)
		r.Get("/{id}", productH.GetByID)
		r.Delete("/{id}", productH.Delete)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/{id}", orderH.GetByID)
		r.Post("/{id}/status", orderH.UpdateStatus)
	})

	return r
}

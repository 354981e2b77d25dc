package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/coupon"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/handler"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/notification"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/report"
)

// NewRouter wires repositories, services, and handlers onto one mux.
func NewRouter(dbPool *pgxpool.Pool, notifier order.StatusNotifier) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	orderRepo := order.NewRepository(dbPool)
	orderSvc := order.NewService(orderRepo, notifier)
	handler.NewOrderHandler(orderSvc).RegisterRoutes(r)

	reportSvc := report.NewService(orderRepo)
	handler.NewDashboardHandler(reportSvc).RegisterRoutes(r)

	couponRepo := coupon.NewRepository(dbPool)
	couponSvc := coupon.NewService(couponRepo)
	handler.NewCouponHandler(couponSvc).RegisterRoutes(r)

	return r
}

// NewNotifier builds the production email notifier from config.
func NewNotifier(cfg notification.SMTPConfig, storeName string) *notification.EmailNotifier {
	return notification.NewEmailNotifier(notification.NewSMTPTransport(cfg), storeName)
}

package http

import (
	"net/http"

	"cold-backend/internal/handlers"
	"cold-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full HTTP surface of the picking coordinator. RBAC follows one
// rule throughout: endpoints any authenticated staff member may call get only
// Authenticate; the admin-gated state-machine/user-management transitions get
// RequireAdmin; the superadmin-only settings/sync endpoints get RequireSuperadmin.
func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	pickingHandler *handlers.PickingHandler,
	ordersHandler *handlers.OrdersHandler,
	stockHandler *handlers.StockExceptionHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	api := r.PathPrefix("/api").Subrouter()

	// Authentication. Login is public; every other auth action needs a valid token.
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	authAPI.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")
	authAPI.HandleFunc("/change-password", authHandler.ChangePassword).Methods("POST")

	// Pick list and allocation. Every authenticated staff member may pick, mark short,
	// view progress, and revert their own picks.
	api.Handle("/picklist", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.PickList))).Methods("GET")
	api.Handle("/picklist/{sku}/orders", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.OrdersForSKU))).Methods("GET")
	api.Handle("/pick", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.Pick))).Methods("POST")
	api.Handle("/not-in-stock", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.MarkShort))).Methods("POST")
	api.Handle("/picked-items", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.PickedItems))).Methods("GET")
	api.Handle("/picked-items/{id}/revert", authMiddleware.Authenticate(http.HandlerFunc(pickingHandler.RevertPickedItem))).Methods("POST")

	// Orders. Viewing and marking packed are open to any staff member; reverting state,
	// explicit state changes, and shipment splitting are admin-only.
	ordersAPI := api.PathPrefix("/orders").Subrouter()
	ordersAPI.Use(authMiddleware.Authenticate)
	ordersAPI.HandleFunc("/status", ordersHandler.ByStatus).Methods("GET")
	ordersAPI.HandleFunc("/ready-to-pack", ordersHandler.ReadyToPack).Methods("GET")
	ordersAPI.HandleFunc("/packed", ordersHandler.Packed).Methods("GET")
	ordersAPI.HandleFunc("/{id}", ordersHandler.Get).Methods("GET")
	ordersAPI.HandleFunc("/{id}/mark-packed", ordersHandler.MarkPacked).Methods("POST")
	ordersAPI.Handle("/{id}/revert-to-picking", authMiddleware.RequireAdmin(http.HandlerFunc(ordersHandler.RevertToPicking))).Methods("POST")
	ordersAPI.Handle("/{id}/change-state", authMiddleware.RequireAdmin(http.HandlerFunc(ordersHandler.ChangeState))).Methods("POST")
	ordersAPI.HandleFunc("/{id}/update-message", ordersHandler.UpdateMessage).Methods("PATCH")
	ordersAPI.Handle("/{id}/split", authMiddleware.RequireAdmin(http.HandlerFunc(ordersHandler.Split))).Methods("POST")
	ordersAPI.Handle("/{id}/unsplit", authMiddleware.RequireAdmin(http.HandlerFunc(ordersHandler.Unsplit))).Methods("POST")

	// Out-of-stock ledger. Browsing/export/resolving is open to staff; sending the
	// digest is left ungated beyond authentication, matching the RBAC table's silence on
	// it (picking and shortage-handling are staff-level actions throughout).
	stockAPI := api.PathPrefix("/out-of-stock").Subrouter()
	stockAPI.Use(authMiddleware.Authenticate)
	stockAPI.HandleFunc("", stockHandler.List).Methods("GET")
	stockAPI.HandleFunc("/export", stockHandler.Export).Methods("GET")
	stockAPI.HandleFunc("/send", stockHandler.Send).Methods("POST")
	stockAPI.HandleFunc("/{id}/resolve", stockHandler.Resolve).Methods("POST")
	stockAPI.HandleFunc("/{id}/toggle-ordered", stockHandler.ToggleOrdered).Methods("POST")
	stockAPI.HandleFunc("/{id}/toggle-na-cancel", stockHandler.ToggleNaCancel).Methods("POST")

	// Admin: sync trigger and both config singletons are superadmin-only.
	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(authMiddleware.Authenticate)
	adminAPI.Handle("/sync", authMiddleware.RequireSuperadmin(http.HandlerFunc(adminHandler.TriggerSync))).Methods("POST")
	adminAPI.HandleFunc("/sync-status", adminHandler.SyncStatus).Methods("GET")
	adminAPI.Handle("/settings", authMiddleware.RequireSuperadmin(http.HandlerFunc(adminHandler.GetSettings))).Methods("GET")
	adminAPI.Handle("/settings", authMiddleware.RequireSuperadmin(http.HandlerFunc(adminHandler.PutSettings))).Methods("PUT")
	adminAPI.Handle("/email-sms-settings", authMiddleware.RequireSuperadmin(http.HandlerFunc(adminHandler.GetEmailSMSSettings))).Methods("GET")
	adminAPI.Handle("/email-sms-settings", authMiddleware.RequireSuperadmin(http.HandlerFunc(adminHandler.PutEmailSMSSettings))).Methods("PUT")

	// Users. Self-service password change lives under /auth; everything else here is
	// admin-only management of other accounts.
	usersAPI := api.PathPrefix("/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	usersAPI.HandleFunc("", userHandler.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", userHandler.CreateUser).Methods("POST")
	usersAPI.HandleFunc("/{id}", userHandler.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{id}", userHandler.UpdateUser).Methods("PUT")
	usersAPI.HandleFunc("/{id}", userHandler.DeleteUser).Methods("DELETE")
	usersAPI.HandleFunc("/{id}/reset-password", userHandler.ResetPassword).Methods("POST")

	return r
}

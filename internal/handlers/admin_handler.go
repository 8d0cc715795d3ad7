package handlers

import (
	"net/http"
	"strconv"

	"cold-backend/internal/cache"
	"cold-backend/internal/importer"
	"cold-backend/internal/models"
	"cold-backend/internal/repositories"
	"cold-backend/pkg/utils"
)

// AdminHandler drives the superadmin-gated sync trigger and config singletons.
type AdminHandler struct {
	Importer *importer.Service
	SyncLogs *repositories.SyncLogRepository
	Config   *repositories.ConfigRepository
}

func NewAdminHandler(imp *importer.Service, syncLogs *repositories.SyncLogRepository, config *repositories.ConfigRepository) *AdminHandler {
	return &AdminHandler{Importer: imp, SyncLogs: syncLogs, Config: config}
}

// TriggerSync runs a synchronous import/reconciliation pass against the upstream tree.
// Returns SyncBusy (409) if one is already in flight.
func (h *AdminHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.Importer.Sync(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidatePickListCache(r.Context())
	cache.InvalidateProductCaches(r.Context())
	utils.JSON(w, http.StatusOK, result.Log)
}

// SyncStatus returns the most recent sync log rows, newest first.
func (h *AdminHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := h.SyncLogs.List(r.Context(), limit)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}

// GetSettings returns the upstream API connection singleton.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Config.GetAPIConfig(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, cfg)
}

// PutSettings overwrites the upstream API connection singleton.
func (h *AdminHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg models.APIConfig
	if err := utils.DecodeAndValidate(r, &cfg); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Config.PutAPIConfig(r.Context(), &cfg); err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateConfigCaches(r.Context())
	utils.JSON(w, http.StatusOK, &cfg)
}

// GetEmailSMSSettings returns the SMTP/SMS credential singleton.
func (h *AdminHandler) GetEmailSMSSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Config.GetNotifierConfig(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, cfg)
}

// PutEmailSMSSettings overwrites the SMTP/SMS credential singleton. Secrets are decoded
// from a dedicated write DTO rather than models.NotifierConfig itself (whose
// json:"-" tags would silently drop them on both read and write), and a blank secret in
// the request leaves the previously-stored one untouched instead of wiping it.
func (h *AdminHandler) PutEmailSMSSettings(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateNotifierConfigRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	existing, err := h.Config.GetNotifierConfig(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	cfg := &models.NotifierConfig{
		SMTPHost:        req.SMTPHost,
		SMTPPort:        req.SMTPPort,
		SMTPUser:        req.SMTPUser,
		SMTPPassword:    existing.SMTPPassword,
		SMTPFrom:        req.SMTPFrom,
		EmailRecipients: req.EmailRecipients,
		SMSProvider:     req.SMSProvider,
		SMSAPIKey:       existing.SMSAPIKey,
		SMSFrom:         req.SMSFrom,
		SMSRecipients:   req.SMSRecipients,
	}
	if req.SMTPPassword != "" {
		cfg.SMTPPassword = req.SMTPPassword
	}
	if req.SMSAPIKey != "" {
		cfg.SMSAPIKey = req.SMSAPIKey
	}

	if err := h.Config.PutNotifierConfig(r.Context(), cfg); err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateConfigCaches(r.Context())
	utils.JSON(w, http.StatusOK, cfg)
}

package models

import "time"

// APIConfig is the process-wide upstream connection singleton, keyed in the
// singletons table by name "api_config" the way system_settings keys its rows.
type APIConfig struct {
	APIBaseURL        string     `json:"api_base_url"`
	APIKey            string     `json:"api_key"`
	SyncIntervalMin   int        `json:"sync_interval_minutes"`
	AutoSyncEnabled   bool       `json:"auto_sync_enabled"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus    string     `json:"last_sync_status,omitempty"`
}

// NotifierConfig is the process-wide SMTP/SMS credential singleton, plus the
// out-of-stock digest's recipient lists. SMTPPassword/SMSAPIKey are tagged json:"-" so
// GetEmailSMSSettings never echoes them back; they can only be written through
// UpdateNotifierConfigRequest, mirroring how User.PasswordHash is never round-tripped
// through a full-struct decode.
type NotifierConfig struct {
	SMTPHost        string   `json:"smtp_host"`
	SMTPPort        int      `json:"smtp_port"`
	SMTPUser        string   `json:"smtp_user"`
	SMTPPassword    string   `json:"-"`
	SMTPFrom        string   `json:"smtp_from"`
	EmailRecipients []string `json:"email_recipients"`
	SMSProvider     string   `json:"sms_provider"`
	SMSAPIKey       string   `json:"-"`
	SMSFrom         string   `json:"sms_from"`
	SMSRecipients   []string `json:"sms_recipients"`
}

// UpdateNotifierConfigRequest is the write DTO for PUT /admin/email-sms-settings. Unlike
// NotifierConfig, it carries the secrets as real JSON fields so a client can actually set
// them. SMTPPassword/SMSAPIKey are optional: left blank, the previously-stored secret is
// kept as-is, so an operator can update the recipient lists without re-entering
// credentials on every call.
type UpdateNotifierConfigRequest struct {
	SMTPHost        string   `validate:"required" json:"smtp_host"`
	SMTPPort        int      `validate:"required" json:"smtp_port"`
	SMTPUser        string   `json:"smtp_user"`
	SMTPPassword    string   `json:"smtp_password"`
	SMTPFrom        string   `json:"smtp_from"`
	EmailRecipients []string `json:"email_recipients"`
	SMSProvider     string   `json:"sms_provider"`
	SMSAPIKey       string   `json:"sms_api_key"`
	SMSFrom         string   `json:"sms_from"`
	SMSRecipients   []string `json:"sms_recipients"`
}

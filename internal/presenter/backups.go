package presenter

import "time"

// Backup status values.
const (
	BackupsNotConfigured      = "notConfigured"
	BackupsNeverRun           = "neverRun"
	BackupsSuccess            = "success"
	BackupsSomethingWentWrong = "somethingWentWrong"
)

// BackupRecentWindow is how old the latest successful backup may be and still
// count as recent.
const BackupRecentWindow = 3 * 24 * time.Hour

// Audit is an audit log entry.
type Audit struct {
	ActorID  *int           `json:"actorId"`
	Action   string         `json:"action"`
	ActeeID  *string        `json:"acteeId"`
	Details  map[string]any `json:"details"`
	LoggedAt time.Time      `json:"loggedAt"`
}

// Succeeded reports the success flag of a backup audit.
func (a Audit) Succeeded() bool {
	ok, _ := a.Details["success"].(bool)
	return ok
}

// BackupsConfig is the backups configuration together with the latest backup
// audit. A zero Type means backups are not configured.
type BackupsConfig struct {
	Type   string    `json:"type,omitempty"`
	SetAt  time.Time `json:"setAt,omitempty"`
	Latest *Audit    `json:"latest,omitempty"`
}

// NotConfiguredBackups is the presenter used when the backend reports that no
// backups are configured.
func NotConfiguredBackups() BackupsConfig {
	return BackupsConfig{}
}

func (b BackupsConfig) Configured() bool {
	return b.Type != ""
}

// WithAudits sets Latest to the newest backup audit logged after the config
// was set.
func (b BackupsConfig) WithAudits(audits []Audit) BackupsConfig {
	b.Latest = nil
	for i := range audits {
		a := audits[i]
		if a.Action != "backup" || a.LoggedAt.Before(b.SetAt) {
			continue
		}
		if b.Latest == nil || a.LoggedAt.After(b.Latest.LoggedAt) {
			b.Latest = &a
		}
	}
	return b
}

// Recent reports whether the latest backup succeeded within
// BackupRecentWindow of now.
func (b BackupsConfig) Recent(now time.Time) bool {
	return b.Latest != nil && b.Latest.Succeeded() && now.Sub(b.Latest.LoggedAt) < BackupRecentWindow
}

// Status summarizes the backups for display.
func (b BackupsConfig) Status(now time.Time) string {
	switch {
	case !b.Configured():
		return BackupsNotConfigured
	case b.Latest == nil:
		if now.Sub(b.SetAt) < BackupRecentWindow {
			return BackupsNeverRun
		}
		return BackupsSomethingWentWrong
	case b.Recent(now):
		return BackupsSuccess
	default:
		return BackupsSomethingWentWrong
	}
}

package model

// VersionInfo contains version and feature information for the application.
type VersionInfo struct {
	AppVersion     string          `json:"app_version"`
	DbVersion      string          `json:"db_version"`
	AccountingMode string          `json:"accounting_mode"`
	Features       map[string]bool `json:"features"`
}

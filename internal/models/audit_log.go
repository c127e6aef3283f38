package models

import (
	"time"
)

// AuditAction is one of the closed set of security-relevant actions
type AuditAction string

// Actions
const (
	AuditActionLoginSuccess    AuditAction = "LOGIN_SUCCESS"
	AuditActionLoginFailed     AuditAction = "LOGIN_FAILED"
	AuditActionLoginBlocked    AuditAction = "LOGIN_BLOCKED"
	AuditActionAccountLocked   AuditAction = "ACCOUNT_LOCKED"
	AuditActionUserUnlocked    AuditAction = "USER_UNLOCKED"
	AuditActionLogout          AuditAction = "LOGOUT"
	AuditActionDashboardAccess AuditAction = "DASHBOARD_ACCESS"
	AuditActionViewUsers       AuditAction = "VIEW_USERS"
	AuditActionViewLogs        AuditAction = "VIEW_LOGS"
	AuditActionAccessData      AuditAction = "ACCESS_DATA"
	AuditActionMalwareScan     AuditAction = "MALWARE_SCAN"
)

// AuditUnknownUser is recorded when an action has no authenticated actor
const AuditUnknownUser = "unknown"

var validAuditActions = map[AuditAction]bool{
	AuditActionLoginSuccess:    true,
	AuditActionLoginFailed:     true,
	AuditActionLoginBlocked:    true,
	AuditActionAccountLocked:   true,
	AuditActionUserUnlocked:    true,
	AuditActionLogout:          true,
	AuditActionDashboardAccess: true,
	AuditActionViewUsers:       true,
	AuditActionViewLogs:        true,
	AuditActionAccessData:      true,
	AuditActionMalwareScan:     true,
}

// IsValid checks if the action belongs to the closed set
func (a AuditAction) IsValid() bool {
	return validAuditActions[a]
}

// IsFailure reports whether the action records a rejected attempt
func (a AuditAction) IsFailure() bool {
	switch a {
	case AuditActionLoginFailed, AuditActionLoginBlocked, AuditActionAccountLocked:
		return true
	}
	return false
}

// AuditRecord is an immutable entry of the activity trail.
// ID is the append sequence assigned by the store.
type AuditRecord struct {
	ID        int64       `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
	Username  string      `json:"username"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details"`
	IPAddress string      `json:"ipAddress"`
}

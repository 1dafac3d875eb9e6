package store

// Key namespaces. Every key embeds the owning entity so one entity's
// state can be read, reset, or scanned without touching another's.
const (
	// TrackedKey holds the list of tracked collection symbols.
	TrackedKey = "tracked_entities"

	watermarkPrefix = "watermark:"
	ledgerPrefix    = "ledger:"
	seenPrefix      = "seen:"
	alertsPrefix    = "alerts:"
)

// WatermarkKey returns the key for a collection's high-water mark.
func WatermarkKey(entity string) string {
	return watermarkPrefix + entity
}

// LedgerKey returns the key for one token's ledger entry.
func LedgerKey(entity, tokenMint string) string {
	return ledgerPrefix + entity + ":" + tokenMint
}

// LedgerPrefix returns the scan prefix covering a collection's ledger.
func LedgerPrefix(entity string) string {
	return ledgerPrefix + entity + ":"
}

// SeenKey returns the key for a collection's seen-set cache.
func SeenKey(entity string) string {
	return seenPrefix + entity
}

// AlertsKey returns the key for one user's alert list.
func AlertsKey(userID string) string {
	return alertsPrefix + userID
}

// AlertsPrefix is the scan prefix covering all users' alerts.
func AlertsPrefix() string {
	return alertsPrefix
}

// UserFromAlertsKey extracts the user ID from an alerts key. Returns ""
// if the key is not in the alerts namespace.
func UserFromAlertsKey(key string) string {
	if len(key) <= len(alertsPrefix) || key[:len(alertsPrefix)] != alertsPrefix {
		return ""
	}
	return key[len(alertsPrefix):]
}

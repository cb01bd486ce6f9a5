package merchants

import "github.com/amirasaad/payconsole/pkg/query"

// Cache keys of the merchant feature.
var (
	KeyRoot      = query.K("merchants")
	KeyList      = KeyRoot.Append("list")
	KeyFirst     = KeyRoot.Append("first")
	KeyDashboard = KeyRoot.Append("dashboard")
	KeyStats     = KeyDashboard.Append("stats")
	KeyRecent    = KeyDashboard.Append("recent-transactions")

	// admin screens that list merchants
	keyAdminMerchants = query.K("admin", "merchants")
	keyAdminKYB       = query.K("admin", "kyb-submissions")
)

func detailKey(id string) query.Key     { return KeyRoot.Append("detail", id) }
func documentsKey(id string) query.Key  { return KeyRoot.Append("kyb", id, "documents") }
func kybKey(id string) query.Key        { return KeyRoot.Append("kyb", id) }
func kybStatusKey(id string) query.Key  { return KeyRoot.Append("kyb", id, "status") }
func productionKey(id string) query.Key { return KeyRoot.Append("production", id) }
func domainsKey(id string) query.Key    { return KeyRoot.Append("domains", id) }
func ipsKey(id string) query.Key        { return KeyRoot.Append("ips", id) }

func recentKey(limit int) query.Key { return KeyRecent.With("limit", limit) }

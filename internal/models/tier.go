package models

// Subscription tier names.
const (
	TierFree    = "free"
	TierStarter = "starter"
	TierPremium = "premium"
)

// UnlimitedQuota is the sentinel for tier limits with no cap.
const UnlimitedQuota = -1

// TierQuota is the static policy a subscription tier grants. Tiers are
// configuration, not persisted per account; accounts store only the tier name.
type TierQuota struct {
	MonthlyActions   int  `json:"monthly_actions"` // -1 = unlimited
	DocumentsAllowed int  `json:"documents_allowed"`
	EarlyAccess      bool `json:"early_access"` // unconditional early-access grant
	ExternalTracking bool `json:"external_tracking"`
	FreeUnlocks      int  `json:"free_unlocks"` // allowance granted per cycle
}

var tierQuotas = map[string]TierQuota{
	TierFree: {
		MonthlyActions:   4,
		DocumentsAllowed: 1,
		EarlyAccess:      false,
		ExternalTracking: false,
		FreeUnlocks:      0,
	},
	TierStarter: {
		MonthlyActions:   20,
		DocumentsAllowed: 3,
		EarlyAccess:      false,
		ExternalTracking: true,
		FreeUnlocks:      2,
	},
	TierPremium: {
		MonthlyActions:   UnlimitedQuota,
		DocumentsAllowed: UnlimitedQuota,
		EarlyAccess:      true,
		ExternalTracking: true,
		FreeUnlocks:      0,
	},
}

// QuotaForTier maps a tier name to its policy. Unknown tiers fall back to the
// free policy so a bad row never grants unlimited access.
func QuotaForTier(tier string) TierQuota {
	if q, ok := tierQuotas[tier]; ok {
		return q
	}
	return tierQuotas[TierFree]
}

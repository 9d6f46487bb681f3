package utils

// QuotaStatus describes how much of the plan's storage remains.
type QuotaStatus struct {
	RemainingBytes     int64   `json:"remaining_bytes"`
	RemainingFormatted string  `json:"remaining_formatted"`
	UsagePercentage    float64 `json:"usage_percentage"`
}

// RemainingStorage computes the quota status for usedBytes against a plan
// limit in megabytes. Usage may legitimately exceed the limit (there is no
// write-time enforcement), so remaining is clamped at zero and the percentage
// at one hundred.
func RemainingStorage(usedBytes int64, planLimitMB int) QuotaStatus {
	if planLimitMB <= 0 {
		planLimitMB = 1024
	}
	limit := int64(planLimitMB) * 1024 * 1024

	remaining := limit - usedBytes
	if remaining < 0 {
		remaining = 0
	}

	pct := float64(usedBytes) / float64(limit) * 100
	if pct > 100 {
		pct = 100
	}

	return QuotaStatus{
		RemainingBytes:     remaining,
		RemainingFormatted: FormatFileSize(remaining),
		UsagePercentage:    pct,
	}
}

package subscription

import "maps"

// Usage maps each metered resource to the units consumed in the current billing period.
type Usage map[Resource]int64

// NewUsage returns a usage record with every resource set to zero.
func NewUsage() Usage {
	u := make(Usage, len(Resources))
	for _, r := range Resources {
		u[r] = 0
	}
	return u
}

// Get returns the count for r, zero when absent.
func (u Usage) Get(r Resource) int64 {
	return u[r]
}

// Clone returns an independent copy of u with every resource present.
func (u Usage) Clone() Usage {
	out := NewUsage()
	maps.Copy(out, u)
	return out
}

// Report builds per-resource usage information against limits.
func (u Usage) Report(limits Limits, available func(Resource) bool) []UsageInfo {
	out := make([]UsageInfo, 0, len(Resources))
	for _, r := range Resources {
		used, limit := u.Get(r), limits.Get(r)
		info := UsageInfo{
			Resource:   r,
			Used:       used,
			Limit:      limit,
			Percentage: UsagePercentage(used, limit),
		}
		if available != nil {
			info.Available = available(r)
		}
		out = append(out, info)
	}
	return out
}

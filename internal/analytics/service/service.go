// Package service derives the dashboard aggregates. Every aggregate walks
// the caller's visible members and skips Family policies on non-SPOC members,
// the same exclusion the policy pipeline applies.
package service

import (
	"context"
	"sort"
	"time"

	"finroots_crm_backend/internal/analytics/transport"
	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/leadsource"
	"finroots_crm_backend/internal/visibility"
)

const (
	renewalMonths = 12
	growthMonths  = 6
)

// Collections is the slice of the store the aggregator reads.
type Collections interface {
	ListMembers() []domain.Member
	ListLeadSources() []domain.LeadSourceMaster
}

// Forecaster projects the growth series forward. Implemented by the AI
// gateway adapter; fallback=true means no projection was produced.
type Forecaster interface {
	ForecastGrowth(ctx context.Context, history []transport.GrowthPoint) ([]transport.GrowthPoint, bool)
}

type Service struct {
	data       Collections
	forecaster Forecaster
	now        func() time.Time
}

func New(data Collections, forecaster Forecaster, now func() time.Time) *Service {
	return &Service{data: data, forecaster: forecaster, now: now}
}

// Overview computes the dashboard aggregate for the caller's scope.
func (s *Service) Overview(scope visibility.Scope) transport.Overview {
	members := scope.Members(s.data.ListMembers())
	resolver := leadsource.NewResolver(s.data.ListLeadSources())
	now := s.now()

	var totalPremium float64
	totalPolicies := 0
	for _, m := range members {
		for _, p := range m.Policies {
			if !m.PolicyVisible(p) {
				continue
			}
			totalPolicies++
			totalPremium += p.Premium
		}
	}

	avg := 0.0
	if len(members) > 0 {
		avg = float64(totalPolicies) / float64(len(members))
	}

	return transport.Overview{
		TotalCustomers:      len(members),
		TotalPolicies:       totalPolicies,
		TotalPremium:        totalPremium,
		AvgPoliciesPerCust:  avg,
		RenewalsByMonth:     renewalHistogram(members, now),
		LeadSourceBreakdown: leadSourceBreakdown(members, resolver),
		CustomerGrowth:      growthSeries(len(members), now),
		StateCounts:         stateCounts(members),
	}
}

// Forecast returns the historical growth series plus, when the gateway
// produces one, a 3-month projection anchored at the last historical point.
func (s *Service) Forecast(ctx context.Context, scope visibility.Scope) transport.ForecastResponse {
	members := scope.Members(s.data.ListMembers())
	history := growthSeries(len(members), s.now())

	projected, fallback := s.forecaster.ForecastGrowth(ctx, history)
	if fallback || len(projected) == 0 {
		return transport.ForecastResponse{History: history, Forecast: []transport.GrowthPoint{}, Fallback: true}
	}

	// Anchor the projection at the last historical point so the series join.
	forecast := make([]transport.GrowthPoint, 0, len(projected)+1)
	if len(history) > 0 {
		forecast = append(forecast, history[len(history)-1])
	}
	forecast = append(forecast, projected...)

	return transport.ForecastResponse{History: history, Forecast: forecast, Fallback: false}
}

// renewalHistogram buckets visible policies into the next 12 calendar months,
// wrapping by month-of-year regardless of the renewal's year.
func renewalHistogram(members []domain.Member, now time.Time) []transport.MonthBucket {
	counts := make([]int, renewalMonths)
	current := int(now.Month()) - 1

	for _, m := range members {
		for _, p := range m.Policies {
			if !m.PolicyVisible(p) {
				continue
			}
			offset := (int(p.RenewalDate.Month()) - 1 - current + renewalMonths) % renewalMonths
			counts[offset]++
		}
	}

	buckets := make([]transport.MonthBucket, renewalMonths)
	for i := range buckets {
		buckets[i] = transport.MonthBucket{
			Month: monthLabel(current + i),
			Count: counts[i],
		}
	}
	return buckets
}

func leadSourceBreakdown(members []domain.Member, resolver *leadsource.Resolver) []transport.CategoryCount {
	counts := map[string]int{}
	for _, m := range members {
		counts[resolver.RootCategory(m.LeadSource.SourceID)]++
	}

	out := make([]transport.CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, transport.CategoryCount{Category: category, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// growthSeries evenly distributes the current member count across the
// trailing 6 months and cumulative-sums it. This is a placeholder until real
// creation history is wired in; the only guaranteed property is that the
// series ends at the current total.
func growthSeries(total int, now time.Time) []transport.GrowthPoint {
	base := total / growthMonths
	start := int(now.Month()) - 1 - (growthMonths - 1)

	series := make([]transport.GrowthPoint, growthMonths)
	for i := range series {
		count := base * (i + 1)
		if i == growthMonths-1 {
			count = total
		}
		series[i] = transport.GrowthPoint{
			Month: monthLabel(start + i),
			Count: count,
		}
	}
	return series
}

func stateCounts(members []domain.Member) []transport.StateCount {
	counts := map[string]int{}
	for _, m := range members {
		state := m.State
		if state == "" {
			state = "Unknown"
		}
		counts[state]++
	}

	out := make([]transport.StateCount, 0, len(counts))
	for state, count := range counts {
		out = append(out, transport.StateCount{State: state, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].State < out[j].State
	})
	return out
}

// monthLabel maps a possibly out-of-range zero-based month index to its
// three-letter label, wrapping in both directions.
func monthLabel(index int) string {
	index = ((index % 12) + 12) % 12
	return time.Month(index + 1).String()[:3]
}

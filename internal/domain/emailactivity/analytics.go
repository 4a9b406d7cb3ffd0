package emailactivity

import (
	"sort"
	"time"
)

// GroupByType counts activity per email type.
func GroupByType(activity []*Activity) map[string]int {
	groups := make(map[string]int)
	for _, a := range activity {
		groups[a.Type]++
	}
	return groups
}

// GroupByStatus counts activity per delivery status.
func GroupByStatus(activity []*Activity) map[string]int {
	groups := make(map[string]int)
	for _, a := range activity {
		groups[a.Status]++
	}
	return groups
}

// GroupByClient counts activity per client name. Records without a name
// are grouped under "Unknown".
func GroupByClient(activity []*Activity) map[string]int {
	groups := make(map[string]int)
	for _, a := range activity {
		name := a.ClientName
		if name == "" {
			name = "Unknown"
		}
		groups[name]++
	}
	return groups
}

// GroupByMonth counts activity per calendar month ("YYYY-MM" keys).
func GroupByMonth(activity []*Activity) map[string]int {
	groups := make(map[string]int)
	for _, a := range activity {
		groups[a.SentAt.UTC().Format("2006-01")]++
	}
	return groups
}

// SuccessRate returns the percentage of sent or delivered emails over the
// whole set, 0 for an empty set.
func SuccessRate(activity []*Activity) float64 {
	if len(activity) == 0 {
		return 0
	}
	successful := 0
	for _, a := range activity {
		if a.IsSuccessful() {
			successful++
		}
	}
	return float64(successful) / float64(len(activity)) * 100
}

// TemplatePerformance aggregates delivery outcomes for one template.
type TemplatePerformance struct {
	Template       string  `json:"template"`
	SuccessRate    float64 `json:"successRate"`
	TotalSent      int     `json:"totalSent"`
	SuccessfulSent int     `json:"successfulSent"`
}

// TopTemplates ranks templates by success rate, best first, at most limit
// entries. Records without a template type count under "unknown". Ties
// keep first-appearance order.
func TopTemplates(activity []*Activity, limit int) []TemplatePerformance {
	stats := make(map[string]*TemplatePerformance)
	order := make([]string, 0)

	for _, a := range activity {
		template := a.TemplateType
		if template == "" {
			template = "unknown"
		}
		tp, ok := stats[template]
		if !ok {
			tp = &TemplatePerformance{Template: template}
			stats[template] = tp
			order = append(order, template)
		}
		tp.TotalSent++
		if a.IsSuccessful() {
			tp.SuccessfulSent++
		}
	}

	out := make([]TemplatePerformance, 0, len(order))
	for _, template := range order {
		tp := stats[template]
		if tp.TotalSent > 0 {
			tp.SuccessRate = float64(tp.SuccessfulSent) / float64(tp.TotalSent) * 100
		}
		out = append(out, *tp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuccessRate > out[j].SuccessRate
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ClientEngagement is the derived engagement profile of one client.
type ClientEngagement struct {
	ClientID        string    `json:"clientId"`
	EngagementScore float64   `json:"engagementScore"`
	TotalEmails     int       `json:"totalEmails"`
	EmailTypeCount  int       `json:"emailTypeCount"`
	LastEmailDate   time.Time `json:"lastEmailDate"`
	RecentActivity  int       `json:"recentActivity"`
}

// EngagementScores derives per-client engagement, most engaged first.
//
// The score combines email volume (2 points each, capped at 20), type
// diversity (5 per distinct type), activity in the last 30 days (3 each)
// and an inactivity penalty of one point per day beyond 30 days since the
// last email, capped at 20. The result is clamped to [0, 100].
func EngagementScores(activity []*Activity, now time.Time) []ClientEngagement {
	type clientStats struct {
		totalEmails    int
		types          map[string]struct{}
		lastEmail      time.Time
		recentActivity int
	}

	stats := make(map[string]*clientStats)
	order := make([]string, 0)
	recentCutoff := now.Add(-30 * 24 * time.Hour)

	for _, a := range activity {
		key := a.ClientID.String()
		cs, ok := stats[key]
		if !ok {
			cs = &clientStats{types: make(map[string]struct{})}
			stats[key] = cs
			order = append(order, key)
		}
		cs.totalEmails++
		cs.types[a.Type] = struct{}{}
		if a.SentAt.After(cs.lastEmail) {
			cs.lastEmail = a.SentAt
		}
		if a.SentAt.After(recentCutoff) {
			cs.recentActivity++
		}
	}

	out := make([]ClientEngagement, 0, len(order))
	for _, key := range order {
		cs := stats[key]

		score := float64(cs.totalEmails * 2)
		if score > 20 {
			score = 20
		}
		score += float64(len(cs.types) * 5)
		score += float64(cs.recentActivity * 3)

		if !cs.lastEmail.IsZero() {
			daysSince := now.Sub(cs.lastEmail).Hours() / 24
			if daysSince > 30 {
				penalty := daysSince - 30
				if penalty > 20 {
					penalty = 20
				}
				score -= penalty
			}
		}

		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}

		out = append(out, ClientEngagement{
			ClientID:        key,
			EngagementScore: score,
			TotalEmails:     cs.totalEmails,
			EmailTypeCount:  len(cs.types),
			LastEmailDate:   cs.lastEmail,
			RecentActivity:  cs.recentActivity,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EngagementScore > out[j].EngagementScore
	})

	return out
}

package emailactivity

import (
	"context"
	"time"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
	"nexa/pkg/logger"
)

// topTemplateLimit bounds the template ranking in summaries.
const topTemplateLimit = 5

// Summary is the aggregated analytics view over a set of activity.
type Summary struct {
	TotalEmails int `json:"totalEmails"`

	ByType   map[string]int `json:"byType"`
	ByStatus map[string]int `json:"byStatus"`
	ByClient map[string]int `json:"byClient"`
	ByMonth  map[string]int `json:"byMonth"`

	SuccessRate float64 `json:"successRate"`

	TopTemplates []TemplatePerformance `json:"topTemplates"`
	Engagement   []ClientEngagement    `json:"engagement"`
}

// Service records email activity and produces analytics over it.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an email activity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record appends one activity entry. Missing status and timestamps are
// defaulted so callers only provide what they know.
func (s *Service) Record(ctx context.Context, activity *Activity) error {
	if id.IsNil(activity.ID) {
		activity.ID = id.New()
	}
	if activity.Status == "" {
		activity.Status = StatusQueued
	}
	now := s.now().UTC()
	if activity.SentAt.IsZero() {
		activity.SentAt = now
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}

	if err := activity.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return err
	}

	logger.Debug(ctx, "email activity recorded",
		"id", activity.ID,
		"type", activity.Type,
		"client_id", activity.ClientID)

	return nil
}

// UpdateStatus moves a recorded email to a new delivery status.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, activityID id.ID, status string) error {
	switch status {
	case StatusQueued, StatusSent, StatusDelivered, StatusFailed:
	default:
		return apperror.NewValidation("unknown delivery status").
			WithDetail("status", status)
	}
	return s.repo.UpdateStatus(ctx, ownerID, activityID, status)
}

// List returns activity matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Activity, error) {
	if id.IsNil(filter.OwnerID) {
		return nil, apperror.NewValidation("owner is required")
	}
	return s.repo.List(ctx, filter)
}

// Summarize loads matching activity and derives the full analytics view.
func (s *Service) Summarize(ctx context.Context, filter ListFilter) (*Summary, error) {
	activity, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Summarize(activity, s.now()), nil
}

// Summarize derives analytics from an activity set.
// Pure function, usable without a service instance.
func Summarize(activity []*Activity, now time.Time) *Summary {
	return &Summary{
		TotalEmails:  len(activity),
		ByType:       GroupByType(activity),
		ByStatus:     GroupByStatus(activity),
		ByClient:     GroupByClient(activity),
		ByMonth:      GroupByMonth(activity),
		SuccessRate:  SuccessRate(activity),
		TopTemplates: TopTemplates(activity, topTemplateLimit),
		Engagement:   EngagementScores(activity, now),
	}
}

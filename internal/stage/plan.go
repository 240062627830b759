package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
)

const (
	advisoryConcurrency = 4
	advisoryResultLimit = 3
)

// PlanDeps are the optional collaborators of the plan stage.
type PlanDeps struct {
	Advisory domain.AdvisoryWriter
	Searcher domain.Searcher
	Notifier domain.Notifier
}

// Plan turns a forecast into prioritized actions and notifies the farmer.
type Plan struct {
	deps    PlanDeps
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPlan creates the plan stage.
func NewPlan(deps PlanDeps, logger *slog.Logger, metrics *observability.Metrics) *Plan {
	return &Plan{deps: deps, logger: logger, metrics: metrics}
}

func (p *Plan) Name() string { return NamePlan }

// Run builds the action plan for rc.Forecast. A failed notification yields
// PartialSuccess with the plan's communication marked failed.
func (p *Plan) Run(ctx context.Context, rc *RunContext) (Result, error) {
	if rc.Forecast == nil {
		return Result{Status: StatusError}, ErrNoForecast
	}
	forecast := rc.Forecast

	actions := make([]domain.Action, 0, len(forecast.Categories))
	for _, c := range domain.AllCategories {
		a, ok := forecast.Categories[c]
		if !ok {
			continue
		}
		actions = append(actions, newAction(c, a))
	}

	var resources []domain.SearchHit
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(advisoryConcurrency)
	g.Go(func() error {
		resources = p.advisoryResources(gctx, forecast.Location)
		return nil
	})
	for i := range actions {
		if actions[i].Level == domain.Low || p.deps.Advisory == nil {
			continue
		}
		g.Go(func() error {
			if text := p.advise(gctx, forecast.Location, actions[i]); text != "" {
				actions[i].Text = text
				actions[i].Resources = inferResources(actions[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	if p.deps.Advisory == nil {
		p.metrics.CollaboratorSkipped(collabAdvisory)
	}

	if err := ctx.Err(); err != nil {
		return Result{Status: StatusError}, err
	}

	plan := &domain.ActionPlan{
		AdvisoryResources: resources,
		Unverified:        rc.Unverified,
	}
	for _, a := range actions {
		switch pr, _ := domain.PriorityFor(a.Level); pr {
		case domain.P1:
			plan.P1 = append(plan.P1, a)
		case domain.P2:
			plan.P2 = append(plan.P2, a)
		default:
			plan.P3 = append(plan.P3, a)
		}
	}
	fillDefaults(plan)
	plan.Stamp()

	status := StatusSuccess
	plan.Communication = p.notify(ctx, rc, plan)
	if plan.Communication.Failed {
		status = StatusPartialSuccess
	}

	confidence := 0
	if rc.Verification != nil {
		confidence = rc.Verification.Score
	}
	return Result{Status: status, Confidence: confidence, Plan: plan}, nil
}

func (p *Plan) advise(ctx context.Context, loc domain.Location, a domain.Action) string {
	prompt := fmt.Sprintf(
		"You are an agricultural extension advisor. Location: %s. Risk: %s (%s, %d%% confidence). "+
			"Drivers: %s. Give one concise, practical action a farmer should take within %s. Answer in under 40 words.",
		loc.Label(), *a.Category, a.Level, a.Confidence, strings.Join(a.Drivers, "; "), a.Deadline)

	text, err := p.deps.Advisory.WriteAdvisory(ctx, prompt)
	p.metrics.CollaboratorCall(collabAdvisory, err)
	if err != nil {
		p.logger.Warn("advisory generation failed, using template", "category", a.Category.String(), "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *Plan) advisoryResources(ctx context.Context, loc domain.Location) []domain.SearchHit {
	if p.deps.Searcher == nil {
		p.metrics.CollaboratorSkipped(collabSearch)
		return nil
	}
	hits, err := p.deps.Searcher.Search(ctx, loc.Label()+" agricultural advisory office", advisoryResultLimit)
	p.metrics.CollaboratorCall(collabSearch, err)
	if err != nil {
		p.logger.Warn("advisory resource search failed", "location", loc.Label(), "error", err)
		return nil
	}
	return hits
}

func (p *Plan) notify(ctx context.Context, rc *RunContext, plan *domain.ActionPlan) domain.CommunicationStatus {
	if rc.FarmerEmail == "" {
		return domain.CommunicationStatus{Status: domain.DeliverySkipped, Message: "no recipient"}
	}
	if p.deps.Notifier == nil {
		p.metrics.CollaboratorSkipped(collabNotifier)
		return domain.CommunicationStatus{Status: domain.DeliverySkipped, Message: "notifications disabled"}
	}

	err := p.deps.Notifier.Notify(ctx, buildNotification(rc, plan))
	p.metrics.CollaboratorCall(collabNotifier, err)
	if err != nil {
		p.logger.Warn("farmer notification failed", "recipient", rc.FarmerEmail, "error", err)
		return domain.CommunicationStatus{Status: domain.DeliveryFailed, Failed: true, Message: err.Error()}
	}
	return domain.CommunicationStatus{Status: domain.DeliverySent}
}

func buildNotification(rc *RunContext, plan *domain.ActionPlan) domain.Notification {
	f := rc.Forecast
	subject := fmt.Sprintf("Farm risk alert: %s overall risk for %s", f.OverallRisk, f.Location.Label())
	if plan.Unverified {
		subject = "[Unverified] " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Risk outlook for the next %d days.\n\n", f.HorizonDays)
	for _, bucket := range []struct {
		title   string
		actions []domain.Action
	}{
		{"Urgent (24-48h)", plan.P1},
		{"This week", plan.P2},
	} {
		if len(bucket.actions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", bucket.title)
		for _, a := range bucket.actions {
			fmt.Fprintf(&b, "- %s\n", a.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Monitoring: %s\n", f.MonitoringFrequency)

	return domain.Notification{
		Recipient: rc.FarmerEmail,
		Subject:   subject,
		Body:      b.String(),
		SentAt:    domain.Now(),
	}
}

package stage

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
)

const (
	verifiedConfidence   = 70
	conflictConfidence   = 55
	conflictPenalty      = 5
	searchBoost          = 3
	searchBoostMinHits   = 2
	confirmedScore       = 75
	needsReviewScore     = 60
	confirmedMinSources  = 2
	searchResultLimit    = 5
	maxDriversPerVerdict = 5
)

// Verify scores how well a forecast is corroborated by its own sources and,
// when a searcher is configured, by open web sources.
type Verify struct {
	searcher domain.Searcher
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewVerify creates the verify stage. searcher may be nil.
func NewVerify(searcher domain.Searcher, logger *slog.Logger, metrics *observability.Metrics) *Verify {
	return &Verify{searcher: searcher, logger: logger, metrics: metrics}
}

func (v *Verify) Name() string { return NameVerify }

// Run verifies rc.Forecast. The web search and the scoring run concurrently;
// a failed search downgrades the result to PartialSuccess.
func (v *Verify) Run(ctx context.Context, rc *RunContext) (Result, error) {
	if rc.Forecast == nil {
		return Result{Status: StatusError}, ErrNoForecast
	}
	forecast := rc.Forecast

	var (
		hits      []domain.SearchHit
		searchErr error
		result    *domain.VerificationResult
	)

	var g errgroup.Group
	g.Go(func() error {
		if v.searcher == nil {
			v.metrics.CollaboratorSkipped(collabSearch)
			return nil
		}
		query := fmt.Sprintf("%s agriculture weather %s risk", forecast.Location.Label(), forecast.OverallRisk)
		hits, searchErr = v.searcher.Search(ctx, query, searchResultLimit)
		v.metrics.CollaboratorCall(collabSearch, searchErr)
		return nil
	})
	g.Go(func() error {
		result = scoreForecast(forecast)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{Status: StatusError}, err
	}

	status := StatusSuccess
	if searchErr != nil {
		v.logger.Warn("verification search failed", "location", forecast.Location.Label(), "error", searchErr)
		status = StatusPartialSuccess
	} else {
		applySearch(result, hits)
	}
	result.VerifiedAt = domain.Now()

	return Result{Status: status, Confidence: result.Score, Verification: result}, nil
}

// scoreForecast grades a forecast from its source count and the internal
// consistency of its categories.
func scoreForecast(f *domain.ForecastResult) *domain.VerificationResult {
	sourceCount := len(f.SourcesUsed)
	score := domain.SourceConfidence(sourceCount)

	res := &domain.VerificationResult{
		SourceCount:         sourceCount,
		SupportingEvidence:  []string{},
		ConflictingEvidence: []string{},
		PerCategory:         make(map[domain.RiskCategory]domain.CategoryVerification, len(f.Categories)),
	}

	for _, c := range domain.AllCategories {
		a, ok := f.Categories[c]
		if !ok {
			continue
		}
		hasDrivers := len(a.Drivers) > 0
		verified := a.Confidence >= verifiedConfidence && hasDrivers

		if verified {
			res.SupportingEvidence = append(res.SupportingEvidence,
				fmt.Sprintf("%s: %s risk at %d%% confidence", c, a.Level, a.Confidence))
		}
		switch {
		case !hasDrivers:
			res.ConflictingEvidence = append(res.ConflictingEvidence, fmt.Sprintf("%s: no supporting drivers", c))
			score -= conflictPenalty
		case a.Confidence < conflictConfidence:
			res.ConflictingEvidence = append(res.ConflictingEvidence,
				fmt.Sprintf("%s: low confidence %d%%", c, a.Confidence))
			score -= conflictPenalty
		}

		drivers := a.Drivers
		if len(drivers) > maxDriversPerVerdict {
			drivers = drivers[:maxDriversPerVerdict]
		}
		res.PerCategory[c] = domain.CategoryVerification{
			Confidence: a.Confidence,
			Verified:   verified,
			Drivers:    drivers,
		}
	}

	res.Score = clampScore(score)
	res.Status, res.Recommendation = grade(res.Score, sourceCount)
	return res
}

// applySearch folds web search hits into an already scored result.
func applySearch(res *domain.VerificationResult, hits []domain.SearchHit) {
	res.OpenSources = hits
	if len(hits) < searchBoostMinHits {
		return
	}
	res.Score = clampScore(res.Score + searchBoost)
	res.SupportingEvidence = append(res.SupportingEvidence,
		fmt.Sprintf("%d open sources discuss current conditions", len(hits)))
	res.Status, res.Recommendation = grade(res.Score, res.SourceCount)
}

func grade(score, sourceCount int) (domain.VerificationStatus, string) {
	switch {
	case score >= confirmedScore && sourceCount >= confirmedMinSources:
		return domain.Confirmed, "Proceed with the action plan"
	case score >= needsReviewScore:
		return domain.NeedsReview, "Proceed with caution and review flagged categories"
	default:
		return domain.Unverified, "Gather more field observations before acting"
	}
}

func clampScore(s int) int {
	return max(0, min(100, s))
}

package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"maps"

	"github.com/rs/zerolog"
)

type OutcomeStatus string

const (
	StatusAccepted          OutcomeStatus = "accepted"
	StatusNeedsIntervention OutcomeStatus = "needs_intervention"
	StatusCannotPlan        OutcomeStatus = "cannot_plan"
)

// Reason codes for StatusCannotPlan.
const (
	ReasonInvalidRequest = "invalid_request"
	ReasonNoStations     = "no_stations"
)

// Outcome is the result of one planning run. When Status is StatusCannotPlan
// only Reason, Detail and Request are set.
type Outcome struct {
	Status       OutcomeStatus
	Reason       string
	Detail       string
	Request      domain.PlanRequest
	Districts    []DistrictWorth
	Itinerary    domain.Itinerary
	Monitor      MonitorResult
	Fix          *domain.FixStrategy
	Alternatives []domain.FixStrategy
	Evaluation   *Evaluation
	Narrative    string
}

// FixOutcome pairs a planning run with the single fix applied to its request.
type FixOutcome struct {
	Plan      *Outcome
	Original  domain.PlanRequest
	Revised   domain.PlanRequest
	Strategy  *domain.FixStrategy
	Rationale string
	Applied   bool
}

// Planner runs the full pipeline for a structured request:
// catalog → selection → allocation → monitoring → fix proposal → evaluation.
// It never loops on its own fixes.
type Planner struct {
	Catalog       ports.StationCatalog
	Provider      ports.TravelTimeProvider
	Home          domain.Coordinates
	Rules         DayRules
	RegionCenters map[string]domain.Coordinates
	Worth         *DistrictWorthAnalyzer
	Monitor       *PlanMonitor
	Fixer         *AutoFixPlanner
	Narrator      ports.NarrativeGenerator
	Metrics       *obs.Metrics
	MaxDays       int
	// Keep each district contiguous, best district first, before splitting into days.
	GroupByDistrict bool
}

func (p *Planner) Plan(ctx context.Context, req domain.PlanRequest) (_ *Outcome, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	req = req.Normalized()
	out := &Outcome{Request: req}

	if verr := req.Validate(p.MaxDays); verr != nil {
		return p.cannotPlan(ctx, out, ReasonInvalidRequest, verr.Error()), nil
	}

	stations, err := p.loadStations(ctx, req.Regions)
	if err != nil {
		return nil, fmt.Errorf("plan inspection: %w", err)
	}
	if len(stations) == 0 {
		return p.cannotPlan(ctx, out, ReasonNoStations, fmt.Sprintf("no stations awaiting inspection in %v", req.Regions)), nil
	}

	seq := &DaySequencer{
		Provider:      p.Provider,
		Home:          p.Home,
		Rules:         p.Rules,
		RegionCenters: p.centers(stations),
	}

	candidates := EnrichWithDistance(stations, p.Home, seq.Locate)
	selected := make([]domain.Station, 0, min(req.StationCount, len(candidates)))
	for _, c := range candidates[:min(req.StationCount, len(candidates))] {
		selected = append(selected, c.Station)
	}

	out.Districts = p.Worth.AnalyzeAll(selected)
	if p.GroupByDistrict {
		selected = GroupByWorth(selected, out.Districts)
	}
	p.precompute(ctx, out.Districts)

	alloc := &Allocator{Sequencer: seq}
	it, err := alloc.Allocate(ctx, selected, req.DayCount)
	if err != nil {
		return nil, fmt.Errorf("plan inspection: %w", err)
	}
	out.Itinerary = it

	out.Monitor = p.Monitor.Check(ctx, it.Days, req.StationCount, req.DayCount)
	out.Status = StatusAccepted
	if out.Monitor.InterventionNeeded {
		out.Status = StatusNeedsIntervention
		fix := p.Fixer.ProposeFix(out.Monitor, req)
		out.Fix = &fix
		out.Alternatives = p.Fixer.Alternatives(out.Monitor, req)
	}

	evaluator := &PlanEvaluator{Home: p.Home, Locate: seq.Locate}
	eval := evaluator.Evaluate(it.Days)
	out.Evaluation = &eval

	if p.Narrator != nil {
		text, nerr := p.Narrator.Narrate(ctx, ports.NarrativeInput{
			Request:      req,
			Itinerary:    it,
			Violations:   out.Monitor.Violations,
			Fix:          out.Fix,
			Alternatives: out.Alternatives,
		})
		if nerr != nil {
			zerolog.Ctx(ctx).Warn().Err(nerr).Msg("narrative generation failed")
		}
		out.Narrative = text
	}

	p.Metrics.PlanFinished(string(out.Status))
	zerolog.Ctx(ctx).Info().
		Str("status", string(out.Status)).
		Int("requested", req.StationCount).
		Int("scheduled", it.ScheduledStations()).
		Int("days", req.DayCount).
		Float64("distance_km", it.TotalDistanceKm).
		Float64("score", eval.Score).
		Msg("plan finished")

	return out, nil
}

// Fix plans the request and applies one fix to it. An empty action takes the
// proposed strategy; otherwise the matching alternative is used.
func (p *Planner) Fix(ctx context.Context, req domain.PlanRequest, action domain.FixAction) (_ *FixOutcome, err error) {
	defer obs.Time(ctx, "planner.Fix")(&err)

	plan, err := p.Plan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fix plan: %w", err)
	}

	out := &FixOutcome{Plan: plan, Original: plan.Request, Revised: plan.Request}

	switch {
	case plan.Status == StatusCannotPlan:
		out.Rationale = plan.Detail
		return out, nil
	case action == "" && plan.Fix == nil:
		out.Rationale = "plan passes all safety checks; no fix needed"
		return out, nil
	}

	strategy := plan.Fix
	if action != "" {
		strategy = nil
		alternatives := plan.Alternatives
		if alternatives == nil {
			alternatives = p.Fixer.Alternatives(plan.Monitor, plan.Request)
		}
		for i := range alternatives {
			if alternatives[i].Action == action {
				strategy = &alternatives[i]
				break
			}
		}
		if strategy == nil {
			out.Rationale = fmt.Sprintf("%s is not applicable to this request", action)
			return out, nil
		}
	}

	out.Strategy = strategy
	out.Revised, out.Rationale = p.Fixer.Apply(*strategy, plan.Request, plan.Monitor.Violations)
	out.Applied = true

	zerolog.Ctx(ctx).Info().Str("action", string(strategy.Action)).Msg("fix applied to request")
	return out, nil
}

func (p *Planner) cannotPlan(ctx context.Context, out *Outcome, reason, detail string) *Outcome {
	out.Status = StatusCannotPlan
	out.Reason = reason
	out.Detail = detail
	p.Metrics.PlanFinished(string(out.Status))
	zerolog.Ctx(ctx).Info().Str("reason", reason).Str("detail", detail).Msg("cannot plan")
	return out
}

func (p *Planner) loadStations(ctx context.Context, regions []string) ([]domain.Station, error) {
	var all []domain.Station
	for _, region := range regions {
		stations, err := p.Catalog.Stations(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("load stations for %q: %w", region, err)
		}
		all = append(all, stations...)
	}
	return dedupeStations(all), nil
}

// centers merges configured region centres with district centroids computed
// from the catalog, the latter taking precedence.
func (p *Planner) centers(stations []domain.Station) map[string]domain.Coordinates {
	out := maps.Clone(p.RegionCenters)
	if out == nil {
		out = map[string]domain.Coordinates{}
	}
	for _, w := range p.Worth.AnalyzeAll(stations) {
		if w.Centroid != nil && w.Region != domain.UnknownRegion {
			out[w.Region] = *w.Centroid
		}
	}
	return out
}

func (p *Planner) precompute(ctx context.Context, districts []DistrictWorth) {
	pc, ok := p.Provider.(ports.TravelTimePrecomputer)
	if !ok {
		return
	}

	clusters := make(map[string]domain.Coordinates, len(districts))
	for _, d := range districts {
		if d.Centroid != nil && d.Region != domain.UnknownRegion {
			clusters[d.Region] = *d.Centroid
		}
	}
	if len(clusters) == 0 {
		return
	}

	if err := pc.Precompute(ctx, clusters, p.Home); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("travel precompute incomplete")
	}
}

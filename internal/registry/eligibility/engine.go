// Package eligibility derives the administrative status of a volunteer.
//
// The engine is pure: it receives the evaluation time, the volunteer, its
// participations and the studies they reference, and returns a status from the
// closed set in models.Status. It performs no I/O, holds no state beyond its
// policy, and never fails; missing data is treated as "no record".
package eligibility

import (
	"time"

	"trialreg/internal/registry/models"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// Policy holds the externally configured trial parameters.
type Policy struct {
	// AgeMin and AgeMax bound the allowed age band, both inclusive.
	AgeMin int
	AgeMax int
	// WashoutDays is the rest interval after a participation closes.
	WashoutDays int
}

// DefaultPolicy is used when no configuration overrides it.
var DefaultPolicy = Policy{AgeMin: 18, AgeMax: 55, WashoutDays: 90}

// Validate rejects inconsistent policies at startup.
func (p Policy) Validate() error {
	if p.AgeMin < 0 || p.AgeMax < p.AgeMin {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid age band [%d, %d]", p.AgeMin, p.AgeMax)
	}
	if p.WashoutDays < 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid washout interval %d days", p.WashoutDays)
	}
	return nil
}

// Studies resolves the studies referenced by participations.
type Studies map[id.StudyID]*models.Study

// Evaluation is the full result of evaluating a volunteer.
type Evaluation struct {
	Status models.Status
	// Age is nil when the birth date is unknown.
	Age *int
	// Active is the open participation, if any.
	Active *models.Participation
	// ActiveStudy is the study of Active when it is known.
	ActiveStudy *models.Study
	// LastPayment is the latest payment date among closed participations.
	LastPayment *time.Time
	// RestingUntil is the first day the volunteer is out of washout. It is
	// set whenever the washout has not elapsed, regardless of which rule
	// decided Status.
	RestingUntil *time.Time
}

// Resting reports whether the washout interval is still running.
func (e Evaluation) Resting() bool {
	return e.RestingUntil != nil
}

// Engine evaluates volunteers under a fixed policy.
type Engine struct {
	policy Policy
}

// New builds an engine for policy.
func New(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Status derives the status string only.
func (e *Engine) Status(now time.Time, v *models.Volunteer, ps []*models.Participation, studies Studies) models.Status {
	return e.Evaluate(now, v, ps, studies).Status
}

// Evaluate applies the status rules in precedence order; the first match wins:
//  1. age outside the band
//  2. active participation whose study has started
//  3. active participation whose study starts in the future
//  4. washout after the latest closed participation has not elapsed
//  5. manual dictum
//  6. default: waiting approval
func (e *Engine) Evaluate(now time.Time, v *models.Volunteer, ps []*models.Participation, studies Studies) Evaluation {
	today := models.Day(now)
	var ev Evaluation

	if v == nil {
		ev.Status = models.StatusWaitingApproval
		return ev
	}

	if v.BirthDate != nil {
		age := AgeAt(*v.BirthDate, today)
		ev.Age = &age
	}

	ev.Active = models.ActiveParticipation(ps)
	if ev.Active != nil {
		ev.ActiveStudy = studies[ev.Active.StudyID]
	}

	ev.LastPayment = lastPayment(ps)
	if ev.LastPayment != nil {
		until := ev.LastPayment.AddDate(0, 0, e.policy.WashoutDays)
		if today.Before(until) {
			ev.RestingUntil = &until
		}
	}

	ev.Status = e.decide(today, v, ev)
	return ev
}

func (e *Engine) decide(today time.Time, v *models.Volunteer, ev Evaluation) models.Status {
	// Rule 1: age band
	if ev.Age != nil && (*ev.Age < e.policy.AgeMin || *ev.Age > e.policy.AgeMax) {
		return models.StatusAgeIneligible
	}

	// Rules 2 and 3: currently interned or assigned
	if ev.Active != nil {
		if startDate(ev.Active, ev.ActiveStudy).After(today) {
			return models.StatusStudyAssigned
		}
		return models.StatusInStudy
	}

	// Rule 4: washout
	if ev.Resting() {
		return models.StatusResting
	}

	// Rules 5 and 6: manual dictum, defaulting to waiting approval
	return models.DictumStatus(v.ManualStatus)
}

// startDate is the study admission date, or the participation's own
// admission date when the study has none.
func startDate(p *models.Participation, s *models.Study) time.Time {
	if s != nil && s.AdmissionDate != nil {
		return *s.AdmissionDate
	}
	return p.AdmissionDate
}

func lastPayment(ps []*models.Participation) *time.Time {
	var last *time.Time
	for _, p := range ps {
		if p.PaymentDate == nil {
			continue
		}
		if last == nil || p.PaymentDate.After(*last) {
			d := models.Day(*p.PaymentDate)
			last = &d
		}
	}
	return last
}

// AgeAt returns the age in whole years on day at.
func AgeAt(birth, at time.Time) int {
	by, bm, bd := birth.Date()
	ay, am, ad := at.Date()
	age := ay - by
	if am < bm || (am == bm && ad < bd) {
		age--
	}
	return age
}

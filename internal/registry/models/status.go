package models

// Status is the human-facing administrative status of a volunteer. It is the
// single closed set used for listings, coloring and filtering; values are the
// exact labels shown to staff.
type Status string

const (
	StatusAgeIneligible   Status = "No elegible por edad"
	StatusInStudy         Status = "En estudio"
	StatusStudyAssigned   Status = "Estudio asignado"
	StatusResting         Status = "En espera (Descanso)"
	StatusWaitingApproval Status = "En espera por aprobación"
	StatusEligible        Status = "Apto"
	StatusRejected        Status = "Rechazado"
)

// AllStatuses lists the statuses in precedence order.
var AllStatuses = []Status{
	StatusAgeIneligible,
	StatusInStudy,
	StatusStudyAssigned,
	StatusResting,
	StatusWaitingApproval,
	StatusEligible,
	StatusRejected,
}

// ParseStatus accepts a status label.
func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Tone is a presentation hint for a status; clients map it to colors.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

var statusTones = map[Status]Tone{
	StatusAgeIneligible:   ToneDanger,
	StatusInStudy:         ToneInfo,
	StatusStudyAssigned:   ToneInfo,
	StatusResting:         ToneWarning,
	StatusWaitingApproval: ToneNeutral,
	StatusEligible:        ToneSuccess,
	StatusRejected:        ToneDanger,
}

// Tone returns the presentation tone of s.
func (s Status) Tone() Tone {
	if t, ok := statusTones[s]; ok {
		return t
	}
	return ToneNeutral
}

// DictumStatus maps a manual dictum to its status label.
func DictumStatus(m ManualStatus) Status {
	switch m {
	case ManualStatusEligible:
		return StatusEligible
	case ManualStatusRejected:
		return StatusRejected
	default:
		return StatusWaitingApproval
	}
}

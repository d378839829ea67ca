package recovery

import (
	"fmt"
	"strings"
)

// Template is a workout template and the categories it loads.
type Template struct {
	Name       string
	Categories []Category
}

// TemplateFitness is a template scored against current recovery state.
type TemplateFitness struct {
	Template Template
	Score    float64
	Reason   string
}

// ScoreTemplate rates how well a template fits the given statuses.
// Any tired category caps the score at 0.2; recovering categories scale
// it between 0.5 and 0.8 by the ready fraction; fully ready scores 1.0.
func ScoreTemplate(infos []Info, tpl Template) TemplateFitness {
	statusByCategory := make(map[Category]Status, len(infos))
	for _, info := range infos {
		statusByCategory[info.Category] = info.Status
	}

	var tired, recovering []string
	ready := 0
	for _, cat := range tpl.Categories {
		switch statusByCategory[cat] {
		case StatusTired:
			tired = append(tired, string(cat))
		case StatusRecovering:
			recovering = append(recovering, string(cat))
		default:
			// Unknown categories count as ready; never trained means
			// available.
			ready++
		}
	}

	total := len(tpl.Categories)
	switch {
	case len(tired) > 0:
		return TemplateFitness{
			Template: tpl,
			Score:    0.2,
			Reason:   fmt.Sprintf("still tired: %s", strings.Join(tired, ", ")),
		}
	case len(recovering) > 0:
		score := 0.5
		if total > 0 {
			score += 0.3 * float64(ready) / float64(total)
		}
		return TemplateFitness{
			Template: tpl,
			Score:    score,
			Reason:   fmt.Sprintf("still recovering: %s", strings.Join(recovering, ", ")),
		}
	default:
		return TemplateFitness{Template: tpl, Score: 1.0, Reason: "all recovered"}
	}
}

// BestTemplate picks the highest-scoring template; the first maximum
// wins on ties. Returns false for an empty template list.
func BestTemplate(infos []Info, templates []Template) (TemplateFitness, bool) {
	if len(templates) == 0 {
		return TemplateFitness{}, false
	}
	best := ScoreTemplate(infos, templates[0])
	for _, tpl := range templates[1:] {
		if fit := ScoreTemplate(infos, tpl); fit.Score > best.Score {
			best = fit
		}
	}
	return best, true
}

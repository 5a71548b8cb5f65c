package scenario

import (
	"math"

	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
)

// ApplicationRating averages the 0..5 ratings of every rated channel,
// intermediary, endpoint and message of an application onto a 0..100
// scale. rated is false when nothing in the application carries a rating.
func ApplicationRating(app *messaging.Application) (score int, rated bool) {
	sum, n := 0, 0
	for _, c := range rateable(app) {
		if c.Rated {
			sum += c.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	avg := float64(sum) / float64(n)
	return int(math.Round(avg * 100 / messaging.MaxRating)), true
}

// ApplicationResources flattens the application's own template resources
// and those of every object it declares into one list.
func ApplicationResources(app *messaging.Application) []messaging.TemplateResource {
	out := append([]messaging.TemplateResource(nil), app.Resources...)
	for _, c := range rateable(app) {
		out = append(out, c.Resources...)
	}
	return out
}

func rateable(app *messaging.Application) []*messaging.Common {
	var out []*messaging.Common
	for _, n := range app.Nodes() {
		out = append(out, n.Base())
	}
	for _, m := range app.Messages {
		out = append(out, m.Base())
	}
	return out
}

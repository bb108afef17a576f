package loadcheck

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/model"
)

var (
	skillPool    = []string{"Go", "SQL", "React", "Python", "Figma", "Docker", "Excel", "Copywriting", "Java", "Kubernetes"}
	degreePool   = []string{"Computer Science", "Design", "Marketing", "Data Science", "Business", ""}
	locationPool = []string{"Remote", "Berlin", "London", "Remote - EU", "Madrid", ""}
	workTypePool = []string{"Remote", "Hybrid", "On-site", "Part-time", ""}
)

type generator struct {
	rnd  *rand.Rand
	base time.Time
}

func newGenerator(seed uint64) *generator {
	return &generator{
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *generator) pick(pool []string) string { return pool[g.rnd.IntN(len(pool))] }

func (g *generator) skills(maxN int) []string {
	n := 1 + g.rnd.IntN(maxN)
	idx := g.rnd.Perm(len(skillPool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, skillPool[i])
	}
	return out
}

// postings returns n postings with random ids.
func (g *generator) postings(n int) []model.Posting {
	out := make([]model.Posting, n)
	for i := range out {
		p := model.Posting{
			ID:             uuid.NewString(),
			Title:          fmt.Sprintf("Opportunity %d", i+1),
			ClientName:     fmt.Sprintf("Client %d", g.rnd.IntN(50)),
			RequiredSkills: g.skills(4),
			DegreeField:    g.pick(degreePool),
			Location:       g.pick(locationPool),
			WorkType:       g.pick(workTypePool),
		}
		if g.rnd.IntN(5) > 0 {
			p.BudgetTotal = model.Float(float64(100 + g.rnd.IntN(30)*100))
		}
		if g.rnd.IntN(3) > 0 {
			d := g.base.Add(time.Duration(g.rnd.IntN(90)) * 24 * time.Hour)
			p.Deadline = &d
		}
		out[i] = p
	}
	return out
}

// profiles returns n profiles with ids loadcheck-1..n.
func (g *generator) profiles(n int) []model.Profile {
	out := make([]model.Profile, n)
	for i := range out {
		p := model.Profile{
			ID:                  fmt.Sprintf("loadcheck-%d", i+1),
			Skills:              g.skills(5),
			DegreeField:         g.pick(degreePool),
			LocationPreference:  g.pick(locationPool),
			PreferredWorkType:   g.pick(workTypePool),
			CompletenessPercent: g.rnd.IntN(101),
		}
		if g.rnd.IntN(4) > 0 {
			p.TargetHourlyRate = model.Float(float64(10 + g.rnd.IntN(40)))
		}
		out[i] = p
	}
	return out
}

package dataset

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

// profile describes how a synthetic student behaves. Probabilities are in
// 0-1, engagement is on the 0-5 scale and score on the 0-10 scale.
type profile struct {
	attendance float64
	delivery   float64
	engagement float64
	score      float64
}

// Profiles are drawn with these weights; average students are the most
// common and the extremes are rare.
var profiles = []struct {
	weight int
	p      profile
}{
	{weight: 3, p: profile{attendance: 0.85, delivery: 0.75, engagement: 3.5, score: 6.5}}, // average
	{weight: 2, p: profile{attendance: 0.95, delivery: 0.9, engagement: 4.3, score: 8.2}},  // high
	{weight: 1, p: profile{attendance: 1.0, delivery: 1.0, engagement: 4.9, score: 9.5}},   // elite
	{weight: 1, p: profile{attendance: 0.6, delivery: 0.45, engagement: 2.5, score: 4.5}},  // low
	{weight: 1, p: profile{attendance: 0.3, delivery: 0.2, engagement: 1.5, score: 2.5}},   // very low
}

var competencyNames = []string{
	"Liderança",
	"Comunicação",
	"Pensamento Estratégico",
	"Negociação",
	"Análise de Dados",
	"Gestão de Projetos",
	"Inteligência Emocional",
	"Inovação",
}

var eventTitles = []string{
	"Webinar: Carreira",
	"Workshop: Feedback",
	"Webinar: Produtividade",
	"Workshop: Apresentações",
	"Painel: Mercado",
	"Webinar: Finanças Pessoais",
}

// GenerateConfig controls the synthetic dataset.
type GenerateConfig struct {
	Students               int
	Organizations          int
	CohortsPerOrganization int
	Sessions               int
	Events                 int
	Competencies           int
	// Seed makes the output reproducible, student ids included.
	Seed int64
	// Start is the date of the first mentoring session. Sessions are weekly.
	Start model.Date
	// WithPlans attaches execution cycles and a mandatory plan to every
	// student.
	WithPlans bool
}

// DefaultGenerateConfig returns a small cohort spread over three organizations.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Students:               50,
		Organizations:          3,
		CohortsPerOrganization: 2,
		Sessions:               8,
		Events:                 4,
		Competencies:           6,
		Seed:                   1,
		Start:                  model.NewDate(2025, time.February, 3),
		WithPlans:              true,
	}
}

func (c GenerateConfig) validate() error {
	switch {
	case c.Students < 1:
		return fmt.Errorf("%w: students must be positive", ErrInvalidDataset)
	case c.Organizations < 1 || c.CohortsPerOrganization < 1:
		return fmt.Errorf("%w: organizations and cohorts must be positive", ErrInvalidDataset)
	case c.Sessions < 0 || c.Events < 0:
		return fmt.Errorf("%w: sessions and events must not be negative", ErrInvalidDataset)
	case c.Competencies < 0 || c.Competencies > len(competencyNames):
		return fmt.Errorf("%w: competencies must be within 0-%d", ErrInvalidDataset, len(competencyNames))
	}
	return nil
}

// Generate builds a synthetic dataset. The same config always yields the
// same dataset.
func Generate(ctx context.Context, cfg GenerateConfig) (*model.Dataset, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultGenerateConfig().Start
	}
	g := &generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // reproducible synthetic data
	}
	ds := &model.Dataset{}
	if cfg.WithPlans {
		ds.Cycles = make(map[string][]model.ExecutionCycle, cfg.Students)
		ds.Mandatory = make(map[string][]model.MandatoryCompetency, cfg.Students)
	}
	for i := 0; i < cfg.Students; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate cancelled: %w", err)
		}
		if err := g.student(ds, i); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

type generator struct {
	cfg GenerateConfig
	rng *rand.Rand
}

type identity struct {
	id, name, organization, cohort string
}

func (g *generator) student(ds *model.Dataset, index int) error {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return fmt.Errorf("student id: %w", err)
	}
	org := index % g.cfg.Organizations
	who := identity{
		id:           id.String(),
		name:         fmt.Sprintf("Aluno %03d", index+1),
		organization: fmt.Sprintf("Empresa %02d", org+1),
		cohort:       fmt.Sprintf("Turma %d.%d", org+1, (index/g.cfg.Organizations)%g.cfg.CohortsPerOrganization+1),
	}
	p := g.pickProfile()

	g.mentoring(ds, who, p)
	g.events(ds, who, p)
	scores := g.performance(ds, who, p)
	if g.cfg.WithPlans {
		g.plans(ds, who, scores)
	}
	return nil
}

func (g *generator) pickProfile() profile {
	total := 0
	for _, p := range profiles {
		total += p.weight
	}
	n := g.rng.Intn(total)
	for _, p := range profiles {
		if n < p.weight {
			return p.p
		}
		n -= p.weight
	}
	return profiles[0].p
}

func (g *generator) mentoring(ds *model.Dataset, who identity, p profile) {
	for s := 1; s <= g.cfg.Sessions; s++ {
		session := s
		date := model.Date{Time: g.cfg.Start.AddDate(0, 0, 7*(s-1))}
		rec := model.MentoringRecord{
			StudentID:    who.id,
			StudentName:  who.name,
			Organization: who.organization,
			Cohort:       who.cohort,
			Session:      &session,
			SessionDate:  &date,
			Attendance:   model.AttendanceAbsent,
			Task:         model.TaskNotDelivered,
		}
		switch {
		case g.rng.Float64() < 0.1:
			rec.Task = model.TaskNone
		case g.rng.Float64() < p.delivery:
			rec.Task = model.TaskDelivered
		}
		if g.rng.Float64() < p.attendance {
			rec.Attendance = model.AttendancePresent
			e := g.around(p.engagement, 0.8, 5, 0.5)
			rec.Engagement = &e
		}
		ds.Mentoring = append(ds.Mentoring, rec)
	}
}

func (g *generator) events(ds *model.Dataset, who identity, p profile) {
	for e := 0; e < g.cfg.Events; e++ {
		rec := model.EventRecord{
			StudentID:    who.id,
			StudentName:  who.name,
			Organization: who.organization,
			Cohort:       who.cohort,
			EventTitle:   eventTitles[e%len(eventTitles)],
			Attendance:   model.AttendanceAbsent,
		}
		if g.rng.Float64() < p.attendance*0.9 {
			rec.Attendance = model.AttendancePresent
		}
		ds.Events = append(ds.Events, rec)
	}
}

func (g *generator) performance(ds *model.Dataset, who identity, p profile) []float64 {
	scores := make([]float64, g.cfg.Competencies)
	for c := 0; c < g.cfg.Competencies; c++ {
		score := g.around(p.score, 1.5, 10, 0.1)
		scores[c] = score
		ds.Performance = append(ds.Performance, model.PerformanceRecord{
			StudentID:      who.id,
			CompetencyID:   competencyID(c),
			CompetencyName: competencyNames[c],
			CohortName:     who.cohort,
			Score:          &score,
		})
	}
	return scores
}

// plans splits the competencies over two four-week cycles and assigns the
// first half as the mandatory plan. Plan entries alternate between an
// explicit grade with a decimal comma and a bare code matched against the
// performance records by name.
func (g *generator) plans(ds *model.Dataset, who identity, scores []float64) {
	n := len(scores)
	if n == 0 {
		return
	}
	half := (n + 1) / 2
	ids := make([]string, n)
	for c := range ids {
		ids[c] = competencyID(c)
	}
	first := g.cfg.Start
	ds.Cycles[who.id] = []model.ExecutionCycle{
		{ID: "ciclo-1", Name: "Ciclo 1", Start: first, End: model.Date{Time: first.AddDate(0, 0, 27)}, CompetencyIDs: ids[:half]},
		{ID: "ciclo-2", Name: "Ciclo 2", Start: model.Date{Time: first.AddDate(0, 0, 28)}, End: model.Date{Time: first.AddDate(0, 0, 55)}, CompetencyIDs: ids[half:]},
	}

	plan := make([]model.MandatoryCompetency, 0, half)
	for c := 0; c < half; c++ {
		m := model.MandatoryCompetency{CompetencyID: ids[c], TargetGrade: "7,0"}
		if c%2 == 0 {
			m.Code = competencyNames[c]
			m.CurrentGrade = strings.Replace(strconv.FormatFloat(scores[c], 'f', 1, 64), ".", ",", 1)
		} else {
			m.Code = strings.ToUpper(competencyNames[c]) + " - Master"
		}
		plan = append(plan, m)
	}
	ds.Mandatory[who.id] = plan
}

// around draws a value near mean, clamped to [0, hi] and rounded to step.
func (g *generator) around(mean, spread, hi, step float64) float64 {
	v := mean + g.rng.NormFloat64()*spread
	v = math.Max(0, math.Min(hi, v))
	inv := 1 / step
	return math.Round(v*inv) / inv
}

func competencyID(i int) string {
	return "comp-" + strconv.Itoa(i+1)
}

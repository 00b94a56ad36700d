package testdata

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"salescrm/internal/models"
)

// LeadGeneratorConfig configures lead generation parameters
type LeadGeneratorConfig struct {
	Count          int
	Seed           int64
	Owners         []int     // assignedTo is drawn from here; empty means unassigned leads
	UnassignedRate float64   // 0.0-1.0
	ValueChance    float64   // 0.0-1.0 (probability of having a deal value)
	Start          time.Time // createdAt of the first lead; zero means 2024-01-01
}

var (
	regions  = []string{"north", "central", "south", "highlands", "mekong"}
	products = []string{"starter", "growth", "enterprise", "consulting-pack", "annual-support"}
	sources  = []models.LeadSource{models.SourceFacebook, models.SourceZalo, models.SourceGoogleAds, models.SourceManual}
	statuses = []models.LeadStatus{models.StatusNew, models.StatusContacted, models.StatusPotential, models.StatusNotInterested}
)

// GenerateLeads builds cfg.Count valid leads with ids 1..Count.
// The same seed always yields the same leads.
func GenerateLeads(cfg LeadGeneratorConfig) []models.Lead {
	faker := gofakeit.New(cfg.Seed)
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}

	leads := make([]models.Lead, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		created := start.Add(time.Duration(i) * time.Hour)
		l := models.Lead{
			ID:        i + 1,
			Name:      faker.Company(),
			Phone:     faker.Phone(),
			Email:     faker.Email(),
			Source:    sources[faker.Number(0, len(sources)-1)],
			Region:    regions[faker.Number(0, len(regions)-1)],
			Product:   products[faker.Number(0, len(products)-1)],
			Status:    statuses[faker.Number(0, len(statuses)-1)],
			Stage:     models.Stages[faker.Number(0, len(models.Stages)-1)],
			CreatedAt: created,
			UpdatedAt: created,
		}
		if faker.Float64Range(0, 1) < cfg.ValueChance {
			v := float64(faker.Number(5, 500)) * 100
			l.Value = &v
		}
		if len(cfg.Owners) > 0 && faker.Float64Range(0, 1) >= cfg.UnassignedRate {
			owner := cfg.Owners[faker.Number(0, len(cfg.Owners)-1)]
			l.AssignedTo = &owner
		}
		if l.Stage.Rank() >= models.StageConsulting.Rank() {
			contacted := created.Add(30 * time.Minute)
			l.LastContactedAt = &contacted
			l.UpdatedAt = contacted
		}
		leads = append(leads, l)
	}
	return leads
}

// Lead is a compact constructor for hand-written fixtures.
func Lead(id int, stage models.Stage, owner *int) models.Lead {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute)
	return models.Lead{
		ID:         id,
		Name:       "Lead " + string(rune('A'+(id-1)%26)),
		Source:     models.SourceManual,
		Status:     models.StatusNew,
		Stage:      stage,
		AssignedTo: owner,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func Owner(id int) *int {
	return &id
}

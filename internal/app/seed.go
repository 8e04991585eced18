package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/okian/heroes/internal/adapters/mq/queue"
	"github.com/okian/heroes/internal/adapters/mq/worker"
	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
)

// seedFile is the YAML layout read by the seed command:
//
//	heroes:
//	  - Zed
//	  - Ajax
type seedFile struct {
	Heroes []string `yaml:"heroes"`
}

// SeedFailure describes a name that could not be created.
type SeedFailure struct {
	Seq   int    `json:"seq"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// SeedReport summarizes a seeding run.
type SeedReport struct {
	Created []model.Hero  `json:"created"`
	Failed  []SeedFailure `json:"failed"`
}

// LoadSeedFile reads hero names from a YAML file.
func LoadSeedFile(path string) ([]model.Hero, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedFile, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document. Names are trimmed; blank names are
// kept so the worker reports them as failures with their position.
func ParseSeed(data []byte) ([]model.Hero, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedFile, err)
	}
	if len(doc.Heroes) == 0 {
		return nil, fmt.Errorf("%w: no heroes listed", ErrSeedFile)
	}
	heroes := make([]model.Hero, len(doc.Heroes))
	for i, name := range doc.Heroes {
		heroes[i] = model.Hero{Name: strings.TrimSpace(name)}
	}
	return heroes, nil
}

// Seed creates heroes through creator using a pool of workers.
func Seed(ctx context.Context, creator worker.Creator, heroes []model.Hero, workers int, l logger.Logger) (SeedReport, error) {
	if l == nil {
		l = logger.Nop()
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(heroes) + 1))
	for i, h := range heroes {
		if err := q.Enqueue(ctx, queue.Job{Seq: i + 1, Hero: h}); err != nil {
			_ = q.Close()
			return SeedReport{}, fmt.Errorf("queue seed job %d: %w", i+1, err)
		}
	}
	if err := q.Close(); err != nil {
		return SeedReport{}, err
	}

	pool := worker.NewPool(workers, q, creator, l)
	pool.Start(ctx)

	var report SeedReport
	for res := range pool.Results() {
		if res.Err != nil {
			report.Failed = append(report.Failed, SeedFailure{Seq: res.Job.Seq, Name: res.Job.Hero.Name, Error: res.Err.Error()})
			continue
		}
		report.Created = append(report.Created, *res.Hero)
	}

	sort.Slice(report.Created, func(i, j int) bool { return report.Created[i].ID < report.Created[j].ID })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Seq < report.Failed[j].Seq })

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("seeding interrupted: %w", err)
	}
	if len(report.Created) == 0 && len(report.Failed) > 0 {
		return report, errors.New("no hero could be created")
	}
	l.Info(ctx, "seeding finished", logger.Int("created", len(report.Created)), logger.Int("failed", len(report.Failed)))
	return report, nil
}

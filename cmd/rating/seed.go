package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
)

// rosterFile - формат YAML-файла состава.
//
//	groups:
//	  - id: 1
//	    name: A-1
//	participants:
//	  - id: 10
//	    username: alice
//	    score: 250
//	    group_id: 1
type rosterFile struct {
	Groups       []rosterGroup         `yaml:"groups" validate:"dive"`
	Participants []rating.RosterMember `yaml:"participants" validate:"dive"`
}

type rosterGroup struct {
	ID   rating.CohortID `yaml:"id" validate:"required,gt=0"`
	Name string          `yaml:"name" validate:"required,max=100"`
}

var rosterValidator = validator.New()

// parseRoster читает и проверяет файл состава.
func parseRoster(r io.Reader) (*rosterFile, error) {
	var f rosterFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	if err := rosterValidator.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	groups := make(map[rating.CohortID]bool, len(f.Groups))
	for _, g := range f.Groups {
		groups[g.ID] = true
	}

	seen := make(map[rating.ParticipantID]bool, len(f.Participants))
	for i := range f.Participants {
		m := &f.Participants[i]
		if seen[m.ID] {
			return nil, fmt.Errorf("invalid roster: duplicate participant %d", m.ID)
		}
		seen[m.ID] = true

		if m.CohortID != rating.NoCohort && !groups[m.CohortID] {
			return nil, fmt.Errorf("invalid roster: participant %d refers to unknown group %d", m.ID, m.CohortID)
		}
		if m.Role == "" {
			m.Role = rating.RoleStudent
		}
	}

	return &f, nil
}

// apply записывает группы, затем участников. Оценки не пишутся.
func (f *rosterFile) apply(ctx context.Context, roster rating.Roster) error {
	for _, g := range f.Groups {
		if err := roster.UpsertCohort(ctx, rating.Cohort{ID: g.ID, Name: g.Name}); err != nil {
			return fmt.Errorf("upsert group %d: %w", g.ID, err)
		}
	}
	for _, m := range f.Participants {
		if err := roster.UpsertMember(ctx, m); err != nil {
			return fmt.Errorf("upsert participant %d: %w", m.ID, err)
		}
	}
	return nil
}

// seed загружает состав из файла в настроенное хранилище.
func (a *application) seed(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer file.Close()

	roster, err := parseRoster(file)
	if err != nil {
		return err
	}

	if err := roster.apply(ctx, a.backend.roster); err != nil {
		return err
	}

	a.log.Info("roster loaded",
		"groups", len(roster.Groups),
		"participants", len(roster.Participants),
	)
	return nil
}

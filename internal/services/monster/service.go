package monster

//go:generate mockgen -destination=mock/mock_service.go -package=mockmonster -source=service.go

import (
	"context"
	"strings"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/combat"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// Service defines the monster template service interface

type Service interface {
	// GetTemplate fetches a monster template by name
	GetTemplate(ctx context.Context, name string) (*combat.MonsterTemplate, error)

	// RegisterTemplate adds or replaces a template in the bestiary
	RegisterTemplate(ctx context.Context, tmpl *combat.MonsterTemplate) error

	// ResolveRoster resolves a wave roster of template names. A name that
	// resolves to nothing is a content error, never silently skipped.
	ResolveRoster(ctx context.Context, names []string) ([]*combat.MonsterTemplate, error)
}

type service struct {
	mu        sync.RWMutex
	templates map[string]*combat.MonsterTemplate
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	// Templates seeds the bestiary; the built-in set is used when empty
	Templates []*combat.MonsterTemplate
}

// NewService creates a new monster service
func NewService(cfg *ServiceConfig) Service {
	svc := &service{
		templates: make(map[string]*combat.MonsterTemplate),
	}

	seed := defaultBestiary()
	if cfg != nil && len(cfg.Templates) > 0 {
		seed = cfg.Templates
	}
	for _, tmpl := range seed {
		svc.templates[strings.ToLower(tmpl.Name)] = tmpl
	}

	return svc
}

// GetTemplate fetches a monster template by name
func (s *service) GetTemplate(ctx context.Context, name string) (*combat.MonsterTemplate, error) {
	if name == "" {
		return nil, apperr.InvalidArgument("monster name is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[strings.ToLower(name)]
	if !ok {
		return nil, apperr.NotFoundf("monster template not found: %s", name)
	}
	return tmpl, nil
}

// RegisterTemplate adds or replaces a template in the bestiary
func (s *service) RegisterTemplate(ctx context.Context, tmpl *combat.MonsterTemplate) error {
	if tmpl == nil {
		return apperr.InvalidArgument("template cannot be nil")
	}
	if strings.TrimSpace(tmpl.Name) == "" {
		return apperr.InvalidArgument("template name is required")
	}
	if tmpl.MaxHP < 1 {
		return apperr.Configurationf("template %s has non-positive HP", tmpl.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[strings.ToLower(tmpl.Name)] = tmpl
	return nil
}

// ResolveRoster resolves a wave roster of template names
func (s *service) ResolveRoster(ctx context.Context, names []string) ([]*combat.MonsterTemplate, error) {
	if len(names) == 0 {
		return nil, apperr.Configuration("monster roster is empty")
	}

	out := make([]*combat.MonsterTemplate, 0, len(names))
	for _, name := range names {
		tmpl, err := s.GetTemplate(ctx, name)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.Configurationf("monster roster references unknown template %q", name)
			}
			return nil, err
		}
		out = append(out, tmpl)
	}
	return out, nil
}

// defaultBestiary is the built-in template set used when no content is loaded
func defaultBestiary() []*combat.MonsterTemplate {
	return []*combat.MonsterTemplate{
		{
			Name:        "giant rat",
			MaxHP:       7,
			Armor:       12,
			AttackBonus: 4,
			Damage:      combat.DamageSpec{Count: 1, Sides: 4, Bonus: 2},
			Experience:  25,
			Gold:        2,
		},
		{
			Name:        "goblin",
			MaxHP:       7,
			Armor:       15,
			AttackBonus: 4,
			Damage:      combat.DamageSpec{Count: 1, Sides: 6, Bonus: 2},
			Experience:  50,
			Gold:        5,
		},
		{
			Name:        "skeleton",
			MaxHP:       13,
			Armor:       13,
			AttackBonus: 4,
			Damage:      combat.DamageSpec{Count: 1, Sides: 6, Bonus: 2},
			Experience:  50,
			Gold:        3,
		},
		{
			Name:        "orc",
			MaxHP:       15,
			Armor:       13,
			AttackBonus: 5,
			Damage:      combat.DamageSpec{Count: 1, Sides: 12, Bonus: 3},
			Experience:  100,
			Gold:        10,
		},
		{
			Name:        "ogre",
			MaxHP:       59,
			Armor:       11,
			AttackBonus: 6,
			Damage:      combat.DamageSpec{Count: 2, Sides: 8, Bonus: 4},
			Experience:  450,
			Gold:        35,
		},
		{
			Name:        "floor boss",
			MaxHP:       110,
			Armor:       16,
			AttackBonus: 8,
			Damage:      combat.DamageSpec{Count: 2, Sides: 10, Bonus: 5},
			Experience:  1800,
			Gold:        200,
		},
	}
}

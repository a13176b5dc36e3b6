package services

import (
	"github.com/ironveil/labyrinth/internal/config"
	"github.com/ironveil/labyrinth/internal/repositories/encounters"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/repositories/parties"
	"github.com/ironveil/labyrinth/internal/repositories/positions"
	"github.com/ironveil/labyrinth/internal/repositories/rewards"
	encounterService "github.com/ironveil/labyrinth/internal/services/encounter"
	generatorService "github.com/ironveil/labyrinth/internal/services/generator"
	monsterService "github.com/ironveil/labyrinth/internal/services/monster"
	movementService "github.com/ironveil/labyrinth/internal/services/movement"
	partyService "github.com/ironveil/labyrinth/internal/services/party"
	rewardService "github.com/ironveil/labyrinth/internal/services/reward"
	"github.com/ironveil/labyrinth/internal/services/visibility"
)

// Provider holds all service instances
type Provider struct {
	GeneratorService  generatorService.Service
	MonsterService    monsterService.Service
	MovementService   movementService.Service
	EncounterService  encounterService.Service
	RewardService     rewardService.Service
	PartyService      partyService.Service
	VisibilityRules   visibility.Rules
	MaxMovementPoints float64

	FloorRepository    floors.Repository
	PositionRepository positions.Repository
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Config              *config.Config
	FloorRepository     floors.Repository
	PositionRepository  positions.Repository
	EncounterRepository encounters.Repository
	RewardRepository    rewards.Repository
	PartyRepository     parties.Repository
	TimeProvider        positions.TimeProvider
	ItemSource          movementService.ItemSource
	PlayerSource        encounterService.PlayerSource
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	if cfg.Config == nil {
		panic("config is required")
	}

	// Use in-memory repositories if none provided
	floorRepo := cfg.FloorRepository
	if floorRepo == nil {
		floorRepo = floors.NewInMemoryRepository()
	}
	positionRepo := cfg.PositionRepository
	if positionRepo == nil {
		positionRepo = positions.NewInMemoryRepository()
	}
	encounterRepo := cfg.EncounterRepository
	if encounterRepo == nil {
		encounterRepo = encounters.NewInMemoryRepository()
	}
	rewardRepo := cfg.RewardRepository
	if rewardRepo == nil {
		rewardRepo = rewards.NewInMemoryRepository()
	}
	partyRepo := cfg.PartyRepository
	if partyRepo == nil {
		partyRepo = parties.NewInMemoryRepository()
	}

	rules := visibility.Rules{
		Range:            cfg.Config.Visibility.Range,
		RevealStartNodes: cfg.Config.Visibility.RevealStartNodes,
		RevealBossNodes:  cfg.Config.Visibility.RevealBossNodes,
	}

	monsterSvc := monsterService.NewService(&monsterService.ServiceConfig{})

	generatorSvc := generatorService.NewService(&generatorService.ServiceConfig{
		Repository:     floorRepo,
		MonsterService: monsterSvc,
	})

	movementSvc := movementService.NewService(&movementService.ServiceConfig{
		FloorRepository:    floorRepo,
		PositionRepository: positionRepo,
		TimeProvider:       cfg.TimeProvider,
		ItemSource:         cfg.ItemSource,
		RegenRatePerHour:   cfg.Config.Movement.RegenRatePerHour,
		StartPolicy:        movementService.StartPolicy(cfg.Config.Movement.StartPolicy),
		VisibilityRules:    rules,
	})

	rewardSvc := rewardService.NewService(&rewardService.ServiceConfig{
		Repository: rewardRepo,
	})

	encounterSvc := encounterService.NewService(&encounterService.ServiceConfig{
		Repository:         encounterRepo,
		FloorRepository:    floorRepo,
		PositionRepository: positionRepo,
		MonsterService:     monsterSvc,
		RewardService:      rewardSvc,
		PlayerSource:       cfg.PlayerSource,
		AutoTurnCap:        cfg.Config.Combat.AutoTurnCap,
	})

	partySvc := partyService.NewService(&partyService.ServiceConfig{
		Repository: partyRepo,
	})

	return &Provider{
		GeneratorService:  generatorSvc,
		MonsterService:    monsterSvc,
		MovementService:   movementSvc,
		EncounterService:  encounterSvc,
		RewardService:     rewardSvc,
		PartyService:      partySvc,
		VisibilityRules:   rules,
		MaxMovementPoints: cfg.Config.Movement.MaxPoints,

		FloorRepository:    floorRepo,
		PositionRepository: positionRepo,
	}
}

package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=mockencounter -source=service.go

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironveil/labyrinth/internal/dice"
	"github.com/ironveil/labyrinth/internal/domain/combat"
	"github.com/ironveil/labyrinth/internal/domain/floor"
	"github.com/ironveil/labyrinth/internal/domain/reward"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/encounters"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/repositories/positions"
	"github.com/ironveil/labyrinth/internal/services/monster"
	rewardService "github.com/ironveil/labyrinth/internal/services/reward"
	"github.com/ironveil/labyrinth/internal/uuid"
)

// Repository is an alias for the encounter registry interface
type Repository = encounters.Repository

// PlayerSource is the boundary to the character system, which lives outside
// this module. It builds the combat profile for a participant.
type PlayerSource interface {
	PlayerCombatant(ctx context.Context, participantID string) (*combat.Combatant, error)
}

// ActionType is the kind of action a player submits on their turn
type ActionType string

const (
	ActionAttack   ActionType = "attack"
	ActionUseSkill ActionType = "skill"
	ActionUseItem  ActionType = "item"
)

// Action is one player action submitted during their turn
type Action struct {
	Type     ActionType
	TargetID string // combatant ID, for attack and skill
	SkillKey string
	ItemKey  string
}

// WaveReport describes one concluded wave; it is emitted as a discrete
// combat-ended event even when more waves remain
type WaveReport struct {
	WaveIndex int
	WaveCount int
	Outcome   combat.WaveOutcome
	Final     bool
}

// TurnResult carries the state after a submitted action and the automatic
// monster turns that followed it
type TurnResult struct {
	Instance  *combat.Instance
	Log       []string
	WaveEnded *WaveReport
	Resolved  bool
	Rewards   []*reward.Reward
}

// Service defines the encounter coordinator interface
type Service interface {
	// TriggerAtNode creates a prepared instance when a participant enters a
	// combat-eligible node with no live instance. Returns the instance and
	// whether this call created it. Creation is atomic per (floor, node):
	// under a concurrent trigger exactly one instance is created and the
	// later request is bound to the winner's instance.
	TriggerAtNode(ctx context.Context, participantID string, floorNumber int, nodeID string) (*combat.Instance, bool, error)

	// GetInstance retrieves an instance by ID
	GetInstance(ctx context.Context, instanceID string) (*combat.Instance, error)

	// GetInstanceAtNode retrieves the live instance at a node, or nil
	GetInstanceAtNode(ctx context.Context, floorNumber int, nodeID string) (*combat.Instance, error)

	// Join binds a co-located participant while the instance is prepared
	Join(ctx context.Context, instanceID, participantID string) (*combat.Instance, error)

	// Initiate transitions prepared -> active and spawns wave 1. The first
	// participant to initiate wins; participants with another active
	// encounter are rejected.
	Initiate(ctx context.Context, instanceID, participantID string) (*combat.Instance, error)

	// SubmitAction applies one player action, then auto-processes monster
	// turns until a player turn is reached or the wave concludes
	SubmitAction(ctx context.Context, instanceID, participantID string, action *Action) (*TurnResult, error)

	// Leave unbinds a disconnecting participant. A shared instance is not
	// cancelled while other participants remain engaged.
	Leave(ctx context.Context, instanceID, participantID string) error
}

type service struct {
	repository     Repository
	floorRepo      floors.Repository
	positionRepo   positions.Repository
	monsterService monster.Service
	rewardService  rewardService.Service
	playerSource   PlayerSource
	uuidGenerator  uuid.Generator
	roller         dice.Roller
	autoTurnCap    int

	// one lock per instance serializes combat actions
	locks sync.Map
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository         Repository            // Required
	FloorRepository    floors.Repository     // Required
	PositionRepository positions.Repository  // Required
	MonsterService     monster.Service       // Required
	RewardService      rewardService.Service // Required
	PlayerSource       PlayerSource          // Optional; a baseline profile is used if nil
	UUIDGenerator      uuid.Generator        // Optional
	DiceRoller         dice.Roller           // Optional
	AutoTurnCap        int                   // Optional; defaults to 100
}

// NewService creates a new encounter service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.FloorRepository == nil {
		panic("floor repository is required")
	}
	if cfg.PositionRepository == nil {
		panic("position repository is required")
	}
	if cfg.MonsterService == nil {
		panic("monster service is required")
	}
	if cfg.RewardService == nil {
		panic("reward service is required")
	}

	svc := &service{
		repository:     cfg.Repository,
		floorRepo:      cfg.FloorRepository,
		positionRepo:   cfg.PositionRepository,
		monsterService: cfg.MonsterService,
		rewardService:  cfg.RewardService,
		playerSource:   cfg.PlayerSource,
		autoTurnCap:    cfg.AutoTurnCap,
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if cfg.DiceRoller != nil {
		svc.roller = cfg.DiceRoller
	} else {
		svc.roller = dice.NewRandomRoller()
	}
	if svc.autoTurnCap < 1 {
		svc.autoTurnCap = 100
	}

	return svc
}

func (s *service) lockFor(instanceID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(instanceID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// TriggerAtNode creates a prepared instance for a combat-eligible node
func (s *service) TriggerAtNode(ctx context.Context, participantID string, floorNumber int, nodeID string) (*combat.Instance, bool, error) {
	if participantID == "" {
		return nil, false, apperr.InvalidArgument("participant ID is required")
	}

	graph, err := s.floorRepo.Get(ctx, floorNumber)
	if err != nil {
		return nil, false, err
	}
	node := graph.Node(nodeID)
	if node == nil {
		return nil, false, apperr.NotFoundf("node %s does not exist on floor %d", nodeID, floorNumber)
	}
	if !node.CombatEligible() {
		return nil, false, apperr.Validationf("node %s has no combat", nodeID)
	}
	if err := s.checkOnNode(ctx, participantID, floorNumber, nodeID); err != nil {
		return nil, false, err
	}

	if existing, err := s.repository.GetByNode(ctx, floorNumber, nodeID); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	var waves [][]string
	if node.Wave != nil {
		waves = node.Wave.Waves
	}

	instance := combat.NewPreparedInstance(s.uuidGenerator.New(), floorNumber, nodeID, waves, participantID)

	if err := s.repository.CreatePrepared(ctx, instance); err != nil {
		// first writer wins: surface the winner instead of the conflict
		if apperr.IsAlreadyExists(err) {
			winner, getErr := s.repository.GetByNode(ctx, floorNumber, nodeID)
			if getErr == nil && winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	return instance, true, nil
}

// checkOnNode verifies the acting participant is standing on the node;
// preparation and joining are tied to presence
func (s *service) checkOnNode(ctx context.Context, participantID string, floorNumber int, nodeID string) error {
	pos, err := s.positionRepo.Get(ctx, participantID, floorNumber)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Validationf("participant %s is not on floor %d", participantID, floorNumber)
		}
		return err
	}
	if pos.NodeID != nodeID {
		return apperr.Validationf("participant %s is not at node %s", participantID, nodeID)
	}
	return nil
}

// GetInstance retrieves an instance by ID
func (s *service) GetInstance(ctx context.Context, instanceID string) (*combat.Instance, error) {
	if instanceID == "" {
		return nil, apperr.InvalidArgument("instance ID is required")
	}
	return s.repository.Get(ctx, instanceID)
}

// GetInstanceAtNode retrieves the live instance at a node, or nil
func (s *service) GetInstanceAtNode(ctx context.Context, floorNumber int, nodeID string) (*combat.Instance, error) {
	return s.repository.GetByNode(ctx, floorNumber, nodeID)
}

// Join binds a co-located participant while the instance is prepared
func (s *service) Join(ctx context.Context, instanceID, participantID string) (*combat.Instance, error) {
	mu := s.lockFor(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := s.repository.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.HasParticipant(participantID) {
		return instance, nil
	}
	if instance.State != combat.StatePrepared {
		return nil, apperr.Validationf("encounter %s is no longer open for joining", instanceID)
	}
	if err := s.checkOnNode(ctx, participantID, instance.Floor, instance.NodeID); err != nil {
		return nil, err
	}

	instance.Join(participantID)
	if err := s.repository.Update(ctx, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// Initiate transitions prepared -> active and spawns wave 1
func (s *service) Initiate(ctx context.Context, instanceID, participantID string) (*combat.Instance, error) {
	mu := s.lockFor(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := s.repository.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if !instance.HasParticipant(participantID) {
		return nil, apperr.Validationf("participant %s is not bound to encounter %s", participantID, instanceID)
	}
	if instance.State != combat.StatePrepared {
		return nil, apperr.AlreadyExistsf("encounter %s is already %s", instanceID, instance.State)
	}

	// one active encounter per participant
	for _, pid := range instance.Participants {
		active, err := s.repository.GetActiveByParticipant(ctx, pid)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, apperr.AlreadyExistsf("participant %s already has an active encounter", pid)
		}
	}

	// wave plan: the node's config, or one wave drawn from the floor pool
	waves := instance.Waves
	if len(waves) == 0 {
		graph, err := s.floorRepo.Get(ctx, instance.Floor)
		if err != nil {
			return nil, err
		}
		if len(graph.MonsterPool) == 0 {
			return nil, apperr.Configurationf(
				"node %s on floor %d has no wave config and the floor monster pool is empty",
				instance.NodeID, instance.Floor,
			)
		}
		roster := make([]string, len(instance.Participants)+1)
		for i := range roster {
			roster[i] = graph.MonsterPool[i%len(graph.MonsterPool)]
		}
		waves = [][]string{roster}
	}

	// resolve everything up front; a rejected initiate leaves the shared
	// instance prepared and untouched
	templates, err := s.monsterService.ResolveRoster(ctx, waves[0])
	if err != nil {
		return nil, err
	}
	players := make([]*combat.Combatant, 0, len(instance.Participants))
	for _, pid := range instance.Participants {
		player, err := s.buildPlayerCombatant(ctx, pid)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	instance.Waves = waves
	for _, player := range players {
		instance.AddCombatant(player)
	}
	s.addWaveCombatants(instance, templates)

	if !instance.Activate() {
		return nil, apperr.Internalf("failed to activate encounter %s", instanceID)
	}
	instance.AddLogEntry(fmt.Sprintf("combat initiated by %s", participantID))

	if err := s.repository.Update(ctx, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// buildPlayerCombatant asks the character system for a profile, falling back
// to a baseline when no source is wired
func (s *service) buildPlayerCombatant(ctx context.Context, participantID string) (*combat.Combatant, error) {
	if s.playerSource != nil {
		player, err := s.playerSource.PlayerCombatant(ctx, participantID)
		if err != nil {
			return nil, apperr.Wrapf(err, "failed to build combatant for %s", participantID)
		}
		player.Type = combat.ActorTypePlayer
		player.ParticipantID = participantID
		return player, nil
	}

	return &combat.Combatant{
		ID:            "player-" + participantID,
		Name:          participantID,
		Type:          combat.ActorTypePlayer,
		ParticipantID: participantID,
		CurrentHP:     100,
		MaxHP:         100,
		CurrentMana:   50,
		MaxMana:       50,
		Armor:         12,
		AttackBonus:   4,
		Damage:        combat.DamageSpec{Count: 1, Sides: 8, Bonus: 2},
	}, nil
}

// spawnWave resolves and instantiates the current wave's roster
func (s *service) spawnWave(ctx context.Context, instance *combat.Instance) error {
	templates, err := s.monsterService.ResolveRoster(ctx, instance.Waves[instance.WaveIndex])
	if err != nil {
		return err
	}
	s.addWaveCombatants(instance, templates)
	return nil
}

// addWaveCombatants instantiates a resolved roster in spawn order
func (s *service) addWaveCombatants(instance *combat.Instance, templates []*combat.MonsterTemplate) {
	for i, tmpl := range templates {
		id := fmt.Sprintf("wave%d-m%d", instance.WaveIndex+1, i)
		instance.AddCombatant(combat.NewMonsterCombatant(id, tmpl))
	}
	instance.AddLogEntry(fmt.Sprintf("wave %d of %d: %d enemies appear", instance.WaveIndex+1, instance.WaveCount(), len(templates)))
}

// SubmitAction applies one player action and the monster turns following it
func (s *service) SubmitAction(ctx context.Context, instanceID, participantID string, action *Action) (*TurnResult, error) {
	if action == nil {
		return nil, apperr.InvalidArgument("action cannot be nil")
	}

	mu := s.lockFor(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := s.repository.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.State != combat.StateActive {
		return nil, apperr.Validationf("encounter %s is not active", instanceID)
	}
	if !instance.HasParticipant(participantID) {
		return nil, apperr.Validationf("participant %s is not part of this encounter", participantID)
	}

	actor := instance.PlayerCombatant(participantID)
	if actor == nil {
		return nil, apperr.Validationf("participant %s has no combatant", participantID)
	}
	if !actor.IsAlive() {
		return nil, apperr.Validationf("participant %s is dead and cannot act", participantID)
	}
	if !instance.IsParticipantTurn(participantID) {
		return nil, apperr.Validationf("it is not participant %s's turn", participantID)
	}

	result := &TurnResult{Instance: instance}
	logStart := len(instance.CombatLog)

	if err := s.resolvePlayerAction(instance, actor, action); err != nil {
		return nil, err
	}
	instance.NextTurn()

	if err := s.driveWave(ctx, instance, result); err != nil {
		return nil, err
	}

	result.Log = append(result.Log, instance.CombatLog[min(logStart, len(instance.CombatLog)):]...)

	if instance.State == combat.StateResolved {
		if err := s.repository.Remove(ctx, instance.ID); err != nil {
			return nil, err
		}
	} else if err := s.repository.Update(ctx, instance); err != nil {
		return nil, err
	}

	return result, nil
}

// resolvePlayerAction validates and applies a single player action
func (s *service) resolvePlayerAction(instance *combat.Instance, actor *combat.Combatant, action *Action) error {
	switch action.Type {
	case ActionAttack:
		target, err := s.resolveTarget(instance, action.TargetID)
		if err != nil {
			return err
		}
		return s.resolveAttack(instance, actor, target, actor.AttackBonus, actor.Damage)

	case ActionUseSkill:
		skill, ok := actor.Skills[action.SkillKey]
		if !ok {
			return apperr.Validationf("skill %s is not learned", action.SkillKey)
		}
		if actor.CurrentMana < skill.ManaCost {
			return apperr.Validationf("insufficient mana for %s: need %d, have %d", skill.Name, skill.ManaCost, actor.CurrentMana)
		}
		target, err := s.resolveTarget(instance, action.TargetID)
		if err != nil {
			return err
		}

		actor.SpendMana(skill.ManaCost)
		roll, err := s.roller.Roll(skill.Damage.Count, skill.Damage.Sides, skill.Damage.Bonus)
		if err != nil {
			return apperr.Wrap(err, "damage roll failed")
		}
		target.ApplyDamage(roll.Total)
		instance.AddLogEntry(fmt.Sprintf("%s casts %s on %s for %d damage", actor.Name, skill.Name, target.Name, roll.Total))
		return nil

	case ActionUseItem:
		item, ok := actor.Items[action.ItemKey]
		if !ok || item.Count < 1 {
			return apperr.Validationf("item %s is not available", action.ItemKey)
		}
		item.Count--
		actor.Heal(item.Heal)
		instance.AddLogEntry(fmt.Sprintf("%s uses %s and recovers %d HP", actor.Name, item.Name, item.Heal))
		return nil

	default:
		return apperr.InvalidArgumentf("unknown action type %q", action.Type)
	}
}

// resolveTarget validates an attack/skill target exists and is alive
func (s *service) resolveTarget(instance *combat.Instance, targetID string) (*combat.Combatant, error) {
	target, ok := instance.Combatants[targetID]
	if !ok {
		return nil, apperr.Validationf("target %s does not exist", targetID)
	}
	if !target.IsAlive() {
		return nil, apperr.Validationf("target %s is already dead", target.Name)
	}
	return target, nil
}

// resolveAttack rolls to hit against armor, then rolls damage
func (s *service) resolveAttack(instance *combat.Instance, attacker, target *combat.Combatant, attackBonus int, damage combat.DamageSpec) error {
	attackRoll, err := s.roller.Roll(1, 20, attackBonus)
	if err != nil {
		return apperr.Wrap(err, "attack roll failed")
	}

	if attackRoll.Total < target.Armor {
		instance.AddLogEntry(fmt.Sprintf("%s attacks %s and misses (%d vs %d)", attacker.Name, target.Name, attackRoll.Total, target.Armor))
		return nil
	}

	damageRoll, err := s.roller.Roll(damage.Count, damage.Sides, damage.Bonus)
	if err != nil {
		return apperr.Wrap(err, "damage roll failed")
	}

	target.ApplyDamage(damageRoll.Total)
	instance.AddLogEntry(fmt.Sprintf("%s hits %s for %d damage", attacker.Name, target.Name, damageRoll.Total))
	if !target.IsAlive() {
		instance.AddLogEntry(fmt.Sprintf("%s is defeated", target.Name))
	}
	return nil
}

// driveWave runs automatic monster turns until a player turn is reached or
// the wave concludes, handling wave advancement and final resolution
func (s *service) driveWave(ctx context.Context, instance *combat.Instance, result *TurnResult) error {
	for autoTurns := 0; ; {
		if ended, outcome := instance.CheckWaveEnd(); ended {
			return s.concludeWave(ctx, instance, outcome, result)
		}

		current := instance.CurrentCombatant()
		if current == nil || current.Type == combat.ActorTypePlayer {
			return nil
		}

		autoTurns++
		if autoTurns > s.autoTurnCap {
			return apperr.Internalf("monster turn cap (%d) exceeded in encounter %s", s.autoTurnCap, instance.ID)
		}

		if err := s.runMonsterTurn(instance, current); err != nil {
			return err
		}
		instance.NextTurn()
	}
}

// runMonsterTurn has the monster attack the weakest living player
func (s *service) runMonsterTurn(instance *combat.Instance, attacker *combat.Combatant) error {
	var target *combat.Combatant
	for _, id := range instance.TurnOrder {
		c := instance.Combatants[id]
		if c == nil || c.Type != combat.ActorTypePlayer || !c.IsAlive() {
			continue
		}
		if target == nil || c.CurrentHP < target.CurrentHP {
			target = c
		}
	}
	if target == nil {
		return nil
	}
	return s.resolveAttack(instance, attacker, target, attacker.AttackBonus, attacker.Damage)
}

// concludeWave reports the wave's end and either advances to the next wave
// or resolves the instance
func (s *service) concludeWave(ctx context.Context, instance *combat.Instance, outcome combat.WaveOutcome, result *TurnResult) error {
	report := &WaveReport{
		WaveIndex: instance.WaveIndex,
		WaveCount: instance.WaveCount(),
		Outcome:   outcome,
	}
	result.WaveEnded = report

	if outcome == combat.WaveOutcomeVictory && instance.HasNextWave() {
		// player HP and mana carry over unchanged; status effects reset
		instance.AdvanceWave()
		if err := s.spawnWave(ctx, instance); err != nil {
			return err
		}
		instance.BeginWave()
		return nil
	}

	report.Final = true
	instance.Resolve()
	result.Resolved = true
	instance.AddLogEntry(fmt.Sprintf("encounter ended in %s", outcome))

	if outcome == combat.WaveOutcomeVictory {
		if err := s.grantVictoryRewards(ctx, instance, result); err != nil {
			return err
		}
		if err := s.markBossDefeated(ctx, instance); err != nil {
			return err
		}
	}
	return nil
}

// grantVictoryRewards splits the defeated rosters' experience and gold
// across the bound participants
func (s *service) grantVictoryRewards(ctx context.Context, instance *combat.Instance, result *TurnResult) error {
	totalXP, totalGold := 0, 0
	for _, wave := range instance.Waves {
		templates, err := s.monsterService.ResolveRoster(ctx, wave)
		if err != nil {
			return err
		}
		for _, tmpl := range templates {
			totalXP += tmpl.Experience
			totalGold += tmpl.Gold
		}
	}

	share := len(instance.Participants)
	if share == 0 {
		return nil
	}
	source := fmt.Sprintf("encounter:%s", instance.ID)

	for _, pid := range instance.Participants {
		grants := []rewardService.Grant{
			{Type: reward.TypeExperience, Quantity: totalXP / share},
			{Type: reward.TypeGold, Quantity: totalGold / share},
		}
		granted, err := s.rewardService.GrantRewards(ctx, pid, source, grants)
		if err != nil {
			return err
		}
		result.Rewards = append(result.Rewards, granted...)
	}
	return nil
}

// markBossDefeated opens boss-gated nodes after a boss-node victory
func (s *service) markBossDefeated(ctx context.Context, instance *combat.Instance) error {
	graph, err := s.floorRepo.Get(ctx, instance.Floor)
	if err != nil {
		return err
	}
	node := graph.Node(instance.NodeID)
	if node == nil || node.Kind != floor.NodeKindBoss {
		return nil
	}
	if graph.BossDefeated {
		return nil
	}
	graph.BossDefeated = true
	return s.floorRepo.Save(ctx, graph)
}

// Leave unbinds a disconnecting participant. Mid-combat the departed
// combatant drops out of the turn order so the remaining participants keep
// acting; the shared instance survives while anyone remains engaged.
func (s *service) Leave(ctx context.Context, instanceID, participantID string) error {
	mu := s.lockFor(instanceID)
	mu.Lock()
	defer mu.Unlock()

	instance, err := s.repository.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !instance.HasParticipant(participantID) {
		return apperr.NotFoundf("participant %s is not bound to encounter %s", participantID, instanceID)
	}

	wasActive := instance.State == combat.StateActive
	empty := instance.RemoveParticipant(participantID)
	if wasActive {
		instance.AddLogEntry(fmt.Sprintf("%s flees the encounter", participantID))
	}

	if empty {
		return s.repository.Remove(ctx, instanceID)
	}

	// the departure may have removed the last living player
	if wasActive {
		if ended, outcome := instance.CheckWaveEnd(); ended && outcome == combat.WaveOutcomeDefeat {
			instance.AddLogEntry(fmt.Sprintf("encounter ended in %s", outcome))
			instance.Resolve()
			return s.repository.Remove(ctx, instanceID)
		}
	}
	return s.repository.Update(ctx, instance)
}

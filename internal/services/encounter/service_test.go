package encounter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockdice "github.com/ironveil/labyrinth/internal/dice/mock"
	"github.com/ironveil/labyrinth/internal/domain/combat"
	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/encounters"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/repositories/positions"
	"github.com/ironveil/labyrinth/internal/repositories/rewards"
	"github.com/ironveil/labyrinth/internal/services/encounter"
	"github.com/ironveil/labyrinth/internal/services/monster"
	rewardService "github.com/ironveil/labyrinth/internal/services/reward"
	"github.com/ironveil/labyrinth/internal/testutils"
	"github.com/ironveil/labyrinth/internal/uuid"
)

type fixture struct {
	svc          encounter.Service
	repo         encounters.Repository
	floorRepo    floors.Repository
	positionRepo positions.Repository
	rewardSvc    rewardService.Service
	roller       *mockdice.ManualMockRoller
}

// place puts a participant on a node of floor 1; preparation and joining
// require presence
func (f *fixture) place(t *testing.T, participantID, nodeID string) {
	t.Helper()
	pos := testutils.CreateTestPosition(participantID, 1, nodeID, 10, time.Now())
	require.NoError(t, f.positionRepo.Create(context.Background(), pos))
}

type weakPlayerSource struct{}

func (weakPlayerSource) PlayerCombatant(_ context.Context, participantID string) (*combat.Combatant, error) {
	return &combat.Combatant{
		ID:        "player-" + participantID,
		Name:      participantID,
		CurrentHP: 4,
		MaxHP:     4,
		Armor:     10,
	}, nil
}

func newFixture(t *testing.T, playerSource encounter.PlayerSource) *fixture {
	repo := encounters.NewInMemoryRepository()
	floorRepo := floors.NewInMemoryRepository()
	positionRepo := positions.NewInMemoryRepository()
	require.NoError(t, floorRepo.Save(context.Background(), testutils.CreateTestGraph(1)))

	rewardSvc := rewardService.NewService(&rewardService.ServiceConfig{
		Repository: rewards.NewInMemoryRepository(),
	})
	roller := mockdice.NewManualMockRoller()

	svc := encounter.NewService(&encounter.ServiceConfig{
		Repository:         repo,
		FloorRepository:    floorRepo,
		PositionRepository: positionRepo,
		MonsterService:     monster.NewService(&monster.ServiceConfig{}),
		RewardService:      rewardSvc,
		PlayerSource:       playerSource,
		UUIDGenerator:      uuid.NewSequentialGenerator("enc"),
		DiceRoller:         roller,
	})

	return &fixture{svc: svc, repo: repo, floorRepo: floorRepo, positionRepo: positionRepo, rewardSvc: rewardSvc, roller: roller}
}

func TestTriggerAtNode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")

	instance, created, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, combat.StatePrepared, instance.State)
	assert.Equal(t, []string{"alice"}, instance.Participants)
	assert.Equal(t, 2, instance.WaveCount())

	// a second trigger binds to the existing instance
	again, created, err := f.svc.TriggerAtNode(ctx, "bob", 1, "b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, instance.ID, again.ID)
}

func TestTriggerAtNode_NotEligible(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "start")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, _, err = f.svc.TriggerAtNode(ctx, "alice", 1, "nowhere")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestTriggerAtNode_ConcurrentTriggersYieldOneInstance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")

	const workers = 16
	var wg sync.WaitGroup
	ids := make([]string, workers)
	createdFlags := make([]bool, workers)
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			instance, created, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
			if err != nil {
				errs[w] = err
				return
			}
			ids[w] = instance.ID
			createdFlags[w] = created
		}(w)
	}
	wg.Wait()

	creations := 0
	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		assert.Equal(t, ids[0], ids[w], "all triggers must land on the same instance")
		if createdFlags[w] {
			creations++
		}
	}
	assert.Equal(t, 1, creations, "exactly one trigger creates the instance")
}

func TestJoinAndInitiate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")
	f.place(t, "dave", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)

	_, err = f.svc.Join(ctx, instance.ID, "bob")
	require.NoError(t, err)

	_, err = f.svc.Initiate(ctx, instance.ID, "carol")
	require.Error(t, err, "only bound participants can initiate")

	active, err := f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, combat.StateActive, active.State)
	assert.Equal(t, 1, active.Round)
	assert.Equal(t, []string{"player-alice", "player-bob", "wave1-m0"}, active.TurnOrder)

	// once active, joining and re-initiating fail
	_, err = f.svc.Join(ctx, instance.ID, "dave")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.Initiate(ctx, instance.ID, "bob")
	require.Error(t, err)
	assert.True(t, apperr.IsAlreadyExists(err))
}

func TestInitiate_OneActiveEncounterPerParticipant(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.place(t, "alice", "b")
	first, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, first.ID, "alice")
	require.NoError(t, err)

	// alice wanders to the boss room with her first fight still running
	require.NoError(t, f.positionRepo.Update(ctx, testutils.CreateTestPosition("alice", 1, "boss", 10, time.Now())))
	second, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "boss")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, second.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsAlreadyExists(err))
}

// Runs the full two-wave fight at node b. The raw die values are consumed in
// order: a d20 attack roll, then damage dice on a hit.
func TestSubmitAction_TwoWaveScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	f.roller.SetRolls([]int{
		15, 5, // wave 1: alice hits the goblin for 7, killing it
		15, 5, 10, 12, // wave 2: goblin down, orc hits back for 15
		15, 8, 10, 12, // orc takes 10, hits back for 15
		1, 10, 12, // alice misses, orc hits for 15
		1, 10, 12, // alice misses, orc hits for 15
		15, 3, // alice finishes the orc
	})

	attack := func(target string) *encounter.TurnResult {
		t.Helper()
		result, err := f.svc.SubmitAction(ctx, instance.ID, "alice", &encounter.Action{
			Type:     encounter.ActionAttack,
			TargetID: target,
		})
		require.NoError(t, err)
		return result
	}

	// wave 1 concludes but the encounter continues
	result := attack("wave1-m0")
	require.NotNil(t, result.WaveEnded)
	assert.Equal(t, combat.WaveOutcomeVictory, result.WaveEnded.Outcome)
	assert.False(t, result.WaveEnded.Final)
	assert.False(t, result.Resolved)
	assert.Equal(t, 1, result.Instance.WaveIndex)

	alice := result.Instance.PlayerCombatant("alice")
	require.NotNil(t, alice)
	assert.Equal(t, 100, alice.CurrentHP, "wave advance preserves HP")

	attack("wave2-m0")
	attack("wave2-m1")
	attack("wave2-m1")
	attack("wave2-m1")
	result = attack("wave2-m1")

	require.NotNil(t, result.WaveEnded)
	assert.True(t, result.WaveEnded.Final)
	assert.True(t, result.Resolved)
	assert.Equal(t, combat.WaveOutcomeVictory, result.WaveEnded.Outcome)
	assert.Equal(t, 40, alice.CurrentHP, "HP carried across waves and damage")

	// rewards cover every wave's roster: two goblins and an orc
	require.Len(t, result.Rewards, 2)
	unclaimed, err := f.rewardSvc.ListUnclaimed(ctx, "alice")
	require.NoError(t, err)
	totals := make(map[string]int)
	for _, rw := range unclaimed {
		totals[string(rw.Type)] += rw.Quantity
	}
	assert.Equal(t, 200, totals["experience"])
	assert.Equal(t, 20, totals["gold"])

	// the resolved instance is discarded, freeing the node
	gone, err := f.svc.GetInstanceAtNode(ctx, 1, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSubmitAction_DefeatResolvesImmediately(t *testing.T) {
	f := newFixture(t, weakPlayerSource{})
	ctx := context.Background()

	graph := testutils.CreateTestGraph(1)
	graph.Nodes["b"].Wave.Waves = [][]string{{"goblin"}}
	require.NoError(t, f.floorRepo.Save(ctx, graph))
	f.place(t, "alice", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	// alice misses, the goblin hits her 4 HP for 4
	f.roller.SetRolls([]int{1, 15, 2})

	result, err := f.svc.SubmitAction(ctx, instance.ID, "alice", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.NoError(t, err)

	require.NotNil(t, result.WaveEnded)
	assert.Equal(t, combat.WaveOutcomeDefeat, result.WaveEnded.Outcome)
	assert.True(t, result.WaveEnded.Final)
	assert.True(t, result.Resolved)
	assert.Empty(t, result.Rewards, "defeat grants nothing")

	gone, err := f.svc.GetInstanceAtNode(ctx, 1, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSubmitAction_BossVictoryOpensGate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	graph := testutils.CreateTestGraph(1)
	graph.Nodes["boss"].Wave = &floor.WaveConfig{Waves: [][]string{{"goblin"}}}
	require.NoError(t, f.floorRepo.Save(ctx, graph))
	f.place(t, "alice", "boss")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "boss")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	f.roller.SetRolls([]int{15, 5})
	result, err := f.svc.SubmitAction(ctx, instance.ID, "alice", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.NoError(t, err)
	require.True(t, result.Resolved)

	stored, err := f.floorRepo.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, stored.BossDefeated, "boss victory opens boss-gated nodes")
}

func TestSubmitAction_TurnValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, instance.ID, "bob")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	// it is alice's turn, not bob's
	_, err = f.svc.SubmitAction(ctx, instance.ID, "bob", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.SubmitAction(ctx, instance.ID, "carol", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLeave(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, instance.ID, "bob")
	require.NoError(t, err)

	// a shared instance survives one participant leaving
	require.NoError(t, f.svc.Leave(ctx, instance.ID, "alice"))
	remaining, err := f.svc.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, remaining.Participants)

	// the last departure discards it
	require.NoError(t, f.svc.Leave(ctx, instance.ID, "bob"))
	gone, err := f.svc.GetInstanceAtNode(ctx, 1, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTriggerAtNode_RequiresPresence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "a")

	// preparation is tied to standing on the node
	_, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	// a participant with no position on the floor cannot prepare either
	_, _, err = f.svc.TriggerAtNode(ctx, "ghost", 1, "b")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	gone, err := f.svc.GetInstanceAtNode(ctx, 1, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestJoin_RequiresPresence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "carol", "a")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)

	// carol is one node away and cannot join remotely
	_, err = f.svc.Join(ctx, instance.ID, "carol")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	stored, err := f.svc.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, stored.Participants)
}

func TestLeave_DuringActiveCombatPassesTheTurn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, instance.ID, "bob")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	// alice disconnects while the turn cursor is on her combatant
	require.NoError(t, f.svc.Leave(ctx, instance.ID, "alice"))

	remaining, err := f.svc.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.StateActive, remaining.State)
	assert.Equal(t, []string{"bob"}, remaining.Participants)
	assert.Nil(t, remaining.Combatants["player-alice"], "the departed combatant leaves combat")
	assert.Equal(t, []string{"player-bob", "wave1-m0"}, remaining.TurnOrder)

	// the turn passed to bob, who finishes the wave
	f.roller.SetRolls([]int{15, 5})
	result, err := f.svc.SubmitAction(ctx, instance.ID, "bob", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.NoError(t, err)
	require.NotNil(t, result.WaveEnded)
	assert.Equal(t, combat.WaveOutcomeVictory, result.WaveEnded.Outcome)
	assert.False(t, result.WaveEnded.Final)

	// alice is fully unbound
	_, err = f.svc.SubmitAction(ctx, instance.ID, "alice", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave2-m0",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLeave_LastLivingPlayerDepartureResolvesCombat(t *testing.T) {
	f := newFixture(t, weakPlayerSource{})
	ctx := context.Background()
	f.place(t, "alice", "b")
	f.place(t, "bob", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, instance.ID, "bob")
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.NoError(t, err)

	// alice and bob both miss; the goblin then drops 4 HP alice
	f.roller.SetRolls([]int{1, 1, 15, 2})
	_, err = f.svc.SubmitAction(ctx, instance.ID, "alice", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitAction(ctx, instance.ID, "bob", &encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "wave1-m0",
	})
	require.NoError(t, err)

	// bob walking out leaves only alice's corpse behind: the wave is lost
	// and the node is freed
	require.NoError(t, f.svc.Leave(ctx, instance.ID, "bob"))

	gone, err := f.svc.GetInstanceAtNode(ctx, 1, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestInitiate_InvalidRosterLeavesInstancePrepared(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	graph := testutils.CreateTestGraph(1)
	graph.Nodes["b"].Wave.Waves = [][]string{{"beholder"}}
	require.NoError(t, f.floorRepo.Save(ctx, graph))
	f.place(t, "alice", "b")

	instance, _, err := f.svc.TriggerAtNode(ctx, "alice", 1, "b")
	require.NoError(t, err)

	_, err = f.svc.Initiate(ctx, instance.ID, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))

	// the rejected initiate leaves the shared instance untouched
	stored, err := f.svc.GetInstance(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, combat.StatePrepared, stored.State)
	assert.Empty(t, stored.Combatants)
	assert.Equal(t, [][]string{{"beholder"}}, stored.Waves)
}

package monster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironveil/labyrinth/internal/domain/combat"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/services/monster"
)

func TestGetTemplate_DefaultBestiary(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{})

	tmpl, err := svc.GetTemplate(ctx, "goblin")
	require.NoError(t, err)
	assert.Equal(t, 7, tmpl.MaxHP)
	assert.Equal(t, 15, tmpl.Armor)

	// lookup is case-insensitive
	tmpl, err = svc.GetTemplate(ctx, "Goblin")
	require.NoError(t, err)
	assert.Equal(t, "goblin", tmpl.Name)

	_, err = svc.GetTemplate(ctx, "tarrasque")
	assert.True(t, apperr.IsNotFound(err))
}

func TestRegisterTemplate(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{})

	err := svc.RegisterTemplate(ctx, &combat.MonsterTemplate{
		Name:        "mimic",
		MaxHP:       18,
		Armor:       12,
		AttackBonus: 5,
		Damage:      combat.DamageSpec{Count: 1, Sides: 8, Bonus: 3},
		Experience:  120,
		Gold:        30,
	})
	require.NoError(t, err)

	tmpl, err := svc.GetTemplate(ctx, "mimic")
	require.NoError(t, err)
	assert.Equal(t, 18, tmpl.MaxHP)

	// replacing an existing template takes effect
	err = svc.RegisterTemplate(ctx, &combat.MonsterTemplate{
		Name:   "mimic",
		MaxHP:  25,
		Armor:  12,
		Damage: combat.DamageSpec{Count: 1, Sides: 8, Bonus: 3},
	})
	require.NoError(t, err)
	tmpl, err = svc.GetTemplate(ctx, "mimic")
	require.NoError(t, err)
	assert.Equal(t, 25, tmpl.MaxHP)
}

func TestRegisterTemplate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{})

	err := svc.RegisterTemplate(ctx, nil)
	assert.True(t, apperr.IsInvalidArgument(err))

	err = svc.RegisterTemplate(ctx, &combat.MonsterTemplate{Name: "  ", MaxHP: 5})
	assert.True(t, apperr.IsInvalidArgument(err))

	err = svc.RegisterTemplate(ctx, &combat.MonsterTemplate{Name: "wisp", MaxHP: 0})
	assert.True(t, apperr.IsConfiguration(err))
}

func TestResolveRoster(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{})

	roster, err := svc.ResolveRoster(ctx, []string{"goblin", "orc", "goblin"})
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "goblin", roster[0].Name)
	assert.Equal(t, "orc", roster[1].Name)
	assert.Same(t, roster[0], roster[2])
}

func TestResolveRoster_UnknownTemplate(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{})

	_, err := svc.ResolveRoster(ctx, []string{"goblin", "beholder"})
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "beholder")

	_, err = svc.ResolveRoster(ctx, nil)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestSeededTemplatesReplaceDefaults(t *testing.T) {
	ctx := context.Background()
	svc := monster.NewService(&monster.ServiceConfig{
		Templates: []*combat.MonsterTemplate{
			{
				Name:   "slime",
				MaxHP:  4,
				Armor:  8,
				Damage: combat.DamageSpec{Count: 1, Sides: 4},
			},
		},
	})

	_, err := svc.GetTemplate(ctx, "slime")
	require.NoError(t, err)

	// default bestiary is not loaded when content is seeded
	_, err = svc.GetTemplate(ctx, "goblin")
	assert.True(t, apperr.IsNotFound(err))
}

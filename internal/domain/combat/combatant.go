package combat

// ActorType represents the type of combatant
type ActorType string

const (
	ActorTypePlayer  ActorType = "player"
	ActorTypeMonster ActorType = "monster"
)

// DamageSpec describes a damage roll (count d sides + bonus)
type DamageSpec struct {
	Count int `json:"count"`
	Sides int `json:"sides"`
	Bonus int `json:"bonus"`
}

// Skill is a player ability usable in combat for a mana cost
type Skill struct {
	Key      string     `json:"key"`
	Name     string     `json:"name"`
	ManaCost int        `json:"mana_cost"`
	Damage   DamageSpec `json:"damage"`
}

// Item is a consumable usable in combat
type Item struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Heal  int    `json:"heal,omitempty"`
	Count int    `json:"count"`
}

// MonsterTemplate defines a spawnable monster
type MonsterTemplate struct {
	Name        string     `json:"name"`
	MaxHP       int        `json:"max_hp"`
	Armor       int        `json:"armor"`
	AttackBonus int        `json:"attack_bonus"`
	Damage      DamageSpec `json:"damage"`
	Experience  int        `json:"experience"`
	Gold        int        `json:"gold"`
}

// Combatant represents one actor inside an encounter wave
type Combatant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ActorType  `json:"type"`
	CurrentHP   int        `json:"current_hp"`
	MaxHP       int        `json:"max_hp"`
	CurrentMana int        `json:"current_mana"`
	MaxMana     int        `json:"max_mana"`
	Armor       int        `json:"armor"`
	AttackBonus int        `json:"attack_bonus"`
	Damage      DamageSpec `json:"damage"`

	// StatusEffects are reset between waves; HP and mana are not
	StatusEffects []string `json:"status_effects,omitempty"`

	// For players
	ParticipantID string            `json:"participant_id,omitempty"`
	Skills        map[string]*Skill `json:"skills,omitempty"`
	Items         map[string]*Item  `json:"items,omitempty"`

	// For monsters
	TemplateName string `json:"template_name,omitempty"`
	Experience   int    `json:"experience,omitempty"`
	Gold         int    `json:"gold,omitempty"`
}

// IsAlive returns true if the combatant has more than 0 HP
func (c *Combatant) IsAlive() bool {
	return c.CurrentHP > 0
}

// ApplyDamage reduces the combatant's HP, clamping at zero
func (c *Combatant) ApplyDamage(damage int) {
	c.CurrentHP -= damage
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal restores hit points up to the maximum
func (c *Combatant) Heal(amount int) {
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
}

// SpendMana deducts a skill's cost; the caller has validated sufficiency
func (c *Combatant) SpendMana(amount int) {
	c.CurrentMana -= amount
	if c.CurrentMana < 0 {
		c.CurrentMana = 0
	}
}

// NewMonsterCombatant instantiates a combatant from a template
func NewMonsterCombatant(id string, tmpl *MonsterTemplate) *Combatant {
	return &Combatant{
		ID:           id,
		Name:         tmpl.Name,
		Type:         ActorTypeMonster,
		CurrentHP:    tmpl.MaxHP,
		MaxHP:        tmpl.MaxHP,
		Armor:        tmpl.Armor,
		AttackBonus:  tmpl.AttackBonus,
		Damage:       tmpl.Damage,
		TemplateName: tmpl.Name,
		Experience:   tmpl.Experience,
		Gold:         tmpl.Gold,
	}
}

package party

import "time"

// Participant is a human player bound to a trusted session identifier
type Participant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CharacterID string `json:"character_id"`
	Floor       int    `json:"floor"`
}

// Party is an informational grouping of participants for combat
// co-membership display. It does not own position data, and membership
// carries no combat-sharing guarantee beyond manually joining an encounter.
type Party struct {
	ID        string    `json:"id"`
	LeaderID  string    `json:"leader_id"`
	MemberIDs []string  `json:"member_ids"`
	Floor     int       `json:"floor"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether the participant belongs to the party
func (p *Party) HasMember(participantID string) bool {
	for _, id := range p.MemberIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// RemoveMember drops the participant from the member list. If the leader
// leaves and members remain, leadership passes to the first remaining member.
// Returns true if the party is now empty.
func (p *Party) RemoveMember(participantID string) bool {
	members := p.MemberIDs[:0]
	for _, id := range p.MemberIDs {
		if id != participantID {
			members = append(members, id)
		}
	}
	p.MemberIDs = members

	if len(p.MemberIDs) == 0 {
		return true
	}
	if p.LeaderID == participantID {
		p.LeaderID = p.MemberIDs[0]
	}
	return false
}

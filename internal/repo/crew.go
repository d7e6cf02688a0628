package repo

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// wireCrewMember is the stored jsonb shape of one crew entry. Roles decode
// through domain.Role, which accepts both the bare-string and the
// object-with-name legacy forms; encoding always writes the object form.
type wireCrewMember struct {
	UserID uuid.UUID     `json:"userId"`
	Roles  []domain.Role `json:"roles"`
}

// encodeCrew serializes the crew for the trips.user_roles jsonb column.
func encodeCrew(crew []domain.CrewMember) ([]byte, error) {
	wire := make([]wireCrewMember, len(crew))
	for i, m := range crew {
		wire[i] = wireCrewMember{UserID: m.UserID, Roles: m.Roles}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode crew: %w", err)
	}
	return data, nil
}

// decodeCrew rebuilds the crew from the user_roles jsonb column. Rows
// written before roles existed carry only user_ids; those users are
// synthesized as members with no roles so they still appear on the trip.
func decodeCrew(userRoles []byte, userIDs []uuid.UUID) ([]domain.CrewMember, error) {
	var wire []wireCrewMember
	if len(userRoles) > 0 {
		if err := json.Unmarshal(userRoles, &wire); err != nil {
			return nil, err
		}
	}

	crew := make([]domain.CrewMember, 0, len(wire))
	seen := make(map[uuid.UUID]bool, len(wire))
	for _, m := range wire {
		crew = append(crew, domain.CrewMember{UserID: m.UserID, Roles: m.Roles})
		seen[m.UserID] = true
	}
	for _, id := range userIDs {
		if !seen[id] {
			crew = append(crew, domain.CrewMember{UserID: id})
		}
	}
	if len(crew) == 0 {
		return nil, nil
	}
	return crew, nil
}

// crewUserIDs extracts the redundant user_ids array kept alongside
// user_roles for relational membership queries.
func crewUserIDs(crew []domain.CrewMember) []uuid.UUID {
	ids := make([]uuid.UUID, len(crew))
	for i, m := range crew {
		ids[i] = m.UserID
	}
	return ids
}

package attendance

import (
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeUserAttendance = "UserAttendance"

// Event type constants
const (
	EventTypeTeamMembershipChanged = "TeamMembershipChanged"
)

// TeamMembershipChangedEvent is published when an attendance joins or
// leaves a team or its approval changes. Both the old and the new team
// need their member counts and results recomputed.
type TeamMembershipChangedEvent struct {
	shared.BaseDomainEvent
	UserAttendanceID uuid.UUID                  `json:"user_attendance_id"`
	OldTeamID        *uuid.UUID                 `json:"old_team_id,omitempty"`
	NewTeamID        *uuid.UUID                 `json:"new_team_id,omitempty"`
	Approval         organization.ApprovalState `json:"approval"`
}

// NewTeamMembershipChangedEvent creates a new TeamMembershipChangedEvent
func NewTeamMembershipChangedEvent(ua *UserAttendance, oldTeamID *uuid.UUID) *TeamMembershipChangedEvent {
	return &TeamMembershipChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTeamMembershipChanged, AggregateTypeUserAttendance, ua.ID, ua.CampaignID),
		UserAttendanceID: ua.ID,
		OldTeamID:        oldTeamID,
		NewTeamID:        ua.TeamID,
		Approval:         ua.ApprovedForTeam,
	}
}

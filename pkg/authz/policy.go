package authz

import (
	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// Actor is the acting identity resolved by the SSO collaborator. It is passed
// explicitly into every engine call; nothing reads it from ambient state.
type Actor struct {
	ID        uuid.UUID
	Role      enums.ActorRole
	Superuser bool
}

// Action is a closed set of privileged operations the policy knows about.
type Action string

const (
	ActionCreateMovement Action = "movement.create"
	ActionApprove        Action = "movement.approve"
	ActionMarkProgress   Action = "movement.mark_progress"
	ActionAcknowledge    Action = "movement.acknowledge"
	ActionCancel         Action = "movement.cancel"
	ActionManageRegistry Action = "registry.manage"

	ActionPlanStockTake     Action = "stocktake.plan"
	ActionStartStockTake    Action = "stocktake.start"
	ActionRecordFinding     Action = "stocktake.record_finding"
	ActionCompleteStockTake Action = "stocktake.complete"
)

// permissionTable is the entire authorization surface. Roles absent from a
// row are denied. Keeping this static makes the surface exhaustively testable
// instead of scattering role checks across call sites.
var permissionTable = map[Action]map[enums.ActorRole]bool{
	ActionCreateMovement: {
		enums.ActorRoleOperator:      true,
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionApprove: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionMarkProgress: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionAcknowledge: {
		enums.ActorRoleOperator:      true,
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionCancel: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionManageRegistry: {
		enums.ActorRoleAdministrator: true,
	},
	ActionPlanStockTake: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionStartStockTake: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionRecordFinding: {
		enums.ActorRoleOperator:      true,
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
	ActionCompleteStockTake: {
		enums.ActorRoleApprover:      true,
		enums.ActorRoleAdministrator: true,
	},
}

// Permitted decides whether the role may perform the action. isInitiator is
// the actor-vs-initiator relationship for the record being acted on; it only
// matters for approval, where initiators may not approve their own movement.
// An Administrator is exempt from that restriction only when the identity
// provider flags the actor as superuser-equivalent.
func Permitted(actor Actor, action Action, isInitiator bool) bool {
	allowed := permissionTable[action][actor.Role]
	if !allowed {
		return false
	}
	if action == ActionApprove && isInitiator {
		return actor.Role == enums.ActorRoleAdministrator && actor.Superuser
	}
	return true
}

// ActionForTransition maps a target movement status onto the policy action
// guarding it. The second return is false for statuses that are not legal
// targets of an explicit transition request (e.g. PENDING).
func ActionForTransition(target enums.MovementStatus) (Action, bool) {
	switch target {
	case enums.MovementStatusInTransit:
		return ActionApprove, true
	case enums.MovementStatusCompleted, enums.MovementStatusDelivered:
		return ActionMarkProgress, true
	case enums.MovementStatusAcknowledged:
		return ActionAcknowledge, true
	case enums.MovementStatusCancelled:
		return ActionCancel, true
	}
	return "", false
}

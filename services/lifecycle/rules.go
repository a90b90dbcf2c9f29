package lifecycle

import (
	// Go Internal Packages
	"fmt"

	// Local Packages
	models "coinnet/models"
	utils "coinnet/utils"
)

type Action string

const (
	ActionAccept      Action = "accept"
	ActionReject      Action = "reject"
	ActionMarkSent    Action = "mark_sent"
	ActionUploadProof Action = "upload_proof"
	ActionVerify      Action = "verify"
	ActionComplete    Action = "complete"
	ActionCancel      Action = "cancel"
	ActionDispute     Action = "dispute"

	// ActionCreate and ActionResolveDispute are recorded on events and
	// timelines but are not part of the transition table.
	ActionCreate         Action = "create"
	ActionResolveDispute Action = "resolve_dispute"
)

// Actions lists the table actions in menu order.
var Actions = []Action{
	ActionAccept,
	ActionReject,
	ActionMarkSent,
	ActionUploadProof,
	ActionVerify,
	ActionComplete,
	ActionDispute,
	ActionCancel,
}

// Rule is one row of the transition table: which party roles may apply the
// action, from which statuses, and where it leads.
type Rule struct {
	Roles []models.Role
	From  []models.Status
	To    models.Status
}

func (r Rule) allowsRole(role models.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (r Rule) allowsFrom(status models.Status) bool {
	for _, from := range r.From {
		if from == status {
			return true
		}
	}
	return false
}

var (
	requesterOnly = []models.Role{models.RoleRequester}
	providerOnly  = []models.Role{models.RoleProvider}
	eitherParty   = []models.Role{models.RoleRequester, models.RoleProvider}
)

// Rules is the complete transition table.
var Rules = map[Action]Rule{
	ActionAccept: {
		Roles: providerOnly,
		From:  []models.Status{models.StatusRequested},
		To:    models.StatusAccepted,
	},
	ActionReject: {
		Roles: providerOnly,
		From:  []models.Status{models.StatusRequested},
		To:    models.StatusCancelled,
	},
	ActionMarkSent: {
		Roles: requesterOnly,
		From:  []models.Status{models.StatusAccepted},
		To:    models.StatusSinpeSent,
	},
	ActionUploadProof: {
		Roles: requesterOnly,
		From:  []models.Status{models.StatusAccepted, models.StatusSinpeSent},
		To:    models.StatusProofUploaded,
	},
	ActionVerify: {
		Roles: providerOnly,
		From:  []models.Status{models.StatusProofUploaded},
		To:    models.StatusVerified,
	},
	ActionComplete: {
		Roles: providerOnly,
		From:  []models.Status{models.StatusVerified},
		To:    models.StatusCompleted,
	},
	ActionCancel: {
		Roles: eitherParty,
		From:  models.ActiveStatuses,
		To:    models.StatusCancelled,
	},
	ActionDispute: {
		Roles: requesterOnly,
		From:  []models.Status{models.StatusSinpeSent, models.StatusProofUploaded, models.StatusVerified},
		To:    models.StatusDisputed,
	},
}

// ParseAction maps a wire name such as "mark-sent" or "mark_sent" to a table
// action.
func ParseAction(name string) (Action, bool) {
	a := Action(name)
	switch name {
	case "mark-sent":
		a = ActionMarkSent
	case "upload-proof":
		a = ActionUploadProof
	}
	_, ok := Rules[a]
	return a, ok
}

// AvailableActions returns the actions a party with role may take on a
// transaction in status, in menu order.
func AvailableActions(status models.Status, role models.Role) []Action {
	actions := make([]Action, 0, 2)
	for _, a := range Actions {
		rule := Rules[a]
		if rule.allowsRole(role) && rule.allowsFrom(status) {
			actions = append(actions, a)
		}
	}
	return actions
}

// TransitionError describes an action that is not valid from the
// transaction's current status. Current is the committed state the caller
// should resynchronise to.
type TransitionError struct {
	Action  Action
	Role    models.Role
	Current models.Transaction
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s transaction %s in status %s as %s", e.Action, e.Current.ID, e.Current.Status, e.Role)
	if rule, ok := Rules[e.Action]; ok {
		msg += " (allowed from " + utils.JoinStatuses(rule.From) + ")"
	}
	return msg
}

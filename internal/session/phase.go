package session

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

// Phase is the coarse state of one participant.
type Phase string

const (
	PhaseMenu           Phase = "menu"
	PhaseConnecting     Phase = "connecting"
	PhaseCreatingServer Phase = "creating_server"
	PhaseStartingGame   Phase = "starting_game"
	PhaseInGame         Phase = "in_game"
	PhaseFinishingGame  Phase = "finishing_game"
)

type SignalKind string

const (
	ConnectionEstablished SignalKind = "connection_established"
	EndpointCreated       SignalKind = "endpoint_created"
	HostRoleAssigned      SignalKind = "host_role_assigned"
	PeerJoined            SignalKind = "peer_joined"
	ConnectionLost        SignalKind = "connection_lost"
)

// Signal is an opaque notification from the transport. Mark is only set for HostRoleAssigned.
type Signal struct {
	Kind SignalKind
	Mark entity.Symbol
}

func NewSignal(kind SignalKind) Signal {
	return Signal{Kind: kind}
}

func RoleAssigned(mark entity.Symbol) Signal {
	return Signal{Kind: HostRoleAssigned, Mark: mark}
}

func (that Signal) String() string {
	if that.Kind == HostRoleAssigned {
		return fmt.Sprintf("%s(%s)", that.Kind, that.Mark)
	}
	return string(that.Kind)
}

// Presenter is the surface the session drives. It never renders anything itself.
type Presenter interface {
	OnPhaseChanged(phase Phase)
	OnMoveApplied(effect entity.MoveEffect)
	OnLegalTargets(targets []entity.Position)
}

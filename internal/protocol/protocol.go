// Package protocol defines the closed message families exchanged between the
// orchestrator, planets and explorers.
//
// Each family is a sealed interface: only the variants declared here satisfy
// it, so a message built for one channel cannot be sent on another.
package protocol

import (
	"fmt"
	"strings"

	"github.com/xonecas/zoea-galaxy/internal/mailbox"
)

// PlanetID identifies a planet for the lifetime of the process.
type PlanetID uint32

// ExplorerID identifies an explorer for the lifetime of the process.
type ExplorerID uint32

func (id PlanetID) String() string   { return fmt.Sprintf("planet-%d", uint32(id)) }
func (id ExplorerID) String() string { return fmt.Sprintf("explorer-%d", uint32(id)) }

// Outcome is a planet's answer to an incoming or outgoing explorer request.
type Outcome struct {
	Accepted bool
	Reason   string
}

// Accept returns an accepting outcome.
func Accept() Outcome { return Outcome{Accepted: true} }

// Reject returns a rejecting outcome with reason.
func Reject(reason string) Outcome { return Outcome{Reason: reason} }

// PlanetInbox receives explorer traffic for one planet.
type PlanetInbox = mailbox.Mailbox[ExplorerToPlanet]

// ExplorerInbox receives planet traffic for one explorer.
type ExplorerInbox = mailbox.Mailbox[PlanetToExplorer]

// Name returns the variant name of msg, for logs.
func Name(msg any) string {
	name := fmt.Sprintf("%T", msg)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Package notify tells players about zone lifecycle events through the
// external command channel. Like map markers, notifications are
// best-effort and never block or fail the operation that caused them.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/zonewarden/server/internal/deletion"
	"github.com/zonewarden/server/internal/protection"
	"github.com/zonewarden/server/internal/team"
	"github.com/zonewarden/server/internal/zone"
)

// TeamNotifier messages every member of a zone's owning team.
type TeamNotifier struct {
	teams   *team.Service
	channel protection.Channel
}

// NewTeamNotifier creates a TeamNotifier.
func NewTeamNotifier(teams *team.Service, channel protection.Channel) *TeamNotifier {
	return &TeamNotifier{teams: teams, channel: channel}
}

// ZoneDeleted tells each owning-team member their zone is gone.
func (n *TeamNotifier) ZoneDeleted(ctx context.Context, z zone.Zone) {
	members, err := n.teams.Members(ctx, z.OwnerTeamID)
	if err != nil {
		log.Printf("Warning: failed to load members of team %s for notification: %v", z.OwnerTeamID, err)
		return
	}
	for _, member := range members {
		cmd := fmt.Sprintf("tell %s zone %q has been deleted", member, z.Name)
		if err := n.channel.Execute(ctx, cmd); err != nil {
			log.Printf("Warning: failed to notify %s about zone %s: %v", member, z.ID, err)
		}
	}
}

// Multi fans one deletion notification out to several notifiers.
func Multi(notifiers ...deletion.Notifier) deletion.Notifier {
	return multiNotifier(notifiers)
}

type multiNotifier []deletion.Notifier

func (m multiNotifier) ZoneDeleted(ctx context.Context, z zone.Zone) {
	for _, n := range m {
		n.ZoneDeleted(ctx, z)
	}
}

package league

import (
	"context"

	"league-auction/utils"
)

// LogNotifier publishes settlement events to the structured log
type LogNotifier struct{}

func (LogNotifier) EmitSettlement(_ context.Context, auctionID, winnerTeamID string, amount int64) error {
	fields := map[string]any{
		"event":      "auction_settled",
		"auction_id": auctionID,
		"amount":     amount,
	}
	if winnerTeamID != "" {
		fields["winner_team_id"] = winnerTeamID
	}
	utils.Info("settlement event", fields)
	return nil
}

// StaticAdmins grants the admin capability to a fixed set of callers
type StaticAdmins struct {
	ids map[string]struct{}
}

// NewStaticAdmins creates an authorizer for the given caller IDs
func NewStaticAdmins(ids []string) *StaticAdmins {
	a := &StaticAdmins{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		a.ids[id] = struct{}{}
	}
	return a
}

func (a *StaticAdmins) IsAdmin(callerID string) bool {
	if callerID == "" {
		return false
	}
	_, ok := a.ids[callerID]
	return ok
}

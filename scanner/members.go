package scanner

import (
	"fmt"

	"guild-mirror/models"

	"github.com/bwmarrin/discordgo"
)

// memberPageSize is the largest page the members endpoint returns.
const memberPageSize = 1000

// MemberLister pages through the members of a guild. *discordgo.Session
// satisfies it.
type MemberLister interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// FetchMembers lists every member of guildID, one page at a time.
func FetchMembers(ml MemberLister, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := ml.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %s after %q: %w", guildID, after, err)
		}
		all = append(all, page...)
		if len(page) < memberPageSize {
			return all, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return all, nil
		}
		after = last.User.ID
	}
}

// FillMembers replaces the member list of every guild whose cached members
// fall short of its member count. Large guilds only ship a partial member
// list over the gateway. Guilds that cannot be listed keep what the cache
// had; their ids are returned with the error.
func FillMembers(snap *models.Snapshot, state *discordgo.State, ml MemberLister) map[string]error {
	failed := make(map[string]error)
	for i := range snap.Guilds {
		gs := &snap.Guilds[i]
		if len(gs.Members) >= gs.Guild.MemberCount {
			continue
		}

		members, err := FetchMembers(ml, gs.Guild.ID)
		if err != nil {
			failed[gs.Guild.ID] = err
			continue
		}

		var roles map[string]*discordgo.Role
		if state != nil {
			if g, err := state.Guild(gs.Guild.ID); err == nil {
				state.RLock()
				roles = RoleIndex(g.Roles)
				state.RUnlock()
			}
		}

		gs.Members = gs.Members[:0]
		for _, m := range members {
			if m.User == nil {
				continue
			}
			gs.Members = append(gs.Members, Member(gs.Guild.ID, m, roles))
		}
	}
	return failed
}

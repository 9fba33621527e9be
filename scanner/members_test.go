package scanner

import (
	"errors"
	"fmt"
	"testing"

	"guild-mirror/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedMembers struct {
	total int
	fail  bool
	calls []string
}

func (p *pagedMembers) GuildMembers(guildID string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	p.calls = append(p.calls, after)
	if p.fail {
		return nil, errors.New("HTTP 403 Forbidden")
	}
	start := 0
	if after != "" {
		fmt.Sscanf(after, "u%d", &start)
		start++
	}
	var page []*discordgo.Member
	for i := start; i < p.total && len(page) < limit; i++ {
		page = append(page, &discordgo.Member{User: &discordgo.User{ID: fmt.Sprintf("u%d", i), Username: "user"}})
	}
	return page, nil
}

func TestFetchMembers_Pages(t *testing.T) {
	lister := &pagedMembers{total: 2500}

	members, err := FetchMembers(lister, "G1")
	require.NoError(t, err)
	assert.Len(t, members, 2500)
	assert.Equal(t, []string{"", "u999", "u1999"}, lister.calls)
}

func TestFetchMembers_ExactPageBoundary(t *testing.T) {
	lister := &pagedMembers{total: 1000}

	members, err := FetchMembers(lister, "G1")
	require.NoError(t, err)
	assert.Len(t, members, 1000)
	assert.Len(t, lister.calls, 2)
}

func TestFillMembers(t *testing.T) {
	snap := models.Snapshot{Guilds: []models.GuildSnapshot{
		{Guild: models.Guild{ID: "small", MemberCount: 1}, Members: []models.Member{{ID: "u0"}}},
		{Guild: models.Guild{ID: "large", MemberCount: 3}, Members: []models.Member{{ID: "u0"}}},
	}}
	lister := &pagedMembers{total: 3}

	failed := FillMembers(&snap, nil, lister)
	assert.Empty(t, failed)
	assert.Len(t, snap.Guilds[0].Members, 1)
	require.Len(t, snap.Guilds[1].Members, 3)
	assert.Equal(t, "large", snap.Guilds[1].Members[2].GuildID)
	assert.Equal(t, "@everyone", snap.Guilds[1].Members[2].TopRole)
	assert.Len(t, lister.calls, 1)
}

func TestFillMembers_KeepsCacheOnError(t *testing.T) {
	snap := models.Snapshot{Guilds: []models.GuildSnapshot{
		{Guild: models.Guild{ID: "large", MemberCount: 5}, Members: []models.Member{{ID: "u0"}}},
	}}

	failed := FillMembers(&snap, nil, &pagedMembers{fail: true})
	assert.Contains(t, failed, "large")
	assert.Len(t, snap.Guilds[0].Members, 1)
}

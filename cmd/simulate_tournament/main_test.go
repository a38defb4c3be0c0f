package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-shiai/infrastructure/storage/memory"
	"github.com/ahrav/go-shiai/internal/domain"
)

func TestSeedFirstLevelOddFieldGetsBye(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	category := domain.Category{ID: "kumite-75kg", Name: "Kumite -75kg", Discipline: domain.DisciplineKumite}
	require.NoError(t, store.PutCategory(ctx, category))

	seedFirstLevel(ctx, store, category, domain.LevelQuarterfinal, 7)

	entities, err := store.EntitiesAtLevel(ctx, category.ID, domain.LevelQuarterfinal)
	require.NoError(t, err)
	require.Len(t, entities, 4)

	var seen []string
	for i, entity := range entities {
		m, ok := entity.(*domain.Match)
		require.True(t, ok)
		for _, p := range m.Participants {
			seen = append(seen, p.CompetitorID)
		}
		if i < 3 {
			assert.Equal(t, domain.MatchScheduled, m.Status)
			assert.Len(t, m.Participants, 2)
		}
	}
	assert.Len(t, seen, 7)

	// The odd entrant opens with a bye instead of being dropped.
	bye, ok := entities[3].(*domain.Match)
	require.True(t, ok)
	assert.True(t, bye.Bye())
	assert.Equal(t, domain.MatchCompleted, bye.Status)
	assert.Equal(t, "competitor-07", bye.WinnerID)
}

func TestSeedFirstLevelKataSeedsEveryEntrant(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	category := domain.Category{ID: "kata-senior", Name: "Kata Senior", Discipline: domain.DisciplineKata}
	require.NoError(t, store.PutCategory(ctx, category))

	seedFirstLevel(ctx, store, category, domain.LevelFirstRound, 5)

	entities, err := store.EntitiesAtLevel(ctx, category.ID, domain.LevelFirstRound)
	require.NoError(t, err)
	require.Len(t, entities, 5)
	for i, entity := range entities {
		p, ok := entity.(*domain.Performance)
		require.True(t, ok)
		assert.Equal(t, i, p.Order)
		assert.Empty(t, p.JudgeScores)
	}
}

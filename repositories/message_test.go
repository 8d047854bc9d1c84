package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"collab-live/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func messageAt(author, content string, channelID *string, at time.Time) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.New(),
		Content:   content,
		AuthorID:  author,
		ChannelID: channelID,
		CreatedAt: at,
		Reactions: make(map[string][]string),
	}
}

func TestMessageRepository_InsertAndReadBackSorted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	at := time.Now().UTC().Truncate(time.Millisecond)
	inserted := []domain.ChatMessage{
		messageAt("alice", "first", nil, at),
		messageAt("bob", "second", nil, at.Add(1*time.Minute)),
		messageAt("clara", "third", nil, at.Add(2*time.Minute)),
	}
	for _, message := range inserted {
		req.NoError(repo.InsertMessage(ctx, message))
	}

	// When fetching the global room, newest comes first
	fetched, _, err := repo.RecentMessages(ctx, domain.GlobalRoom, nil)
	req.NoError(err)
	req.Len(fetched, 3)
	req.Equal("third", fetched[0].Content)
	req.Equal("second", fetched[1].Content)
	req.Equal("first", fetched[2].Content)
	req.Equal(inserted[2].ID, fetched[0].ID)
}

func TestMessageRepository_RoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	workspace := "w1"
	at := time.Now().UTC()
	req.NoError(repo.InsertMessage(ctx, messageAt("alice", "global talk", nil, at)))
	req.NoError(repo.InsertMessage(ctx, messageAt("bob", "workspace talk", &workspace, at)))

	global, _, err := repo.RecentMessages(ctx, domain.GlobalRoom, nil)
	req.NoError(err)
	req.Len(global, 1)
	req.Equal("global talk", global[0].Content)

	scoped, _, err := repo.RecentMessages(ctx, domain.WorkspaceRoom("w1"), nil)
	req.NoError(err)
	req.Len(scoped, 1)
	req.Equal("workspace talk", scoped[0].Content)
	req.NotNil(scoped[0].ChannelID)
	req.Equal("w1", *scoped[0].ChannelID)
}

func TestMessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	limit := 4
	repo := NewMessageRepository(openTestDB(t), slog.Default(), &limit)

	now := time.Now().UTC()
	for i := 1; i <= 10; i++ {
		req.NoError(repo.InsertMessage(ctx, messageAt(
			fmt.Sprintf("user_%d", i),
			fmt.Sprintf("Message %d", i),
			nil,
			now.Add(time.Duration(i)*time.Minute),
		)))
	}

	// Page 1: the four newest
	page1, cursor1, err := repo.RecentMessages(ctx, domain.GlobalRoom, nil)
	req.NoError(err)
	req.Len(page1, 4)
	req.Equal("user_10", page1[0].AuthorID)
	req.Equal("user_7", page1[3].AuthorID)
	req.NotEmpty(cursor1)

	// Page 2: continues without duplication
	page2, cursor2, err := repo.RecentMessages(ctx, domain.GlobalRoom, cursor1)
	req.NoError(err)
	req.Len(page2, 4)
	req.Equal("user_6", page2[0].AuthorID)
	req.Equal("user_3", page2[3].AuthorID)

	// Page 3: the remainder, then nothing
	page3, cursor3, err := repo.RecentMessages(ctx, domain.GlobalRoom, cursor2)
	req.NoError(err)
	req.Len(page3, 2)
	req.Equal("user_2", page3[0].AuthorID)

	page4, _, err := repo.RecentMessages(ctx, domain.GlobalRoom, cursor3)
	req.NoError(err)
	req.Empty(page4)
}

func TestMessageRepository_ReactionsSurviveTheRoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	message := messageAt("alice", "hello", nil, time.Now().UTC())
	req.NoError(repo.InsertMessage(ctx, message))

	fetched, _, err := repo.RecentMessages(ctx, domain.GlobalRoom, nil)
	req.NoError(err)
	req.Len(fetched, 1)
	// Created empty, read back empty, never nil
	req.NotNil(fetched[0].Reactions)
	req.Empty(fetched[0].Reactions)
}

package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillPublisher_Publish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "assessment-events")
	require.NoError(t, err)

	publisher := newWatermillPublisher(pubSub, "assessment-events", nopLogger())

	sessionID := uuid.New()
	pct := 75
	event := NewSessionGradedEvent(sessionID, 1.5, 2, &pct, []int{1})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventSessionGraded), msg.Metadata.Get("event_type"))
		assert.Equal(t, eventSource, msg.Metadata.Get("source"))

		var decoded struct {
			Type EventType          `json:"type"`
			Data SessionGradedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventSessionGraded, decoded.Type)
		assert.Equal(t, sessionID.String(), decoded.Data.SessionID)
		assert.Equal(t, 1.5, decoded.Data.Correct)
		require.NotNil(t, decoded.Data.Percentage)
		assert.Equal(t, 75, *decoded.Data.Percentage)
		assert.Equal(t, []int{1}, decoded.Data.Fallbacks)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestMockEventPublisher_ConcurrentPublish(t *testing.T) {
	publisher := NewMockEventPublisher(nopLogger())
	sessionID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = publisher.Publish(context.Background(), NewGradingFallbackEvent(sessionID, i, "q"))
		}(i)
	}
	wg.Wait()

	assert.Len(t, publisher.GetPublishedEvents(), 20)
	assert.Len(t, publisher.EventsOfType(EventGradingFallback), 20)
	assert.Empty(t, publisher.EventsOfType(EventSessionGraded))

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestEventConstructors(t *testing.T) {
	sessionID := uuid.New()
	quizID := uuid.New()

	configured := NewSessionConfiguredEvent(sessionID, &quizID, 3)
	assert.Equal(t, EventSessionConfigured, configured.Type)
	assert.Equal(t, eventVersion, configured.Version)
	_, err := uuid.Parse(configured.ID)
	assert.NoError(t, err)
	data := configured.Data.(SessionConfiguredEvent)
	require.NotNil(t, data.QuizID)
	assert.Equal(t, quizID.String(), *data.QuizID)

	adhoc := NewSessionConfiguredEvent(sessionID, nil, 0)
	assert.Nil(t, adhoc.Data.(SessionConfiguredEvent).QuizID)

	graded := NewSessionGradedEvent(sessionID, 0, 0, nil, nil)
	assert.True(t, graded.Data.(SessionGradedEvent).NoQuestions)

	reset := NewSessionResetEvent(sessionID, "grading")
	assert.Equal(t, "grading", reset.Data.(SessionResetEvent).PreviousState)

	submitted := NewSessionSubmittedEvent(sessionID, 4, 2)
	assert.Equal(t, 2, submitted.Data.(SessionSubmittedEvent).Answered)

	assert.NotEqual(t, configured.ID, adhoc.ID)
}

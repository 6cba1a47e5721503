package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_Notify(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := NewLogNotifier(zap.New(core))

	userID := uuid.New()
	err := notifier.Notify(context.Background(), userID, "Trade completed", "Trade A1B2C3D4 settled")

	assert.NoError(t, err)
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, userID.String(), fields["user_id"])
		assert.Equal(t, "Trade completed", fields["subject"])
		assert.Equal(t, "Trade A1B2C3D4 settled", fields["body"])
	}
}

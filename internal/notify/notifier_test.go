package notify_test

import (
	"context"
	"testing"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLogNotifier_NeverFails(t *testing.T) {
	n := notify.NewLogNotifier(zap.NewNop())
	err := n.NotifyMatch(context.Background(), &domain.Match{ID: "m1", ApplicantID: "a1", JobID: "j1"})
	assert.NoError(t, err)
}

func TestNotifiers_ImplementMatchNotifier(t *testing.T) {
	var _ domain.MatchNotifier = notify.NewRedisNotifier(nil, "", nil)
	var _ domain.MatchNotifier = notify.NewLogNotifier(nil)
}

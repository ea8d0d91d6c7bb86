package conn

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/persist"
	"github.com/openmmo/realmd/internal/session"
)

func TestRequireAuthenticatedRejectsUnauthenticatedSession(t *testing.T) {
	sess := session.New(4, 10, 5)
	log := zap.NewNop()

	if requireAuthenticated(sess, log) {
		t.Fatal("expected unauthenticated session to fail the check")
	}

	select {
	case env := <-sess.Outbound:
		if string(env.Tag) != "error" {
			t.Fatalf("expected an error envelope, got tag %q", env.Tag)
		}
	default:
		t.Fatal("expected an error envelope to be queued")
	}
}

func TestRequireAuthenticatedAcceptsAuthenticatedSession(t *testing.T) {
	sess := session.New(4, 10, 5)
	accountID := uuid.New()
	sess.Authenticate(accountID, 0, nil)

	if !requireAuthenticated(sess, zap.NewNop()) {
		t.Fatal("expected authenticated session to pass the check")
	}
}

func TestToSummaryMapsDurableIDToSessionSyntheticID(t *testing.T) {
	sess := session.New(4, 10, 5)
	row := persist.CharacterRow{ID: uuid.New(), Name: "Arden", Class: "warrior", ZoneID: "zone-1"}

	first := toSummary(sess, row)
	second := toSummary(sess, row)

	if first.CharacterID != second.CharacterID {
		t.Fatal("expected the same durable id to map to a stable synthetic id")
	}
	if first.Name != "Arden" || first.Class != "warrior" || first.ZoneID != "zone-1" {
		t.Fatal("expected summary fields to mirror the character row")
	}
}

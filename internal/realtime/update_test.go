package realtime

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUpdateMarshalOmitsUnsetIdentifiers(t *testing.T) {
	raw, err := json.Marshal(stamp(Update{Type: UpdateTypeDashboard, Data: map[string]any{"total_tickets_sold": 3}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, key := range []string{"eventId", "ticketId", "eventType"} {
		if strings.Contains(body, key) {
			t.Fatalf("dashboard update should not carry %q: %s", key, body)
		}
	}
	if !strings.Contains(body, `"timestamp"`) {
		t.Fatalf("expected timestamp in %s", body)
	}
}

func TestUpdateMarshalKeepsSetIdentifiers(t *testing.T) {
	ticketID := uuid.New()
	raw, err := json.Marshal(stamp(Update{
		Type:      UpdateTypeTicket,
		TicketID:  ticketID,
		EventType: ChangePurchased,
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"ticketId":"`+ticketID.String()+`"`) {
		t.Fatalf("expected ticketId in %s", body)
	}
	if strings.Contains(body, "eventId") {
		t.Fatalf("unset eventId should be omitted: %s", body)
	}
}

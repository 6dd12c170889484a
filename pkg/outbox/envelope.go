package outbox

import (
	"encoding/json"
	"fmt"

	"malladmin/pkg/util"
)

// Envelope is the message body published for every outbox event. EventID
// lets consumers deduplicate redeliveries.
type Envelope struct {
	EventID    int64           `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	Payload    json.RawMessage `json:"payload"`
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a message body and unmarshals its payload into out.
func DecodeEnvelope(data []byte, out any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventID == 0 {
		return env, util.Permanent(fmt.Errorf("decode envelope: missing event_id"))
	}
	if out != nil {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return env, fmt.Errorf("decode %s payload: %w", env.RoutingKey, err)
		}
	}
	return env, nil
}

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ps2-census/census-stream/pkg/census"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    frameKind
		wantErr error
	}{
		{"Heartbeat", `{"online":{},"service":"event","type":"heartbeat"}`, frameHeartbeat, nil},
		{"ServiceState", `{"detail":"x","online":"true","service":"event","type":"serviceStateChanged"}`, frameServiceState, nil},
		{"ConnectionState", `{"connected":"true","service":"push","type":"connectionStateChanged"}`, frameConnectionState, nil},
		{"ServiceMessage", `{"payload":{},"service":"event","type":"serviceMessage"}`, frameServiceMessage, nil},
		{"AckSubscribe", `{"subscribe":{"eventNames":[]}}`, frameAck, nil},
		{"AckSubscription", `{"subscription":{"eventNames":[]}}`, frameAck, nil},
		{"Help", `{"send this for help":{"service":"event","action":"help"}}`, frameHelp, nil},
		{"UnknownType", `{"type":"weird"}`, frameUnknownType, census.ErrProtocol},
		{"NonStringTypeWithAck", `{"type":5,"subscription":{}}`, frameAck, nil},
		{"Unrecognised", `{"foo":"bar"}`, frameUnrecognized, census.ErrProtocol},
		{"InvalidJSON", `{`, frameInvalid, census.ErrProtocol},
		{"NotAnObject", `[1,2]`, frameInvalid, census.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, err := classify([]byte(tt.frame))
			assert.Equal(t, tt.want, kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

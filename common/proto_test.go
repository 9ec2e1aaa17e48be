package common

import (
	"encoding/json"
	"testing"
)

func TestMessageTypeJSONRoundTrip(t *testing.T) {
	for msgType := MsgTError; msgType <= MsgTPut; msgType++ {
		data, err := json.Marshal(msgType)
		if err != nil {
			t.Fatalf("Failed to marshal %s: %v", msgType, err)
		}

		var result MessageType
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("Failed to unmarshal %s: %v", data, err)
		}

		if result != msgType {
			t.Errorf("Round trip of %s returned %s", msgType, result)
		}
	}

	// Unknown type names must be rejected
	var result MessageType
	if err := json.Unmarshal([]byte(`"bogus"`), &result); err == nil {
		t.Error("Expected error for unknown message type name")
	}
}

func TestMessageIsError(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"success response", *NewPutResponse("k"), false},
		{"error type", *NewErrorResponse(ErrCodeInternal, "boom"), true},
		{"error code only", Message{MsgType: MsgTGet, ErrCode: ErrCodeNotFound}, true},
		{"error text only", Message{MsgType: MsgTGet, Err: "boom"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.IsError(); got != tt.want {
				t.Errorf("IsError() = %v, want %v", got, tt.want)
			}
		})
	}
}

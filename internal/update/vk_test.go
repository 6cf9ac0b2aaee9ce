package update

import (
	"errors"
	"testing"

	"github.com/nextlevelbuilder/topicbridge/internal/store"
)

func TestFromVK(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEvent EventKind
		wantChat  string
		wantErr   error
	}{
		{
			"new message",
			`{"type":"message_new","object":{"message":{"id":12,"peer_id":777,"text":"privet"}}}`,
			EventMessage, "777", nil,
		},
		{
			"edited message",
			`{"type":"message_edit","object":{"message":{"id":12,"peer_id":777,"text":"privet!"}}}`,
			EventEditedMessage, "777", nil,
		},
		{
			"unrelated event type",
			`{"type":"group_join","object":{}}`,
			EventUnknown, "", nil,
		},
		{
			"missing peer",
			`{"type":"message_new","object":{"message":{"id":12,"text":"x"}}}`,
			"", "", ErrMalformedPayload,
		},
		{
			"broken json",
			`{"type":`,
			"", "", ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromVK([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if u.Event != tt.wantEvent {
				t.Errorf("Event = %q, want %q", u.Event, tt.wantEvent)
			}
			if u.ChatID != tt.wantChat {
				t.Errorf("ChatID = %q, want %q", u.ChatID, tt.wantChat)
			}
			if u.Platform != store.PlatformVK {
				t.Errorf("Platform = %q, want vk", u.Platform)
			}
			if u.Source != SourceDirect {
				t.Errorf("Source = %q, want direct", u.Source)
			}
		})
	}
}

func TestFromExternal(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEvent EventKind
		wantErr   error
	}{
		{
			"message",
			`{"event":"message","chat_id":"c1","message_id":"m1","sender":"Kim","text":"hey"}`,
			EventMessage, nil,
		},
		{
			"edited message",
			`{"event":"edited_message","chat_id":"c1","message_id":"m1","text":"hey!"}`,
			EventEditedMessage, nil,
		},
		{
			"unknown event",
			`{"event":"typing","chat_id":"c1"}`,
			EventUnknown, nil,
		},
		{
			"missing ids",
			`{"event":"message","text":"hey"}`,
			"", ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromExternal([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if u.Event != tt.wantEvent {
				t.Errorf("Event = %q, want %q", u.Event, tt.wantEvent)
			}
			if u.Platform != store.PlatformExternal {
				t.Errorf("Platform = %q, want external", u.Platform)
			}
		})
	}
}

package update

import (
	"errors"
	"testing"

	"github.com/mymmrac/telego"
)

func TestFromTelegram_Sources(t *testing.T) {
	tests := []struct {
		name       string
		chat       telego.Chat
		threadID   int
		wantSource SourceKind
		wantThread int
	}{
		{"private chat", telego.Chat{ID: 100, Type: "private"}, 0, SourceDirect, 0},
		{"forum supergroup", telego.Chat{ID: -100200, Type: "supergroup", IsForum: true}, 77, SourceThreadedGroup, 77},
		{"plain supergroup", telego.Chat{ID: -100200, Type: "supergroup"}, 77, SourceOther, 0},
		{"basic group", telego.Chat{ID: -300, Type: "group"}, 0, SourceOther, 0},
		{"channel", telego.Chat{ID: -400, Type: "channel"}, 0, SourceOther, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromTelegram(telego.Update{
				Message: &telego.Message{
					MessageID:       5,
					Chat:            tt.chat,
					MessageThreadID: tt.threadID,
					Text:            "hi",
				},
			})
			if err != nil {
				t.Fatal(err)
			}
			if u.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", u.Source, tt.wantSource)
			}
			if u.ThreadID != tt.wantThread {
				t.Errorf("ThreadID = %d, want %d", u.ThreadID, tt.wantThread)
			}
			if u.Platform != "" {
				t.Errorf("Platform = %q, want empty (resolved later)", u.Platform)
			}
		})
	}
}

func TestFromTelegram_EditedMessage(t *testing.T) {
	u, err := FromTelegram(telego.Update{
		EditedMessage: &telego.Message{
			MessageID: 9,
			Chat:      telego.Chat{ID: 100, Type: "private"},
			Text:      "fixed typo",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Event != EventEditedMessage {
		t.Errorf("Event = %q, want edited_message", u.Event)
	}
	if u.MessageID != "9" {
		t.Errorf("MessageID = %q", u.MessageID)
	}
}

func TestFromTelegram_UnknownShape(t *testing.T) {
	// An update with neither message nor edited_message (callback query,
	// member update) normalizes to the unknown event, not an error.
	u, err := FromTelegram(telego.Update{UpdateID: 3})
	if err != nil {
		t.Fatal(err)
	}
	if u.Event != EventUnknown {
		t.Errorf("Event = %q, want unknown", u.Event)
	}
}

func TestFromTelegram_MissingChat(t *testing.T) {
	_, err := FromTelegram(telego.Update{
		Message: &telego.Message{MessageID: 1, Text: "hi"},
	})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestFromTelegram_Sender(t *testing.T) {
	tests := []struct {
		name     string
		from     *telego.User
		wantName string
		wantBot  bool
	}{
		{"full name", &telego.User{FirstName: "Ann", LastName: "Lee"}, "Ann Lee", false},
		{"first only", &telego.User{FirstName: "Ann"}, "Ann", false},
		{"username fallback", &telego.User{Username: "ann42"}, "@ann42", false},
		{"bot sender", &telego.User{FirstName: "relay", IsBot: true}, "relay", true},
		{"no sender", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := FromTelegram(telego.Update{
				Message: &telego.Message{
					MessageID: 1,
					Chat:      telego.Chat{ID: 5, Type: "private"},
					From:      tt.from,
					Text:      "x",
				},
			})
			if err != nil {
				t.Fatal(err)
			}
			if u.SenderName != tt.wantName {
				t.Errorf("SenderName = %q, want %q", u.SenderName, tt.wantName)
			}
			if u.FromBot != tt.wantBot {
				t.Errorf("FromBot = %v, want %v", u.FromBot, tt.wantBot)
			}
		})
	}
}

func TestFromTelegram_PayloadClassification(t *testing.T) {
	tests := []struct {
		name       string
		msg        telego.Message
		wantKind   PayloadKind
		wantFileID string
	}{
		{
			"photo picks the largest size",
			telego.Message{
				Photo:   []telego.PhotoSize{{FileID: "small"}, {FileID: "big"}},
				Caption: "look",
			},
			KindPhoto, "big",
		},
		{
			"document",
			telego.Message{Document: &telego.Document{FileID: "doc1"}},
			KindDocument, "doc1",
		},
		{
			"location",
			telego.Message{Location: &telego.Location{Latitude: 1.5, Longitude: 2.5}},
			KindLocation, "",
		},
		{
			"voice",
			telego.Message{Voice: &telego.Voice{FileID: "v1"}},
			KindVoice, "v1",
		},
		{
			"sticker",
			telego.Message{Sticker: &telego.Sticker{FileID: "s1"}},
			KindSticker, "s1",
		},
		{
			"video note",
			telego.Message{VideoNote: &telego.VideoNote{FileID: "vn1"}},
			KindVideoNote, "vn1",
		},
		{
			"plain text",
			telego.Message{Text: "hello"},
			KindText, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			msg.MessageID = 1
			msg.Chat = telego.Chat{ID: 5, Type: "private"}

			u, err := FromTelegram(telego.Update{Message: &msg})
			if err != nil {
				t.Fatal(err)
			}
			if u.Payload.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", u.Payload.Kind, tt.wantKind)
			}
			if u.Payload.FileID != tt.wantFileID {
				t.Errorf("FileID = %q, want %q", u.Payload.FileID, tt.wantFileID)
			}
		})
	}
}

func TestFromTelegram_ContactPayload(t *testing.T) {
	u, err := FromTelegram(telego.Update{
		Message: &telego.Message{
			MessageID: 1,
			Chat:      telego.Chat{ID: 5, Type: "private"},
			Contact:   &telego.Contact{FirstName: "Bob", LastName: "Ray", PhoneNumber: "+100"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Payload.Kind != KindContact {
		t.Fatalf("Kind = %q", u.Payload.Kind)
	}
	if u.Payload.ContactName != "Bob Ray" || u.Payload.ContactPhone != "+100" {
		t.Errorf("contact = %q %q", u.Payload.ContactName, u.Payload.ContactPhone)
	}
}

func TestFromTelegram_Flags(t *testing.T) {
	base := func() *telego.Message {
		return &telego.Message{
			MessageID: 1,
			Chat:      telego.Chat{ID: -100, Type: "supergroup", IsForum: true},
		}
	}

	t.Run("topic edited notice", func(t *testing.T) {
		msg := base()
		msg.ForumTopicEdited = &telego.ForumTopicEdited{Name: "renamed"}
		u, err := FromTelegram(telego.Update{Message: msg})
		if err != nil {
			t.Fatal(err)
		}
		if !u.Flags.TopicEdited {
			t.Error("TopicEdited not set")
		}
	})

	t.Run("ai draft marked as tech", func(t *testing.T) {
		msg := base()
		msg.Text = AIDraftPrefix + "\nsuggested reply"
		u, err := FromTelegram(telego.Update{Message: msg})
		if err != nil {
			t.Fatal(err)
		}
		if !u.Flags.AITech {
			t.Error("AITech not set for draft prefix")
		}
	})

	t.Run("edit trigger marked as tech", func(t *testing.T) {
		msg := base()
		msg.Text = "please ai_message_edit_ make it shorter"
		u, err := FromTelegram(telego.Update{Message: msg})
		if err != nil {
			t.Fatal(err)
		}
		if !u.Flags.AITech {
			t.Error("AITech not set for edit trigger")
		}
	})

	t.Run("ordinary text unflagged", func(t *testing.T) {
		msg := base()
		msg.Text = "hello"
		u, err := FromTelegram(telego.Update{Message: msg})
		if err != nil {
			t.Fatal(err)
		}
		if u.Flags.AITech || u.Flags.TopicEdited || u.Flags.PinnedNotice {
			t.Errorf("unexpected flags: %+v", u.Flags)
		}
	})
}

func TestFromTelegram_CaptionAsText(t *testing.T) {
	u, err := FromTelegram(telego.Update{
		Message: &telego.Message{
			MessageID: 1,
			Chat:      telego.Chat{ID: 5, Type: "private"},
			Photo:     []telego.PhotoSize{{FileID: "p"}},
			Caption:   "caption text",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Text != "caption text" {
		t.Errorf("Text = %q, want caption", u.Text)
	}
	if u.Payload.Caption != "caption text" {
		t.Errorf("Payload.Caption = %q", u.Payload.Caption)
	}
}

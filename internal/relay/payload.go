package relay

import (
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// SendRequest is the platform-neutral description of one outbound send. The
// receiving client maps it onto its own API; only addressing and the payload
// tag vary between directions.
type SendRequest struct {
	ChatID   string
	ThreadID int

	Kind         update.PayloadKind
	Text         string
	Caption      string
	FileID       string
	Latitude     float64
	Longitude    float64
	ContactName  string
	ContactPhone string
}

// buildSendRequest constructs send parameters for a normalized update
// addressed at (chatID, threadID). One builder for every payload kind; the
// variants differ only in which payload fields they carry.
func buildSendRequest(u *update.Update, chatID string, threadID int) SendRequest {
	req := SendRequest{
		ChatID:   chatID,
		ThreadID: threadID,
		Kind:     u.Payload.Kind,
	}

	switch u.Payload.Kind {
	case update.KindText:
		req.Text = u.Payload.Text
	case update.KindLocation:
		req.Latitude = u.Payload.Latitude
		req.Longitude = u.Payload.Longitude
	case update.KindContact:
		req.ContactName = u.Payload.ContactName
		req.ContactPhone = u.Payload.ContactPhone
	default:
		// photo, document, voice, sticker, video note: forwarded by file id
		req.FileID = u.Payload.FileID
		req.Caption = u.Payload.Caption
	}
	return req
}

package telegram

import "testing"

func TestSendThreadID(t *testing.T) {
	tests := []struct {
		name     string
		threadID int
		want     int
	}{
		{"regular topic", 42, 42},
		{"general topic must be omitted", generalTopicID, 0},
		{"no topic", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sendThreadID(tt.threadID); got != tt.want {
				t.Errorf("sendThreadID(%d) = %d, want %d", tt.threadID, got, tt.want)
			}
		})
	}
}

func TestParseChatID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12345", 12345, false},
		{"-1001234567890", -1001234567890, false},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseChatID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseChatID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseChatID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

package vk

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/topicbridge/internal/relay"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

func TestSend(t *testing.T) {
	var gotMethod string
	var gotParams url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = strings.TrimPrefix(r.URL.Path, "/")
		body, _ := io.ReadAll(r.Body)
		gotParams, _ = url.ParseQuery(string(body))
		io.WriteString(w, `{"response":12345}`)
	}))
	defer srv.Close()

	c := New("tok", srv.URL)
	id, err := c.Send(context.Background(), relay.SendRequest{
		ChatID: "900",
		Kind:   update.KindText,
		Text:   "privet",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "12345" {
		t.Errorf("message id = %q, want 12345", id)
	}
	if gotMethod != "messages.send" {
		t.Errorf("method = %q", gotMethod)
	}
	if gotParams.Get("peer_id") != "900" || gotParams.Get("message") != "privet" {
		t.Errorf("params = %v", gotParams)
	}
	if gotParams.Get("random_id") == "" {
		t.Error("random_id missing")
	}
	if gotParams.Get("access_token") != "tok" || gotParams.Get("v") != apiVersion {
		t.Errorf("auth params = %v", gotParams)
	}
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":{"error_code":901,"error_msg":"cannot message this user"}}`)
	}))
	defer srv.Close()

	c := New("tok", srv.URL)
	_, err := c.Send(context.Background(), relay.SendRequest{
		ChatID: "900", Kind: update.KindText, Text: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "901") {
		t.Errorf("err = %v, want api error 901", err)
	}
}

func TestEditText(t *testing.T) {
	var gotMethod string
	var gotParams url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = strings.TrimPrefix(r.URL.Path, "/")
		body, _ := io.ReadAll(r.Body)
		gotParams, _ = url.ParseQuery(string(body))
		io.WriteString(w, `{"response":1}`)
	}))
	defer srv.Close()

	c := New("tok", srv.URL)
	if err := c.EditText(context.Background(), "900", "12345", "privet!"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != "messages.edit" {
		t.Errorf("method = %q", gotMethod)
	}
	if gotParams.Get("message_id") != "12345" || gotParams.Get("message") != "privet!" {
		t.Errorf("params = %v", gotParams)
	}
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		req  relay.SendRequest
		want string
	}{
		{"text", relay.SendRequest{Kind: update.KindText, Text: "hi"}, "hi"},
		{
			"location becomes a maps link",
			relay.SendRequest{Kind: update.KindLocation, Latitude: 1, Longitude: 2},
			"Location: https://maps.google.com/?q=1.000000,2.000000",
		},
		{
			"contact",
			relay.SendRequest{Kind: update.KindContact, ContactName: "Bob", ContactPhone: "+1"},
			"Contact: Bob +1",
		},
		{
			"media with caption",
			relay.SendRequest{Kind: update.KindPhoto, Caption: "see"},
			"[photo] see",
		},
		{
			"media without caption",
			relay.SendRequest{Kind: update.KindVoice},
			"[voice attachment — see the original chat]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderText(tt.req); got != tt.want {
				t.Errorf("renderText() = %q, want %q", got, tt.want)
			}
		})
	}
}

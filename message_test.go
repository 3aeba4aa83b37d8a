package mdview_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/mdview"
)

func TestDecodeMessage_UpdateHeight(t *testing.T) {
	t.Parallel()
	evt, err := mdview.DecodeMessage(mdview.NewHeightMessage(412.5))
	require.NoError(t, err)
	assert.Equal(t, mdview.EventHeightUpdated{Height: 412.5}, evt)
}

func TestDecodeMessage_DetailsToggled(t *testing.T) {
	t.Parallel()
	evt, err := mdview.DecodeMessage(mdview.NewDetailsToggledMessage("r1", true, 120))
	require.NoError(t, err)
	assert.Equal(t, mdview.EventDetailsToggled{RegionID: "r1", Open: true, InnerHeight: 120}, evt)
}

func TestDecodeMessage_LinkActivated(t *testing.T) {
	t.Parallel()
	evt, err := mdview.DecodeMessage(mdview.NewLinkActivatedMessage("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, mdview.EventLinkActivated{URL: "https://example.com"}, evt)
}

func TestDecodeMessage_Malformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		msg  mdview.Message
	}{
		{"unknown kind", mdview.Message{Kind: "resize", Body: json.RawMessage(`{}`)}},
		{"empty kind", mdview.Message{}},
		{"height missing field", mdview.Message{Kind: mdview.KindUpdateHeight, Body: json.RawMessage(`{}`)}},
		{"height invalid json", mdview.Message{Kind: mdview.KindUpdateHeight, Body: json.RawMessage(`{`)}},
		{"details missing open", mdview.Message{Kind: mdview.KindDetailsToggled, Body: json.RawMessage(`{"region_id":"r1","inner_height":10}`)}},
		{"details missing region", mdview.Message{Kind: mdview.KindDetailsToggled, Body: json.RawMessage(`{"open":true,"inner_height":10}`)}},
		{"details missing inner height", mdview.Message{Kind: mdview.KindDetailsToggled, Body: json.RawMessage(`{"region_id":"r1","open":true}`)}},
		{"link missing url", mdview.Message{Kind: mdview.KindLinkActivated, Body: json.RawMessage(`{}`)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := mdview.DecodeMessage(tt.msg)
			assert.ErrorIs(t, err, mdview.ErrMalformedMessage)
		})
	}
}

func TestEventTypeSwitch_Exhaustive(t *testing.T) {
	t.Parallel()
	events := []mdview.Event{
		mdview.EventHeightUpdated{Height: 10},
		mdview.EventDetailsToggled{RegionID: "r1", Open: true, InnerHeight: 5},
		mdview.EventLinkActivated{URL: "https://example.com"},
	}
	for _, e := range events {
		switch e.(type) {
		case mdview.EventHeightUpdated, mdview.EventDetailsToggled, mdview.EventLinkActivated:
		default:
			t.Fatalf("unhandled event type %T", e)
		}
	}
}

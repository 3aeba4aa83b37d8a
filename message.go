package mdview

import (
	"encoding/json"
	"fmt"
)

// Message kinds carried over the document-to-host channel.
const (
	KindUpdateHeight   = "updateHeight"
	KindDetailsToggled = "detailsToggled"
	KindLinkActivated  = "linkActivated"
)

// Message is the wire envelope for document-to-host event delivery.
// Kind is the discriminator for the payload carried in Body.
type Message struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// heightDTO is the JSON payload of an updateHeight message.
type heightDTO struct {
	Height *float64 `json:"height"`
}

// detailsDTO is the JSON payload of a detailsToggled message.
type detailsDTO struct {
	RegionID    *string  `json:"region_id"`
	Open        *bool    `json:"open"`
	InnerHeight *float64 `json:"inner_height"`
}

// linkDTO is the JSON payload of a linkActivated message.
type linkDTO struct {
	URL *string `json:"url"`
}

// NewHeightMessage builds an updateHeight message.
func NewHeightMessage(height float64) Message {
	return Message{Kind: KindUpdateHeight, Body: mustBody(heightDTO{Height: &height})}
}

// NewDetailsToggledMessage builds a detailsToggled message.
func NewDetailsToggledMessage(regionID string, open bool, innerHeight float64) Message {
	return Message{Kind: KindDetailsToggled, Body: mustBody(detailsDTO{
		RegionID:    &regionID,
		Open:        &open,
		InnerHeight: &innerHeight,
	})}
}

// NewLinkActivatedMessage builds a linkActivated message.
func NewLinkActivatedMessage(url string) Message {
	return Message{Kind: KindLinkActivated, Body: mustBody(linkDTO{URL: &url})}
}

func mustBody(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// DTOs contain only marshalable fields.
		panic(err)
	}
	return b
}

// DecodeMessage decodes a wire message into its Event. A message with an
// unknown kind or missing required fields fails with ErrMalformedMessage;
// callers drop such messages without mutating any state.
func DecodeMessage(msg Message) (Event, error) {
	switch msg.Kind {
	case KindUpdateHeight:
		var dto heightDTO
		if err := json.Unmarshal(msg.Body, &dto); err != nil {
			return nil, fmt.Errorf("updateHeight body: %v: %w", err, ErrMalformedMessage)
		}
		if dto.Height == nil {
			return nil, fmt.Errorf("updateHeight missing height: %w", ErrMalformedMessage)
		}
		return EventHeightUpdated{Height: *dto.Height}, nil

	case KindDetailsToggled:
		var dto detailsDTO
		if err := json.Unmarshal(msg.Body, &dto); err != nil {
			return nil, fmt.Errorf("detailsToggled body: %v: %w", err, ErrMalformedMessage)
		}
		if dto.RegionID == nil || dto.Open == nil || dto.InnerHeight == nil {
			return nil, fmt.Errorf("detailsToggled missing fields: %w", ErrMalformedMessage)
		}
		return EventDetailsToggled{
			RegionID:    *dto.RegionID,
			Open:        *dto.Open,
			InnerHeight: *dto.InnerHeight,
		}, nil

	case KindLinkActivated:
		var dto linkDTO
		if err := json.Unmarshal(msg.Body, &dto); err != nil {
			return nil, fmt.Errorf("linkActivated body: %v: %w", err, ErrMalformedMessage)
		}
		if dto.URL == nil {
			return nil, fmt.Errorf("linkActivated missing url: %w", ErrMalformedMessage)
		}
		return EventLinkActivated{URL: *dto.URL}, nil

	default:
		return nil, fmt.Errorf("unknown message kind %q: %w", msg.Kind, ErrMalformedMessage)
	}
}

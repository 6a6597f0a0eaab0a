// Package message classifies a decoded Push Port document and extracts its
// envelope: kind, timestamp, update origin and update body.
package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/travigo/pushport/pkg/pushport/failure"
	"github.com/travigo/pushport/pkg/pushport/xmltree"
)

type Envelope struct {
	Kind      Kind
	Timestamp time.Time

	// Origin is the updateOrigin attribute, such as "CIS", "Darwin" or "TD".
	Origin string

	// Snapshot is set for sR bodies rather than uR updates.
	Snapshot bool

	// Body is the uR or sR element.
	Body xmltree.Tree
}

// Classify validates the type tag and the Pport envelope of a decoded
// document. The envelope's own ts attribute wins over fallbackTimestamp.
func Classify(typeTag string, root xmltree.Tree, fallbackTimestamp string) (Envelope, error) {
	kind, err := ParseKind(typeTag)
	if err != nil {
		return Envelope{}, err
	}

	pport, body, snapshot, err := unwrap(root)
	if err != nil {
		return Envelope{}, err
	}

	rawTimestamp, ok := pport.Attr("ts")
	if !ok || rawTimestamp == "" {
		rawTimestamp = fallbackTimestamp
	}
	if rawTimestamp == "" {
		return Envelope{}, fmt.Errorf("no ts attribute or transport timestamp: %w", failure.ErrMalformedEnvelope)
	}

	timestamp, err := ParseTimestamp(rawTimestamp)
	if err != nil {
		return Envelope{}, fmt.Errorf("%v: %w", err, failure.ErrMalformedEnvelope)
	}

	if !kind.accepts(body) {
		return Envelope{}, fmt.Errorf("%s message has none of %s: %w", kind, strings.Join(kind.Containers(), ", "), failure.ErrMalformedEnvelope)
	}

	return Envelope{
		Kind:      kind,
		Timestamp: timestamp,
		Origin:    body.AttrOr("updateOrigin", ""),
		Snapshot:  snapshot,
		Body:      body,
	}, nil
}

// InferKind picks the kind from the containers present in the body, for
// captured payloads that arrive without a type tag.
func InferKind(root xmltree.Tree) (Kind, error) {
	_, body, _, err := unwrap(root)
	if err != nil {
		return "", err
	}

	for _, kind := range Kinds {
		if kind.accepts(body) {
			return kind, nil
		}
	}

	return "", fmt.Errorf("body elements %v: %w", body.Elements(), failure.ErrUnknownMessageKind)
}

func unwrap(root xmltree.Tree) (pport xmltree.Tree, body xmltree.Tree, snapshot bool, err error) {
	pport, ok, err := root.Node("Pport")
	if err != nil {
		return nil, nil, false, fmt.Errorf("%v: %w", err, failure.ErrMalformedEnvelope)
	}
	if !ok {
		return nil, nil, false, fmt.Errorf("no Pport element: %w", failure.ErrMalformedEnvelope)
	}

	body, ok, err = pport.Node("uR")
	if !ok && err == nil {
		body, ok, err = pport.Node("sR")
		snapshot = ok
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("%v: %w", err, failure.ErrMalformedEnvelope)
	}
	if !ok {
		return nil, nil, false, fmt.Errorf("no uR or sR element: %w", failure.ErrMalformedEnvelope)
	}

	return pport, body, snapshot, nil
}

const timestampLayout = "2006-01-02T15:04:05"

var errTimestamp = errors.New("invalid timestamp")

// ParseTimestamp reads an ISO-8601 date-time, dropping fractional seconds.
// A trailing Z or numeric offset is kept; without one the time is UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(timestampLayout) {
		return time.Time{}, fmt.Errorf("%q: %w", value, errTimestamp)
	}

	base, rest := value[:len(timestampLayout)], value[len(timestampLayout):]
	if strings.HasPrefix(rest, ".") {
		rest = strings.TrimLeft(rest[1:], "0123456789")
	}

	var timestamp time.Time
	var err error
	if rest == "" {
		timestamp, err = time.Parse(timestampLayout, base)
	} else {
		timestamp, err = time.Parse(timestampLayout+"Z07:00", base+rest)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %v: %w", value, err, errTimestamp)
	}

	return timestamp, nil
}

// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEmotion is returned when a label does not name one of the four emotions.
var ErrUnknownEmotion = errors.New("unknown emotion")

// Emotion is one of the four fixed classification labels.
// The numeric value doubles as the index into ScoreMap and model probability vectors.
type Emotion int

// Labels in their stable iteration order. Ties always resolve to the earliest label.
const (
	Happy Emotion = iota
	Sad
	Calm
	Stressed
)

// NumEmotions is the number of labels a ScoreMap or probability vector carries.
const NumEmotions = 4

var emotionNames = [NumEmotions]string{"Happy", "Sad", "Calm", "Stressed"}

// Emotions returns all labels in stable order.
func Emotions() [NumEmotions]Emotion {
	return [NumEmotions]Emotion{Happy, Sad, Calm, Stressed}
}

// Valid reports whether e is one of the four labels.
func (e Emotion) Valid() bool {
	return e >= Happy && e <= Stressed
}

func (e Emotion) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Emotion(%d)", int(e))
	}
	return emotionNames[e]
}

// MarshalText encodes the emotion as its label.
func (e Emotion) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEmotion, int(e))
	}
	return []byte(emotionNames[e]), nil
}

// UnmarshalText decodes a label (case-insensitive).
func (e *Emotion) UnmarshalText(b []byte) error {
	parsed, err := ParseEmotion(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEmotion maps a label such as "calm" or "Stressed" to its Emotion.
func ParseEmotion(s string) (Emotion, error) {
	s = strings.TrimSpace(s)
	for i, name := range emotionNames {
		if strings.EqualFold(name, s) {
			return Emotion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEmotion, s)
}

// Package i18n negotiates the response language and translates client-facing
// messages. English strings double as catalog keys, so an untranslated
// message falls back to its English form.
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	English = language.English
	Persian = language.Persian
)

var supported = []language.Tag{English, Persian}

var matcher = language.NewMatcher(supported)

type contextKey struct{}

func init() {
	for key, fa := range persian {
		if err := message.SetString(Persian, key, fa); err != nil {
			panic(fmt.Sprintf("register message %q: %v", key, err))
		}
	}
	for key := range persian {
		if err := message.SetString(English, key, key); err != nil {
			panic(fmt.Sprintf("register message %q: %v", key, err))
		}
	}
}

// Parse resolves a locale name such as "fa" or "en-US" to a supported tag.
func Parse(raw string, fallback language.Tag) language.Tag {
	tag, err := language.Parse(raw)
	if err != nil {
		return fallback
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return fallback
	}
	return supported[index]
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string, fallback language.Tag) language.Tag {
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supported[index]
}

func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(contextKey{}).(language.Tag); ok {
		return tag
	}
	return English
}

// T translates key into the request's language, formatting args into it.
func T(ctx context.Context, key string, args ...any) string {
	return message.NewPrinter(FromContext(ctx)).Sprintf(key, args...)
}

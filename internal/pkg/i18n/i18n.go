package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// Translator resolves message ids against the embedded English and Indonesian catalogs.
type Translator struct {
	bundle *goi18n.Bundle
}

func New() (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range []string{"locales/active.en.json", "locales/active.id.json"} {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return &Translator{bundle: bundle}, nil
}

// Localize returns the message for id in the best language of acceptLanguage.
// Unknown ids are returned verbatim.
func (t *Translator) Localize(acceptLanguage, id string) string {
	loc := goi18n.NewLocalizer(t.bundle, acceptLanguage)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}
